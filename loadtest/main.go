package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/contact-iqbal/ppdb-chat-bridge/internal/auth"
)

const (
	BaseURL     = "http://localhost:8080"
	WSURL       = "ws://localhost:8080/ws"
	Subscribers = 50  // ⚠️ Concurrent admin UI sockets. Start small.
	MsgCount    = 200 // Webhook deliveries to fire
)

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}
	token, err := mintAdminToken(secret)
	if err != nil {
		log.Fatalf("❌ Token mint failed: %v", err)
	}

	log.Printf("🔥 STARTING RELAY TEST: %d subscribers, %d webhook messages...", Subscribers, MsgCount)

	var received int64
	var wg sync.WaitGroup
	for i := 0; i < Subscribers; i++ {
		wg.Add(1)
		go subscribe(&wg, token, i, &received)
	}

	// Give subscribers a moment to finish their handshakes
	time.Sleep(500 * time.Millisecond)

	start := time.Now()
	for i := 0; i < MsgCount; i++ {
		postWebhook(i)
	}
	elapsed := time.Since(start)

	wg.Wait()

	expected := int64(Subscribers * MsgCount)
	got := atomic.LoadInt64(&received)
	log.Printf("✅ LOAD TEST COMPLETE: sent %d msgs in %v, delivered %d/%d frames",
		MsgCount, elapsed, got, expected)
}

// mintAdminToken signs the same claims shape the admin panel's login issues.
func mintAdminToken(secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: 1,
		Email:  "loadtest@localhost",
		Role:   auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	return token.SignedString([]byte(secret))
}

// subscribe connects one UI socket and counts delivered envelopes until the
// stream goes quiet.
func subscribe(wg *sync.WaitGroup, token string, id int, received *int64) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, token), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%d]: %v", id, err)
		return
	}
	defer conn.Close()

	for {
		// Quiet for 3s = the burst is over
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		// The hub batches queued frames into one write, newline-joined
		atomic.AddInt64(received, int64(bytes.Count(frame, []byte{'\n'}))+1)
	}
}

func postWebhook(i int) {
	body := map[string]interface{}{
		"from":       fmt.Sprintf("62811%05d@c.us", i%25),
		"user":       fmt.Sprintf("LoadTester %d", i%25),
		"message":    fmt.Sprintf("LoadTest Msg %d", i),
		"type":       "text",
		"is_from_me": false,
	}
	jsonBody, _ := json.Marshal(body)
	resp, err := http.Post(BaseURL+"/api/socket/webhook", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Printf("❌ Webhook Post Fail [%d]: %v", i, err)
		return
	}
	resp.Body.Close()
}
