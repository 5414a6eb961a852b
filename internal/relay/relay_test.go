package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case frame := <-c.Send:
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return nil
	}
}

func TestLocalPublisher_BroadcastsToAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := &Client{Hub: hub, Send: make(chan []byte, 4)}
	c2 := &Client{Hub: hub, Send: make(chan []byte, 4)}
	hub.Register <- c1
	hub.Register <- c2

	pub := NewLocalPublisher(hub)
	require.NoError(t, pub.Publish(context.Background(), EventNewMessage, map[string]string{"message": "Hi"}))

	for _, c := range []*Client{c1, c2} {
		var env struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recvFrame(t, c), &env))
		assert.Equal(t, EventNewMessage, env.Event)
		assert.Equal(t, "Hi", env.Data["message"])
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &Client{Hub: hub, Send: make(chan []byte, 4)}
	hub.Register <- c
	hub.Unregister <- c

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestHub_DropsClientThatCannotKeepUp(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Unbuffered channel with no reader: the first broadcast can't deliver
	c := &Client{Hub: hub, Send: make(chan []byte)}
	hub.Register <- c
	hub.Broadcast([]byte(`{"event":"new_message"}`))

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestForwardingPublisher_ForwardsOverOneConnection(t *testing.T) {
	frames := make(chan Envelope, 4)
	var conns int32

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&conns, 1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			frames <- env
		}
	}))
	defer srv.Close()

	pub := NewForwardingPublisher("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer pub.Close()

	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, EventNewMessage, map[string]string{"message": "satu"}))
	require.NoError(t, pub.Publish(ctx, EventNewMessage, map[string]string{"message": "dua"}))

	for _, want := range []string{"satu", "dua"} {
		select {
		case env := <-frames:
			assert.Equal(t, EventNewMessage, env.Event)
			data, ok := env.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, want, data["message"])
		case <-time.After(time.Second):
			t.Fatal("frame not forwarded")
		}
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&conns), "publishes must reuse the lazy connection")
}

func TestForwardingPublisher_DialFailure(t *testing.T) {
	pub := NewForwardingPublisher("ws://127.0.0.1:1/ws")
	err := pub.Publish(context.Background(), EventNewMessage, nil)
	assert.Error(t, err)
}
