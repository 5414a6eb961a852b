package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/contact-iqbal/ppdb-chat-bridge/internal/auth"
	"github.com/contact-iqbal/ppdb-chat-bridge/internal/chat"
	"github.com/contact-iqbal/ppdb-chat-bridge/internal/config"
	myMiddleware "github.com/contact-iqbal/ppdb-chat-bridge/internal/middleware"
	"github.com/contact-iqbal/ppdb-chat-bridge/internal/relay"
	"github.com/contact-iqbal/ppdb-chat-bridge/internal/store"
)

// blobFlushDebounce bounds data loss on the remote target: a burst of
// webhook writes coalesces into one blob write per window.
const blobFlushDebounce = 2 * time.Second

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", "", "http service address (overrides ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	// 2. Message Store (Platform Layer)
	var chatStore *store.Store
	if cfg.DeployTarget == config.TargetRemote {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Connected to Redis")
		chatStore = store.NewDebounced(store.NewBlobBackend(redisClient), blobFlushDebounce)
	} else {
		chatStore = store.New(store.NewFileBackend(cfg.StoreFile))
		log.Printf("✅ Using local store file: %s", cfg.StoreFile)
	}

	// 3. Realtime Relay
	var publisher relay.Publisher
	var hub *relay.Hub
	if cfg.DeployTarget == config.TargetRemote {
		publisher = relay.NewForwardingPublisher(cfg.SocketURL)
		log.Printf("♻️ Forwarding realtime events to %s", cfg.SocketURL)
	} else {
		hub = relay.NewHub()
		go hub.Run()
		publisher = relay.NewLocalPublisher(hub)
		log.Println("🚀 Hosting local socket hub")
	}

	// 4. Feature Wiring
	gateway := chat.NewGateway(cfg.GatewayURL)
	chatHandler := chat.NewHandler(chatStore, publisher, gateway, hub)

	authService := auth.NewService(cfg.JWTSecret)
	adminOnly := myMiddleware.NewAuthMiddleware(authService, auth.RoleAdmin)

	// 5. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public Routes (gateway-facing)
	r.Post("/api/socket/webhook", chatHandler.Webhook)
	r.Get("/api/admin/chat/receive", chatHandler.ReceiveStatus)
	r.Post("/api/admin/chat/receive", chatHandler.ReceiveEcho)

	// Protected Routes (admin UI, Require JWT with admin role)
	r.Group(func(r chi.Router) {
		r.Use(adminOnly.Handle)
		r.Get("/api/admin/chat/store", chatHandler.StoreGet)
		r.Post("/api/admin/chat/store", chatHandler.StorePost)
		r.Post("/api/admin/chat/send", chatHandler.Send)

		if hub != nil {
			// WebSocket (Real-time), hosted-local mode only
			r.Get("/ws", chatHandler.ServeWs)
		}
	})

	// 6. Serve + flush on shutdown
	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		log.Printf("🚀 Server starting on %s (target=%s)", cfg.Addr, cfg.DeployTarget)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	if err := chatStore.Flush(ctx); err != nil {
		log.Printf("❌ Store flush failed: %v", err)
	}
	log.Println("✅ Shutdown complete")
}
