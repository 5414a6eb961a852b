package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Deployment targets. The single flag drives both halves of the bridge:
// which store backend holds the aggregate and which publisher carries the
// realtime traffic.
const (
	TargetLocal  = "local"  // JSON file store + in-process socket hub
	TargetRemote = "remote" // Redis blob store + forward to hosted socket server
)

type Config struct {
	Addr         string
	JWTSecret    string
	DeployTarget string
	SocketURL    string // hosted push server, required for TargetRemote
	RedisAddr    string
	StoreFile    string
	GatewayURL   string // WhatsApp gateway base URL
}

// Load reads .env (optional, dev convenience) then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         getEnv("ADDR", ":8080"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		DeployTarget: getEnv("DEPLOY_TARGET", TargetLocal),
		SocketURL:    os.Getenv("SOCKET_URL"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		StoreFile:    getEnv("STORE_FILE", "chat_store.json"),
		GatewayURL:   getEnv("WA_URL", "http://localhost:3002"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	switch cfg.DeployTarget {
	case TargetLocal:
	case TargetRemote:
		if cfg.SocketURL == "" {
			return nil, fmt.Errorf("SOCKET_URL is required when DEPLOY_TARGET=remote")
		}
	default:
		return nil, fmt.Errorf("unknown DEPLOY_TARGET %q", cfg.DeployTarget)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
