package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	GatewayURL     string // payment gateway base URL (card / mobile wallet)
	GatewayAPIKey  string
	GatewayTimeout time.Duration // hard cap on the synchronous charge call
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=permini port=5432 sslmode=disable"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		GatewayURL:     getEnv("PAYMENT_GATEWAY_URL", ""),
		GatewayAPIKey:  getEnv("PAYMENT_GATEWAY_API_KEY", ""),
		GatewayTimeout: getEnvSeconds("PAYMENT_GATEWAY_TIMEOUT_SECONDS", 15*time.Second),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set, refusing to start")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.GatewayURL == "" {
		log.Println("[WARN] PAYMENT_GATEWAY_URL is not set, card and mobile wallet checkouts will fail")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		log.Printf("[WARN] %s is invalid (%q), using default %s", key, v, def)
		return def
	}
	return time.Duration(secs) * time.Second
}
