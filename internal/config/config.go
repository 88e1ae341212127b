package config

import (
	"os"
	"strconv"
	"time"

	"splitfund/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort        string
	DatabaseURL    string
	JWTSecret      string
	ProviderSecret string
	AllowedOrigin  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// API rate limits (per IP, redis fixed window)
	APIRateLimit  int
	APIRateWindow time.Duration

	// Write rate limits (per user, submit/resolve endpoints)
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Submissions above this amount are rejected outright
	MaxTransactionAmount string
}

// Load reads configuration from the environment. Required variables are
// fatal when missing; everything else has a default.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	providerSecret := os.Getenv("AUTH_PROVIDER_SECRET")
	if providerSecret == "" {
		logger.Fatal("AUTH_PROVIDER_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	maxAmount := os.Getenv("MAX_TRANSACTION_AMOUNT")
	if maxAmount == "" {
		maxAmount = "1000000"
	}

	return &Config{
		AppPort:              port,
		DatabaseURL:          dbURL,
		JWTSecret:            jwtSecret,
		ProviderSecret:       providerSecret,
		AllowedOrigin:        os.Getenv("ALLOWED_ORIGIN"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              redisDB,
		APIRateLimit:         envInt("API_RATE_LIMIT", 60),
		APIRateWindow:        envSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		WriteRateLimit:       envInt("WRITE_RATE_LIMIT", 20),
		WriteRateWindow:      envSeconds("WRITE_RATE_WINDOW_SECONDS", time.Minute),
		MaxTransactionAmount: maxAmount,
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
