package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AuthPort         string
	NotificationPort string
	PostgresDSN      string
	RedisAddr        string
	RedisDB          int
	RedisPass        string
	JWTSecret        string
	NotificationURL  string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	SwaggerHost      string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AuthPort:         getEnv("AUTH_PORT", "5000"),
		NotificationPort: getEnv("NOTIFICATION_PORT", "5001"),
		PostgresDSN:      getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=co2plus port=5432 sslmode=disable"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisPass:        os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		NotificationURL:  getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:5001"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         getEnv("SMTP_FROM", "no-reply@co2plus.local"),
		SwaggerHost:      os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
