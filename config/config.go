package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the modules need from the environment. It is
// loaded once in main and passed explicitly, so tests can construct their
// own values instead of poking at process state.
type Config struct {
	Port           string
	SQLitePath     string
	SessionSecret  string
	AdminUsername  string
	AdminPassword  string
	AllowedOrigins []string
	SecureCookies  bool
}

func Load() *Config {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		SQLitePath:     os.Getenv("SQLITE_DB"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		SecureCookies:  os.Getenv("SECURE_COOKIES") == "1",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
