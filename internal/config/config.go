package config

import (
	"log"
	"os"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	JWTSecret      string
	SendGridAPIKey string
	MailFromEmail  string
	MailFromName   string
	RedisAddr      string
	RedisPassword  string
}

// Load reads configuration from the process environment. Connection values
// and secrets carry no committed defaults; a missing one aborts startup.
func Load() *Config {
	return &Config{
		Port:           mustGetenv("PORT"),
		MongoURI:       mustGetenv("MONGODB_URL"),
		MongoDB:        getenv("MONGODB_DATABASE", "task_manager"),
		JWTSecret:      mustGetenv("JWT_SECRET"),
		SendGridAPIKey: mustGetenv("SENDGRID_API_KEY"),
		MailFromEmail:  mustGetenv("MAIL_FROM_EMAIL"),
		MailFromName:   getenv("MAIL_FROM_NAME", "Task Manager"),
		RedisAddr:      mustGetenv("REDIS_ADDR"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustGetenv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return v
}
