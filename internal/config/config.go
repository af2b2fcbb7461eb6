package config

import (
	"os"
)

type Config struct {
	Port                string
	GinMode             string
	DBDriver            string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	JWTSecret           string
	AppBaseURL          string
	PaddleWebhookSecret string
	StripeWebhookSecret string
	MailFrom            string
}

func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		DBDriver:            getEnv("DB_DRIVER", "mysql"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "3306"),
		DBUser:              getEnv("DB_USER", "flame"),
		DBPassword:          getEnv("DB_PASSWORD", "flame"),
		DBName:              getEnv("DB_NAME", "flame_api"),
		JWTSecret:           getEnv("JWT_SECRET", "default-secret-key-change-me"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:3000"),
		PaddleWebhookSecret: getEnv("PADDLE_WEBHOOK_SECRET", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		MailFrom:            getEnv("MAIL_FROM", "no-reply@flamekit.dev"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
