package config

import (
	"errors"
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port        string
	FrontendURL string
	DB          PostgresConfig
	Auth        AuthConfig
	Worker      WorkerConfig
	Payment     PaymentConfig
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret     string
	CookieDomain  string
	SecureCookies bool
}

type WorkerConfig struct {
	Python string // python interpreter, e.g. "python3"
	Script string // path to worker.py
}

type PaymentConfig struct {
	KeyID     string
	KeySecret string
	// Amount charged for the PRO plan, in the currency's smallest unit.
	AmountPaise int64
}

func LoadConfig() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	amount := int64(499900)
	if v := os.Getenv("PAYMENT_AMOUNT_PAISE"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, errors.New("PAYMENT_AMOUNT_PAISE must be a positive integer")
		}
		amount = parsed
	}

	cfg := &Config{
		Port:        envOr("PORT", "3001"),
		FrontendURL: envOr("FRONTEND_URL", "http://localhost:3000"),
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      envOr("POSTGRES_URL", "localhost"),
			Port:     envOr("POSTGRES_PORT", "5432"),
			Database: envOr("POSTGRES_DB", "accuscanner"),
			SSLMode:  envOr("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     secret,
			CookieDomain:  os.Getenv("COOKIE_DOMAIN"),
			SecureCookies: os.Getenv("ENV") == "production",
		},
		Worker: WorkerConfig{
			Python: envOr("PYTHON_EXECUTABLE", "python"),
			Script: envOr("WORKER_SCRIPT", "../python/worker.py"),
		},
		Payment: PaymentConfig{
			KeyID:       os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:   os.Getenv("RAZORPAY_KEY_SECRET"),
			AmountPaise: amount,
		},
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
