// Package config loads service settings from the environment and opens the database
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultDatabaseURL = "file:book_a_meal.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Config holds all configuration for the service
type Config struct {
	Port        string
	GinMode     string
	DatabaseURL string
	LogLevel    string
	CORSOrigins []string
	JWT         JWTConfig
	BcryptCost  int
	Caterer     CatererConfig
	SMTP        SMTPConfig
	Links       LinkConfig
}

// JWTConfig holds access token settings
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CatererConfig describes the caterer account seeded at startup
type CatererConfig struct {
	Username string
	Email    string
	Password string
}

// SMTPConfig holds outbound mail settings. An empty host disables SMTP delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LinkConfig holds the front-end URLs mailed to users; the token is appended
type LinkConfig struct {
	EmailVerification string
	PasswordReset     string
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     os.Getenv("GIN_MODE"),
		DatabaseURL: getEnv("DATABASE_URL", defaultDatabaseURL),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Caterer: CatererConfig{
			Username: getEnv("CATERER_USERNAME", "caterer"),
			Email:    getEnv("CATERER_EMAIL", "caterer@bookameal.com"),
			Password: os.Getenv("CATERER_PASSWORD"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@bookameal.com"),
		},
		Links: LinkConfig{
			EmailVerification: getEnv("EMAIL_VERIFICATION_URL", "http://localhost:8080/api/v1/auth/verify/"),
			PasswordReset:     getEnv("PASSWORD_RESET_URL", "http://localhost:8080/api/v1/auth/password_reset/"),
		},
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	expiry, err := time.ParseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRY: %w", err)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRY must be positive")
	}
	cfg.JWT.AccessTokenExpiry = expiry

	cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	cfg.SMTP.Port, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
