package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "fortmix-dev-secret-change-me-in-production"

// Database selects the store backend.
type Database struct {
	Driver string // sqlite | postgres | mysql
	DSN    string
	Debug  bool
}

type Config struct {
	HTTPPort     string
	DB           Database
	JWTSecret    string
	JWTTTL       time.Duration
	CORSOrigins  []string
	StrictStock  bool // reject sales that would take stock below zero
	Timezone     *time.Location
	GeminiAPIKey string

	AdminUsername string
	AdminPassword string
	AdminName     string

	Release bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	release := getEnv("GIN_MODE", "debug") == "release"

	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		DB: Database{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:    getEnv("DB_DSN", "fortmix.db"),
			Debug:  getEnvAsBool("DB_DEBUG", false),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        getEnvAsDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StrictStock:   getEnvAsBool("STRICT_STOCK", false),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		Release:       release,
	}

	switch cfg.DB.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	loc, err := time.LoadLocation(getEnv("TZ_NAME", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME: %w", err)
	}
	cfg.Timezone = loc

	if cfg.JWTSecret == "" {
		if release {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		log.Println("⚠️ WARNING: JWT_SECRET not set, using the development secret")
		cfg.JWTSecret = devJWTSecret
	}
	if release && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
