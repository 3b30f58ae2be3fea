package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API server and the CLI read from the environment.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DBDriver string // sqlite | postgres
	DBDSN    string
	Postgres PostgresConfig

	JWTSecret       string
	StorageDir      string
	CompanyProfile  string
	HomeStatePrefix string
	Overflow        string

	AllowedOrigins  string
	BodyLimitBytes  int
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// PostgresConfig is used when DB_DSN is empty and DB_DRIVER=postgres.
type PostgresConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:     env("PORT", "8080"),
		AppEnv:   env("APP_ENV", "production"),
		LogLevel: env("LOG_LEVEL", "info"),
		DBDriver: strings.ToLower(env("DB_DRIVER", "sqlite")),
		DBDSN:    os.Getenv("DB_DSN"),
		Postgres: PostgresConfig{
			Host:     env("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     env("DB_PORT", "5432"),
		},
		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
		StorageDir:      env("STORAGE_DIR", "storage/invoices"),
		CompanyProfile:  os.Getenv("COMPANY_PROFILE"),
		HomeStatePrefix: os.Getenv("HOME_STATE_PREFIX"),
		Overflow:        env("TABLE_OVERFLOW", "accept"),
		AllowedOrigins:  env("ALLOWED_ORIGINS", "*"),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	cfg.BodyLimitBytes = envInt("BODY_LIMIT_BYTES", 0)
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = envInt("BODY_LIMIT_MB", 5) * 1024 * 1024
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBDSN == "" {
			cfg.DBDSN = "billing.db"
		}
	case "postgres":
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDSN != "" || c.DBDriver != "postgres" {
		return c.DBDSN
	}
	p := c.Postgres
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Kolkata",
		p.Host, p.User, p.Password, p.Name, p.Port)
}

// StatePrefix is the home-state GSTIN prefix: HOME_STATE_PREFIX, else the
// first two characters of the issuer GSTIN, else "".
func (c Config) StatePrefix(issuerGSTIN string) string {
	if p := strings.TrimSpace(c.HomeStatePrefix); p != "" {
		return p
	}
	if g := strings.TrimSpace(issuerGSTIN); len(g) >= 2 {
		return g[:2]
	}
	return ""
}

// Development reports whether APP_ENV=development.
func (c Config) Development() bool { return strings.EqualFold(c.AppEnv, "development") }

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
