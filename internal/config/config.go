package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultLookupSources are the Open Food Facts family endpoints queried for unknown barcodes.
var DefaultLookupSources = []string{
	"https://world.openfoodfacts.org",
	"https://world.openbeautyfacts.org",
	"https://world.openproductsfacts.org",
	"https://world.openpetfoodfacts.org",
}

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port          string
	Env           string
	JWTSecret     string
	JWTExpiration time.Duration

	DB      DatabaseConfig
	Redis   RedisConfig
	Lookup  LookupConfig
	Scanner ScannerConfig
	Worker  WorkerConfig
	AWS     AWSConfig

	// WhatsAppCountryCode prefixes supplier phone numbers in wa.me links.
	WhatsAppCountryCode string
	// CORSAllowedHosts are the browser origins (host[:port]) allowed to call the API.
	CORSAllowedHosts []string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the lib/pq connection string, also used by the LISTEN connection.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LookupConfig controls remote product metadata lookups.
type LookupConfig struct {
	Sources   []string
	Timeout   time.Duration
	MemoTTL   time.Duration
	UserAgent string
}

// ScannerConfig controls barcode scan sessions.
type ScannerConfig struct {
	IdleTimeout        time.Duration
	TextDecoderEnabled bool
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	ExpirySweepInterval time.Duration
}

// AWSConfig contains credentials for the Rekognition text fallback decoder.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	// Missing .env is fine: production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.WhatsAppCountryCode = getEnv("WHATSAPP_COUNTRY_CODE", "91")
	cfg.CORSAllowedHosts = getEnvList("CORS_ALLOWED_HOSTS", []string{"localhost:3000", "localhost:5173", "127.0.0.1:3000"})

	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Lookup = LookupConfig{
		Sources:   getEnvList("LOOKUP_SOURCES", DefaultLookupSources),
		UserAgent: getEnv("LOOKUP_USER_AGENT", "shelf-api/1.0 (inventory expiry tracker)"),
	}

	cfg.AWS = AWSConfig{
		Region:          getEnv("AWS_REGION", "ap-south-1"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
	cfg.Scanner.TextDecoderEnabled = getEnvBool("TEXT_DECODER_ENABLED", false)

	var err error
	if cfg.JWTExpiration, err = parseDurationEnv("JWT_EXPIRATION", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}
	if cfg.Lookup.Timeout, err = parseDurationEnv("LOOKUP_TIMEOUT", "8s"); err != nil {
		return nil, fmt.Errorf("invalid LOOKUP_TIMEOUT: %w", err)
	}
	if cfg.Lookup.MemoTTL, err = parseDurationEnv("RESOLUTION_MEMO_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid RESOLUTION_MEMO_TTL: %w", err)
	}
	if cfg.Scanner.IdleTimeout, err = parseDurationEnv("SCAN_SESSION_IDLE_TIMEOUT", "2m"); err != nil {
		return nil, fmt.Errorf("invalid SCAN_SESSION_IDLE_TIMEOUT: %w", err)
	}
	if cfg.Worker.ExpirySweepInterval, err = parseDurationEnv("EXPIRY_SWEEP_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_SWEEP_INTERVAL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}
	if cfg.Worker.ExpirySweepInterval == 0 {
		return nil, errors.New("EXPIRY_SWEEP_INTERVAL must be greater than zero")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimSuffix(p, "/"))
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
