package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Gemini   GeminiConfig
	IMAP     IMAPConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// StorageConfig holds object storage (S3-compatible) configuration
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // base for public object URLs; defaults to the endpoint
}

// GeminiConfig holds extraction backend configuration
type GeminiConfig struct {
	Model      string
	APIKeys    []string // GOOGLE_API_KEY, GOOGLE_API_KEY_2 .. _9
	BaseURL    string
	Timeout    time.Duration
	CacheSize  int
	RetryDelay time.Duration
}

// IMAPConfig holds mailbox polling configuration
type IMAPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Folder   string
}

// IngestConfig holds pipeline thresholds and limits
type IngestConfig struct {
	MaxMailMessages int
	AIVersion       string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:        getEnv("STORAGE_BUCKET", "invoices"),
			UseSSL:        getEnvAsBool("STORAGE_USE_SSL", true),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		},
		Gemini: GeminiConfig{
			Model:      getEnv("GEMINI_MODEL", "gemini-flash-latest"),
			APIKeys:    loadAPIKeys(),
			BaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout:    getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
			CacheSize:  getEnvAsInt("EXTRACTION_CACHE_SIZE", 1024),
			RetryDelay: getEnvAsDuration("GEMINI_RETRY_DELAY", 2*time.Second),
		},
		IMAP: IMAPConfig{
			Host:     getEnv("IMAP_HOST", ""),
			Port:     getEnvAsInt("IMAP_PORT", 993),
			User:     getEnv("IMAP_USER", ""),
			Password: strings.ReplaceAll(getEnv("IMAP_PASSWORD", ""), " ", ""),
			Folder:   getEnv("IMAP_FOLDER", "INBOX"),
		},
		Ingest: IngestConfig{
			MaxMailMessages: getEnvAsInt("INGEST_MAX_MAIL_MESSAGES", 20),
			AIVersion:       getEnv("GEMINI_MODEL", "gemini-flash-latest"),
		},
	}
}

// loadAPIKeys reads GOOGLE_API_KEY plus numbered fallbacks GOOGLE_API_KEY_2..9.
func loadAPIKeys() []string {
	var keys []string
	for i := 1; i < 10; i++ {
		name := "GOOGLE_API_KEY"
		if i > 1 {
			name = "GOOGLE_API_KEY_" + strconv.Itoa(i)
		}
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if len(c.Gemini.APIKeys) == 0 {
		return NewAppError("CONFIG_ERROR", "GOOGLE_API_KEY is required", ErrInvalidInput)
	}
	if c.Storage.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_ENDPOINT is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
