package gemini

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the Gemini REST client. API keys are not part of the config;
// they are passed per call so the caller can rotate them.
type Config struct {
	BaseURL string        // default https://generativelanguage.googleapis.com/v1beta
	Model   string        // e.g., "gemini-flash-latest"
	Timeout time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-flash-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
