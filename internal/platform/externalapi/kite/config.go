// Package kite provides a client for the Zerodha Kite Connect market API.
package kite

import (
	"os"
	"time"
)

// Config holds configuration for the Kite API client.
type Config struct {
	BaseURL string        // Base URL for the API (e.g., "https://api.kite.trade")
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads Kite configuration from environment variables.
func LoadConfig() Config {
	base := os.Getenv("KITE_BASE_URL")
	if base == "" {
		base = "https://api.kite.trade"
	}
	return Config{
		BaseURL: base,
		Timeout: 30 * time.Second,
	}
}
