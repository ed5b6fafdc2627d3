// Package smallcase provides a client for the smallcase gateway API used to
// import broker holdings.
package smallcase

import (
	"os"
	"time"
)

// Config holds configuration for the smallcase gateway client.
type Config struct {
	BaseURL          string        // Base URL (e.g., "https://gatewayapi.smallcase.com")
	Gateway          string        // Gateway name assigned by the vendor
	Secret           string        // HS256 secret for gateway tokens
	APIGatewaySecret string        // Shared secret for the x-gateway-secret header and webhook checksums
	Timeout          time.Duration // HTTP request timeout
}

// LoadConfig loads smallcase configuration from environment variables.
func LoadConfig() Config {
	base := os.Getenv("SMALLCASE_BASE_URL")
	if base == "" {
		base = "https://gatewayapi.smallcase.com"
	}
	return Config{
		BaseURL:          base,
		Gateway:          os.Getenv("SMALLCASE_GATEWAY"),
		Secret:           os.Getenv("SMALLCASE_SECRET"),
		APIGatewaySecret: os.Getenv("SMALLCASE_API_GATEWAY_SECRET"),
		Timeout:          10 * time.Second,
	}
}
