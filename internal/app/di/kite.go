// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"

	"invest_backend/internal/platform/externalapi/kite"
	infrahttp "invest_backend/internal/platform/http"
	"invest_backend/internal/platform/tokenstore"
)

// NewKiteTokenSource creates a TokenSource implementation.
// If Redis is available, it returns a Redis-backed implementation shared
// across processes. Otherwise, it falls back to environment variables.
func NewKiteTokenSource(rdb *redis.Client) kite.TokenSource {
	if rdb != nil {
		return tokenstore.NewRedisStore(rdb, "")
	}
	return tokenstore.NewEnvStore()
}

// NewKiteClient creates a fully configured Kite client with HTTP client.
func NewKiteClient(tokens kite.TokenSource) *kite.Client {
	cfg := kite.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return kite.NewClient(cfg, httpClient, tokens)
}
