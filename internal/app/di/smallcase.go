package di

import (
	"invest_backend/internal/platform/externalapi/smallcase"
	infrahttp "invest_backend/internal/platform/http"
)

// NewSmallcaseClient creates a fully configured smallcase gateway client.
func NewSmallcaseClient() *smallcase.Client {
	cfg := smallcase.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return smallcase.NewClient(cfg, httpClient)
}
