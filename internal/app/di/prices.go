package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	priceadapters "invest_backend/internal/feature/prices/adapters"
	"invest_backend/internal/feature/prices/usecase"
	"invest_backend/internal/platform/cache"
)

// NewPriceRepository creates the price store, wrapped with Redis caching when
// Redis is available. Daily bars only change at market open, so cached reads
// live until the next session starts.
func NewPriceRepository(rdb *redis.Client, db *gorm.DB) usecase.PriceRepository {
	plain := priceadapters.NewPricePostgres(db)
	if rdb == nil {
		return plain
	}
	ttl := cache.TimeUntilNextMarketOpen()
	return cache.NewCachingPriceRepository(rdb, ttl, plain, "prices")
}
