// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/feature/prices/usecase"
)

// CachingPriceRepository decorates a PriceRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// インターフェース実装の確認
var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertHistoric stores candles and invalidates cached windows for the option.
func (c *CachingPriceRepository) UpsertHistoric(ctx context.Context, optionID uint, exchange instrentity.Exchange, candles []entity.Candle) error {
	// First upsert to the underlying repository (Postgres)
	if err := c.inner.UpsertHistoric(ctx, optionID, exchange, candles); err != nil {
		return err
	}
	// Exit early if Redis is not configured or there are no candles
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	// Invalidate every cached window for this option+exchange (best effort)
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(optionID, exchange)+"*")
	return nil
}

// UpsertLive stores live ticks. Live prices are never read through the cache,
// so nothing is invalidated.
func (c *CachingPriceRepository) UpsertLive(ctx context.Context, prices []entity.LivePrice) error {
	return c.inner.UpsertLive(ctx, prices)
}

// FindHistoric retrieves candles, checking cache first then falling back to the database.
func (c *CachingPriceRepository) FindHistoric(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindHistoric(ctx, optionID, exchange, from, to)
	}

	key := c.cacheKey(optionID, exchange, from, to)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.HistoricPrice
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.FindHistoric(ctx, optionID, exchange, from, to)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for a specific query window.
func (c *CachingPriceRepository) cacheKey(optionID uint, exchange instrentity.Exchange, from, to time.Time) string {
	return fmt.Sprintf("%s:%d:%s:%d:%d",
		c.namespace,
		optionID,
		exchange,
		from.Unix(),
		to.Unix(),
	)
}

// cacheKeyPrefix generates a prefix for invalidating related cache entries.
func (c *CachingPriceRepository) cacheKeyPrefix(optionID uint, exchange instrentity.Exchange) string {
	return fmt.Sprintf("%s:%d:%s:", c.namespace, optionID, exchange)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
