package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/shared/ratelimiter"
)

// liveChunkSize is how many instruments one quote call covers.
const liveChunkSize = 500

// MarketCalendar reports whether the market is currently in session.
type MarketCalendar interface {
	IsMarketOpen() bool
}

// LiveUsecase captures intraday OHLC snapshots while the market is open.
type LiveUsecase struct {
	market      MarketRepository
	instruments InstrumentRepository
	prices      PriceRepository
	calendar    MarketCalendar
	pacer       ratelimiter.Pacer

	now func() time.Time
}

// NewLiveUsecase creates a new LiveUsecase.
func NewLiveUsecase(market MarketRepository, instruments InstrumentRepository, prices PriceRepository, calendar MarketCalendar, pacer ratelimiter.Pacer) *LiveUsecase {
	return &LiveUsecase{
		market:      market,
		instruments: instruments,
		prices:      prices,
		calendar:    calendar,
		pacer:       pacer,
		now:         time.Now,
	}
}

// IngestLive quotes every mapped instrument in chunks and stores one row per
// quoted instrument. Instruments the vendor returns no quote for are skipped.
// Outside market hours the run is a no-op.
func (u *LiveUsecase) IngestLive(ctx context.Context) error {
	if !u.calendar.IsMarketOpen() {
		slog.Info("market closed, skipping live price capture")
		return nil
	}

	traded, err := u.instruments.ListTraded(ctx)
	if err != nil {
		return fmt.Errorf("list traded instruments: %w", err)
	}

	start := time.Now()
	// every row of this run shares the capture timestamp, across chunks
	capturedAt := u.now().UTC()
	var stored, skipped int
	for i := 0; i < len(traded); i += liveChunkSize {
		if i > 0 {
			if err := u.pacer.Wait(ctx); err != nil {
				return err
			}
		}
		end := i + liveChunkSize
		if end > len(traded) {
			end = len(traded)
		}
		chunk := traded[i:end]

		keys := make([]string, 0, len(chunk))
		for _, inst := range chunk {
			keys = append(keys, inst.QuoteKey())
		}
		quotes, err := u.market.OHLCQuotes(ctx, keys)
		if err != nil {
			return fmt.Errorf("fetch quotes: %w", err)
		}

		rows := make([]entity.LivePrice, 0, len(chunk))
		for _, inst := range chunk {
			q, ok := quotes[inst.QuoteKey()]
			if !ok {
				skipped++
				continue
			}
			rows = append(rows, entity.LivePrice{
				InvestmentOptionID: inst.InvestmentOptionID,
				Exchange:           inst.Exchange,
				Time:               capturedAt,
				Open:               q.Open,
				High:               q.High,
				Low:                q.Low,
				Close:              q.LastPrice,
				Volume:             q.Volume,
			})
		}
		if len(rows) > 0 {
			if err := u.prices.UpsertLive(ctx, rows); err != nil {
				return fmt.Errorf("store live prices: %w", err)
			}
			stored += len(rows)
		}
	}

	slog.Info("live price capture finished",
		"instruments", len(traded),
		"stored", stored,
		"skipped", skipped,
		"elapsed", time.Since(start),
	)
	return nil
}
