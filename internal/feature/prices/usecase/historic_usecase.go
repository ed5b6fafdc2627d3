package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/shared/ratelimiter"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
)

// historicPageSize is how many instruments one historic run processes.
const historicPageSize = 300

// MarketRepository is the market data vendor as seen by the price usecases.
// インターフェースは利用側（usecase）で定義します。
type MarketRepository interface {
	HistoricCandles(ctx context.Context, instrumentToken string, from, to time.Time) ([]entity.Candle, error)
	OHLCQuotes(ctx context.Context, instruments []string) (map[string]entity.Quote, error)
}

// InstrumentRepository lists the instruments eligible for price ingestion.
type InstrumentRepository interface {
	// ListActivePage returns active instruments ordered by option id.
	ListActivePage(ctx context.Context, limit, offset int) ([]entity.Instrument, error)
	// ListTraded returns every mapped instrument with its trading symbol.
	ListTraded(ctx context.Context) ([]entity.TradedInstrument, error)
}

// PriceRepository persists and reads price rows.
type PriceRepository interface {
	UpsertHistoric(ctx context.Context, optionID uint, exchange instrentity.Exchange, candles []entity.Candle) error
	UpsertLive(ctx context.Context, prices []entity.LivePrice) error
	FindHistoric(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error)
}

// HistoricUsecase ingests daily candles for a page of active instruments.
type HistoricUsecase struct {
	market      MarketRepository
	instruments InstrumentRepository
	prices      PriceRepository
	pacer       ratelimiter.Pacer
	workers     int
}

// NewHistoricUsecase creates a new HistoricUsecase. workers bounds the
// concurrent vendor calls; the pacer spaces them out regardless.
func NewHistoricUsecase(market MarketRepository, instruments InstrumentRepository, prices PriceRepository, pacer ratelimiter.Pacer, workers int) *HistoricUsecase {
	if workers <= 0 {
		workers = 1
	}
	return &HistoricUsecase{
		market:      market,
		instruments: instruments,
		prices:      prices,
		pacer:       pacer,
		workers:     workers,
	}
}

// IngestHistoric fetches and upserts daily candles for one page of active
// instruments starting at offset. The first failure cancels the remaining
// work and fails the run; progress so far stays committed.
func (u *HistoricUsecase) IngestHistoric(ctx context.Context, from, to time.Time, offset int) error {
	start := time.Now()

	page, err := u.instruments.ListActivePage(ctx, historicPageSize, offset)
	if err != nil {
		return fmt.Errorf("list active instruments: %w", err)
	}
	if len(page) == 0 {
		slog.Info("no active instruments at offset", "offset", offset)
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
		lastToken atomic.Value
		errOnce   sync.Once
		runErr    error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			runErr = err
			cancel()
		})
	}

	jobs := make(chan entity.Instrument)
	for i := 0; i < u.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				lastToken.Store(inst.InstrumentToken)
				if err := u.pacer.Wait(runCtx); err != nil {
					fail(err)
					return
				}
				if err := u.ingestInstrument(runCtx, inst, from, to); err != nil {
					fail(err)
					return
				}
				processed.Add(1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, inst := range page {
			select {
			case jobs <- inst:
			case <-runCtx.Done():
				return
			}
		}
	}()

	wg.Wait()

	if runErr != nil {
		slog.Error("historic price ingest aborted",
			"processed", processed.Load(),
			"lastToken", lastToken.Load(),
			"elapsed", time.Since(start),
			"error", runErr,
		)
		return runErr
	}

	slog.Info("historic price ingest finished",
		"instruments", len(page),
		"processed", processed.Load(),
		"offset", offset,
		"elapsed", time.Since(start),
	)
	return nil
}

func (u *HistoricUsecase) ingestInstrument(ctx context.Context, inst entity.Instrument, from, to time.Time) error {
	candles, err := u.market.HistoricCandles(ctx, inst.InstrumentToken, from, to)
	if err != nil {
		return fmt.Errorf("fetch candles for token %s: %w", inst.InstrumentToken, err)
	}
	if len(candles) == 0 {
		return nil
	}
	if err := u.prices.UpsertHistoric(ctx, inst.InvestmentOptionID, inst.Exchange, candles); err != nil {
		return fmt.Errorf("store candles for option %d: %w", inst.InvestmentOptionID, err)
	}
	return nil
}
