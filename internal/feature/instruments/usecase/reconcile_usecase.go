package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"invest_backend/internal/feature/instruments/domain/entity"
)

// InstrumentSource downloads the vendor's full instrument universe.
// インターフェースは利用側（usecase）で定義します。
type InstrumentSource interface {
	DownloadInstruments(ctx context.Context) ([]entity.InstrumentRow, error)
}

// OptionRepository persists investment options and their exchange mappings.
type OptionRepository interface {
	// FindByTickers returns options whose NSE or BSE ticker is in tickers.
	FindByTickers(ctx context.Context, tickers []string) ([]entity.InvestmentOption, error)
	// UpdateTickers persists the given exchange's ticker for each option.
	UpdateTickers(ctx context.Context, options []entity.InvestmentOption, exchange entity.Exchange) error
	// InsertOptions creates new options, ignoring ticker conflicts, and
	// returns them with ids assigned.
	InsertOptions(ctx context.Context, options []entity.InvestmentOption) ([]entity.InvestmentOption, error)
	// UpsertMappings writes instrument mappings keyed (option, exchange).
	UpsertMappings(ctx context.Context, mappings []entity.InstrumentMapping) error
	// DeactivateAll clears the active flag on every option.
	DeactivateAll(ctx context.Context) error
	// Activate sets the active flag on the given option ids.
	Activate(ctx context.Context, ids []uint) error
}

// ReconcileSummary reports what one reconciliation pass did.
type ReconcileSummary struct {
	Exchange    entity.Exchange
	Instruments int
	Inserted    int
	Backfilled  int
}

// ReconcileUsecase synchronizes the investment option universe with the
// vendor's instrument dump for one exchange.
type ReconcileUsecase struct {
	source  InstrumentSource
	options OptionRepository
}

// NewReconcileUsecase creates a new ReconcileUsecase.
func NewReconcileUsecase(source InstrumentSource, options OptionRepository) *ReconcileUsecase {
	return &ReconcileUsecase{source: source, options: options}
}

// BuildInstrumentIndex reduces the raw dump to one canonical instrument per
// ticker for the given exchange.
//
// The trading symbol is split on "-": a single part is both ticker and
// symbol, two parts keep the first part as ticker and the full symbol,
// anything longer is discarded. Rows are ordered by trading symbol and the
// first occurrence of a ticker wins, so "RELIANCE" beats "RELIANCE-BE".
func BuildInstrumentIndex(rows []entity.InstrumentRow, exchange entity.Exchange) map[string]*entity.InstrumentInfo {
	filtered := make([]entity.InstrumentRow, 0, len(rows))
	for _, r := range rows {
		if r.Exchange == string(exchange) {
			filtered = append(filtered, r)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].TradingSymbol < filtered[j].TradingSymbol
	})

	index := make(map[string]*entity.InstrumentInfo)
	for _, r := range filtered {
		parts := strings.Split(r.TradingSymbol, "-")
		var ticker string
		switch len(parts) {
		case 1:
			ticker = r.TradingSymbol
		case 2:
			ticker = parts[0]
		default:
			continue
		}
		if _, ok := index[ticker]; ok {
			continue
		}
		name := strings.TrimSpace(strings.ReplaceAll(r.Name, `"`, ""))
		if name == "" {
			name = ticker
		}
		index[ticker] = &entity.InstrumentInfo{
			Ticker:          ticker,
			TradingSymbol:   r.TradingSymbol,
			InstrumentToken: r.InstrumentToken,
			Name:            name,
		}
	}
	return index
}

// ReconcileExchange downloads the instrument universe and reconciles it with
// the stored options in three tiers: options already carrying the ticker on
// this exchange, options listed on the other exchange under the same ticker
// (backfill), and brand new tickers (insert). Mappings are upserted for every
// surviving instrument. On the NSE pass all options are deactivated first so
// that delisted securities drop out; the BSE pass only activates.
func (u *ReconcileUsecase) ReconcileExchange(ctx context.Context, exchange entity.Exchange) (ReconcileSummary, error) {
	rows, err := u.source.DownloadInstruments(ctx)
	if err != nil {
		return ReconcileSummary{}, fmt.Errorf("download instruments: %w", err)
	}

	index := BuildInstrumentIndex(rows, exchange)
	summary := ReconcileSummary{Exchange: exchange, Instruments: len(index)}
	if len(index) == 0 {
		slog.Warn("instrument dump had no rows for exchange", "exchange", exchange)
		return summary, nil
	}

	tickers := make([]string, 0, len(index))
	for t := range index {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	existing, err := u.options.FindByTickers(ctx, tickers)
	if err != nil {
		return summary, fmt.Errorf("find options by tickers: %w", err)
	}

	// tier 1: tickers already resolved on this exchange
	missing := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		missing[t] = true
	}
	for i := range existing {
		if t := existing[i].Ticker(exchange); t != nil {
			delete(missing, *t)
		}
	}

	// tier 2: cross-exchange backfill
	var backfilled []entity.InvestmentOption
	for i := range existing {
		o := &existing[i]
		if o.Ticker(exchange) != nil {
			continue
		}
		other := o.Ticker(exchange.Other())
		if other == nil || !missing[*other] {
			continue
		}
		o.SetTicker(exchange, *other)
		backfilled = append(backfilled, *o)
		delete(missing, *other)
	}
	if len(backfilled) > 0 {
		if err := u.options.UpdateTickers(ctx, backfilled, exchange); err != nil {
			return summary, fmt.Errorf("backfill tickers: %w", err)
		}
	}

	// tier 3: insert the remainder
	var newOptions []entity.InvestmentOption
	for _, t := range tickers {
		if !missing[t] {
			continue
		}
		o := entity.InvestmentOption{Name: index[t].Name}
		o.SetTicker(exchange, t)
		newOptions = append(newOptions, o)
	}
	inserted, err := u.options.InsertOptions(ctx, newOptions)
	if err != nil {
		return summary, fmt.Errorf("insert options: %w", err)
	}

	if err := assignOptionIDs(index, existing, exchange); err != nil {
		return summary, err
	}
	if err := assignOptionIDs(index, inserted, exchange); err != nil {
		return summary, err
	}

	mappings := make([]entity.InstrumentMapping, 0, len(index))
	ids := make([]uint, 0, len(index))
	for _, t := range tickers {
		info := index[t]
		if info.InvestmentOptionID == 0 {
			return summary, fmt.Errorf("%w: no option resolved for ticker %s", ErrOptionIndexMismatch, t)
		}
		mappings = append(mappings, entity.InstrumentMapping{
			InvestmentOptionID: info.InvestmentOptionID,
			Exchange:           exchange,
			TradingSymbol:      info.TradingSymbol,
			InstrumentToken:    info.InstrumentToken,
		})
		ids = append(ids, info.InvestmentOptionID)
	}
	if err := u.options.UpsertMappings(ctx, mappings); err != nil {
		return summary, fmt.Errorf("upsert mappings: %w", err)
	}

	if exchange == entity.ExchangeNSE {
		if err := u.options.DeactivateAll(ctx); err != nil {
			return summary, fmt.Errorf("deactivate options: %w", err)
		}
	}
	if err := u.options.Activate(ctx, ids); err != nil {
		return summary, fmt.Errorf("activate options: %w", err)
	}

	summary.Inserted = len(inserted)
	summary.Backfilled = len(backfilled)
	slog.Info("instrument reconciliation finished",
		"exchange", exchange,
		"instruments", summary.Instruments,
		"inserted", summary.Inserted,
		"backfilled", summary.Backfilled,
	)
	return summary, nil
}

// assignOptionIDs writes each option's id into the index entry for its
// ticker on this exchange.
func assignOptionIDs(index map[string]*entity.InstrumentInfo, options []entity.InvestmentOption, exchange entity.Exchange) error {
	for i := range options {
		t := options[i].Ticker(exchange)
		if t == nil {
			continue
		}
		info, ok := index[*t]
		if !ok {
			return fmt.Errorf("%w: option %d carries ticker %s absent from the dump", ErrOptionIndexMismatch, options[i].ID, *t)
		}
		info.InvestmentOptionID = options[i].ID
	}
	return nil
}
