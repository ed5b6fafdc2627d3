// Package adapters は instruments フィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invest_backend/internal/feature/instruments/domain/entity"
	"invest_backend/internal/feature/instruments/usecase"
)

// OptionPostgres is the gorm-backed implementation of the option repository.
type OptionPostgres struct {
	db *gorm.DB
}

// インターフェース実装の確認
var _ usecase.OptionRepository = (*OptionPostgres)(nil)

// NewOptionPostgres creates a new OptionPostgres.
func NewOptionPostgres(db *gorm.DB) *OptionPostgres {
	return &OptionPostgres{db: db}
}

// FindByTickers returns every option listed under one of the tickers on
// either exchange.
func (r *OptionPostgres) FindByTickers(ctx context.Context, tickers []string) ([]entity.InvestmentOption, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	var options []entity.InvestmentOption
	err := r.db.WithContext(ctx).
		Where("nse_ticker IN ? OR bse_ticker IN ?", tickers, tickers).
		Find(&options).Error
	if err != nil {
		return nil, fmt.Errorf("find options by tickers: %w", err)
	}
	return options, nil
}

// UpdateTickers persists the backfilled ticker column for each option.
func (r *OptionPostgres) UpdateTickers(ctx context.Context, options []entity.InvestmentOption, exchange entity.Exchange) error {
	column := tickerColumn(exchange)
	for i := range options {
		err := r.db.WithContext(ctx).
			Model(&entity.InvestmentOption{}).
			Where("investment_option_id = ?", options[i].ID).
			Update(column, options[i].Ticker(exchange)).Error
		if err != nil {
			return fmt.Errorf("update %s for option %d: %w", column, options[i].ID, err)
		}
	}
	return nil
}

// InsertOptions creates the options, ignoring ticker conflicts. Rows that
// collided keep their stored id, which is fetched back by ticker.
func (r *OptionPostgres) InsertOptions(ctx context.Context, options []entity.InvestmentOption) ([]entity.InvestmentOption, error) {
	if len(options) == 0 {
		return nil, nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&options).Error
	if err != nil {
		return nil, fmt.Errorf("insert options: %w", err)
	}
	for i := range options {
		if options[i].ID != 0 {
			continue
		}
		exchange := entity.ExchangeNSE
		if options[i].NSETicker == nil {
			exchange = entity.ExchangeBSE
		}
		var stored entity.InvestmentOption
		err := r.db.WithContext(ctx).
			Where(tickerColumn(exchange)+" = ?", options[i].Ticker(exchange)).
			First(&stored).Error
		if err != nil {
			return nil, fmt.Errorf("reload option after conflict: %w", err)
		}
		options[i] = stored
	}
	return options, nil
}

// UpsertMappings writes the mappings, updating symbol and token on conflict.
func (r *OptionPostgres) UpsertMappings(ctx context.Context, mappings []entity.InstrumentMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "investment_option_id"}, {Name: "exchange"}},
			DoUpdates: clause.AssignmentColumns([]string{"trading_symbol", "instrument_token", "updated_at"}),
		}).
		Create(&mappings).Error
	if err != nil {
		return fmt.Errorf("upsert instrument mappings: %w", err)
	}
	return nil
}

// DeactivateAll clears the active flag on every option.
func (r *OptionPostgres) DeactivateAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("UPDATE investment_options SET active = false").Error; err != nil {
		return fmt.Errorf("deactivate options: %w", err)
	}
	return nil
}

// Activate sets the active flag on the given option ids.
func (r *OptionPostgres) Activate(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&entity.InvestmentOption{}).
		Where("investment_option_id IN ?", ids).
		Update("active", true).Error
	if err != nil {
		return fmt.Errorf("activate options: %w", err)
	}
	return nil
}

func tickerColumn(exchange entity.Exchange) string {
	if exchange == entity.ExchangeNSE {
		return "nse_ticker"
	}
	return "bse_ticker"
}
