package adapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/feature/prices/usecase"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
)

// InstrumentPostgres reads the instrument universe maintained by the
// reconciliation job.
type InstrumentPostgres struct {
	db *gorm.DB
}

// インターフェース実装の確認
var _ usecase.InstrumentRepository = (*InstrumentPostgres)(nil)

// NewInstrumentPostgres creates a new InstrumentPostgres.
func NewInstrumentPostgres(db *gorm.DB) *InstrumentPostgres {
	return &InstrumentPostgres{db: db}
}

// instrumentRow is the scan target for the mapping/option join.
type instrumentRow struct {
	InvestmentOptionID uint
	InstrumentToken    string
	Exchange           string
	TradingSymbol      string
}

// ListActivePage returns mappings of active options ordered by option id.
func (r *InstrumentPostgres) ListActivePage(ctx context.Context, limit, offset int) ([]entity.Instrument, error) {
	var rows []instrumentRow
	err := r.db.WithContext(ctx).
		Table("instrument_mappings").
		Select("instrument_mappings.investment_option_id, instrument_mappings.instrument_token, instrument_mappings.exchange").
		Joins("INNER JOIN investment_options ON investment_options.investment_option_id = instrument_mappings.investment_option_id").
		Where("investment_options.active = ?", true).
		Order("instrument_mappings.investment_option_id, instrument_mappings.exchange").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active instruments: %w", err)
	}

	instruments := make([]entity.Instrument, 0, len(rows))
	for _, row := range rows {
		instruments = append(instruments, entity.Instrument{
			InvestmentOptionID: row.InvestmentOptionID,
			InstrumentToken:    row.InstrumentToken,
			Exchange:           instrentity.Exchange(row.Exchange),
		})
	}
	return instruments, nil
}

// ListTraded returns every mapping with its trading symbol, ordered by
// option id.
func (r *InstrumentPostgres) ListTraded(ctx context.Context) ([]entity.TradedInstrument, error) {
	var rows []instrumentRow
	err := r.db.WithContext(ctx).
		Table("instrument_mappings").
		Select("investment_option_id, exchange, trading_symbol").
		Order("investment_option_id, exchange").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list traded instruments: %w", err)
	}

	instruments := make([]entity.TradedInstrument, 0, len(rows))
	for _, row := range rows {
		instruments = append(instruments, entity.TradedInstrument{
			InvestmentOptionID: row.InvestmentOptionID,
			Exchange:           instrentity.Exchange(row.Exchange),
			TradingSymbol:      row.TradingSymbol,
		})
	}
	return instruments, nil
}
