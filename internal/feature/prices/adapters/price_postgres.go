// Package adapters は prices フィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invest_backend/internal/feature/prices/domain/entity"
	"invest_backend/internal/feature/prices/usecase"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
)

// HistoricPriceModel is the GORM model for daily bars.
type HistoricPriceModel struct {
	ID                 uint      `gorm:"primaryKey"`
	InvestmentOptionID uint      `gorm:"not null;uniqueIndex:idx_historic_option_exchange_date,priority:1"`
	Exchange           string    `gorm:"size:8;not null;uniqueIndex:idx_historic_option_exchange_date,priority:2"`
	PriceDate          time.Time `gorm:"not null;uniqueIndex:idx_historic_option_exchange_date,priority:3"`
	Open               float64   `gorm:"not null"`
	High               float64   `gorm:"not null"`
	Low                float64   `gorm:"not null"`
	Close              float64   `gorm:"not null"`
	Volume             int64     `gorm:"not null"`
}

// TableName はGORMが使用するテーブル名を指定します。
func (HistoricPriceModel) TableName() string { return "historic_prices" }

// LivePriceModel is the GORM model for intraday captures.
type LivePriceModel struct {
	ID                 uint      `gorm:"primaryKey"`
	InvestmentOptionID uint      `gorm:"not null;uniqueIndex:idx_live_option_exchange_time,priority:1"`
	Exchange           string    `gorm:"size:8;not null;uniqueIndex:idx_live_option_exchange_time,priority:2"`
	PriceTime          time.Time `gorm:"not null;uniqueIndex:idx_live_option_exchange_time,priority:3"`
	Open               float64   `gorm:"not null"`
	High               float64   `gorm:"not null"`
	Low                float64   `gorm:"not null"`
	Close              float64   `gorm:"not null"`
	Volume             int64     `gorm:"not null"`
}

// TableName はGORMが使用するテーブル名を指定します。
func (LivePriceModel) TableName() string { return "live_prices" }

// PricePostgres is the gorm-backed implementation of the price repository.
type PricePostgres struct {
	db *gorm.DB
}

// インターフェース実装の確認
var _ usecase.PriceRepository = (*PricePostgres)(nil)

// NewPricePostgres creates a new PricePostgres.
func NewPricePostgres(db *gorm.DB) *PricePostgres {
	return &PricePostgres{db: db}
}

// UpsertHistoric writes the candles as daily bars of the option, updating
// rows that already exist for the same (option, exchange, date).
func (r *PricePostgres) UpsertHistoric(ctx context.Context, optionID uint, exchange instrentity.Exchange, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	models := make([]HistoricPriceModel, 0, len(candles))
	for _, c := range candles {
		models = append(models, HistoricPriceModel{
			InvestmentOptionID: optionID,
			Exchange:           string(exchange),
			PriceDate:          c.Timestamp.UTC().Truncate(24 * time.Hour),
			Open:               c.Open,
			High:               c.High,
			Low:                c.Low,
			Close:              c.Close,
			Volume:             c.Volume,
		})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "investment_option_id"}, {Name: "exchange"}, {Name: "price_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).
		Create(&models).Error
	if err != nil {
		return fmt.Errorf("upsert historic prices: %w", err)
	}
	return nil
}

// UpsertLive writes intraday captures, updating rows that already exist for
// the same (option, exchange, time).
func (r *PricePostgres) UpsertLive(ctx context.Context, prices []entity.LivePrice) error {
	if len(prices) == 0 {
		return nil
	}
	models := make([]LivePriceModel, 0, len(prices))
	for _, p := range prices {
		models = append(models, LivePriceModel{
			InvestmentOptionID: p.InvestmentOptionID,
			Exchange:           string(p.Exchange),
			PriceTime:          p.Time,
			Open:               p.Open,
			High:               p.High,
			Low:                p.Low,
			Close:              p.Close,
			Volume:             p.Volume,
		})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "investment_option_id"}, {Name: "exchange"}, {Name: "price_time"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).
		Create(&models).Error
	if err != nil {
		return fmt.Errorf("upsert live prices: %w", err)
	}
	return nil
}

// FindHistoric returns the option's bars on the exchange within [from, to],
// oldest first.
func (r *PricePostgres) FindHistoric(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
	var models []HistoricPriceModel
	err := r.db.WithContext(ctx).
		Where("investment_option_id = ? AND exchange = ? AND price_date BETWEEN ? AND ?",
			optionID, string(exchange), from, to).
		Order("price_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find historic prices: %w", err)
	}

	prices := make([]entity.HistoricPrice, 0, len(models))
	for _, m := range models {
		prices = append(prices, entity.HistoricPrice{
			InvestmentOptionID: m.InvestmentOptionID,
			Exchange:           instrentity.Exchange(m.Exchange),
			Date:               m.PriceDate,
			Open:               m.Open,
			High:               m.High,
			Low:                m.Low,
			Close:              m.Close,
			Volume:             m.Volume,
		})
	}
	return prices, nil
}
