package usecase

import (
	"context"
	"fmt"
	"time"

	"invest_backend/internal/feature/prices/domain/entity"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
)

// QueryUsecase serves stored historic prices to clients.
type QueryUsecase struct {
	prices PriceRepository
}

// NewQueryUsecase creates a new QueryUsecase.
func NewQueryUsecase(prices PriceRepository) *QueryUsecase {
	return &QueryUsecase{prices: prices}
}

// GetHistoricPrices returns the option's daily bars on the exchange within
// [from, to], oldest first.
func (u *QueryUsecase) GetHistoricPrices(ctx context.Context, optionID uint, exchange instrentity.Exchange, from, to time.Time) ([]entity.HistoricPrice, error) {
	prices, err := u.prices.FindHistoric(ctx, optionID, exchange, from, to)
	if err != nil {
		return nil, fmt.Errorf("find historic prices: %w", err)
	}
	return prices, nil
}
