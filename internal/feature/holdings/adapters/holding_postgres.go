package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invest_backend/internal/feature/holdings/domain/entity"
	"invest_backend/internal/feature/holdings/usecase"
)

// HoldingPostgres is the gorm-backed read side of the user's holdings.
type HoldingPostgres struct {
	db *gorm.DB
}

// インターフェース実装の確認
var _ usecase.HoldingRepository = (*HoldingPostgres)(nil)

// NewHoldingPostgres creates a new HoldingPostgres.
func NewHoldingPostgres(db *gorm.DB) *HoldingPostgres {
	return &HoldingPostgres{db: db}
}

// investmentDetailRow is the scan target for the holdings/options join.
type investmentDetailRow struct {
	InvestmentOptionID uint
	Name               string
	NSETicker          *string `gorm:"column:nse_ticker"`
	BSETicker          *string `gorm:"column:bse_ticker"`
	Quantity           int64
	AveragePrice       decimal.Decimal
	Broker             string
}

// ListByUser returns every stored holding of the user joined with its
// investment option.
func (r *HoldingPostgres) ListByUser(ctx context.Context, userID uint) ([]entity.InvestmentDetail, error) {
	var rows []investmentDetailRow
	err := r.db.WithContext(ctx).
		Table("user_holdings").
		Select(`user_holdings.investment_option_id,
			investment_options.name,
			investment_options.nse_ticker,
			investment_options.bse_ticker,
			user_holdings.quantity,
			user_holdings.average_price,
			user_holdings.broker`).
		Joins("INNER JOIN investment_options ON investment_options.investment_option_id = user_holdings.investment_option_id").
		Where("user_holdings.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list holdings for user %d: %w", userID, err)
	}

	details := make([]entity.InvestmentDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, entity.InvestmentDetail{
			InvestmentOptionID: row.InvestmentOptionID,
			Name:               row.Name,
			NSETicker:          row.NSETicker,
			BSETicker:          row.BSETicker,
			Quantity:           row.Quantity,
			AveragePrice:       row.AveragePrice,
			Broker:             entity.Broker(row.Broker),
		})
	}
	return details, nil
}

// AuthIDPostgres is the gorm-backed store of vendor auth ids.
type AuthIDPostgres struct {
	db *gorm.DB
}

// インターフェース実装の確認
var _ usecase.AuthIDRepository = (*AuthIDPostgres)(nil)

// NewAuthIDPostgres creates a new AuthIDPostgres.
func NewAuthIDPostgres(db *gorm.DB) *AuthIDPostgres {
	return &AuthIDPostgres{db: db}
}

// Get returns the stored vendor auth id for the user's broker link.
func (r *AuthIDPostgres) Get(ctx context.Context, userID uint, broker entity.Broker) (string, error) {
	var model BrokerAuthIDModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND broker = ?", userID, string(broker)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", usecase.ErrAuthIDNotFound
		}
		return "", fmt.Errorf("find auth id: %w", err)
	}
	return model.AuthID, nil
}
