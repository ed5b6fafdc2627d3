package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invest_backend/internal/feature/holdings/domain/entity"
	"invest_backend/internal/feature/holdings/usecase"
)

// TransactionPostgres is the gorm-backed implementation of the import
// transaction repository.
type TransactionPostgres struct {
	db *gorm.DB
}

// インターフェース実装の確認
var _ usecase.TransactionRepository = (*TransactionPostgres)(nil)

// NewTransactionPostgres creates a new TransactionPostgres.
func NewTransactionPostgres(db *gorm.DB) *TransactionPostgres {
	return &TransactionPostgres{db: db}
}

// Create persists a new import transaction row.
func (r *TransactionPostgres) Create(ctx context.Context, tx *entity.ImportTransaction) error {
	model := TransactionModel{
		UserID:              tx.UserID,
		VendorTransactionID: tx.VendorTransactionID,
		TransactionType:     tx.TransactionType,
		TransactionStatus:   string(tx.Status),
		ImportType:          string(tx.ImportType),
		ExpireAt:            tx.ExpireAt,
		VendorResponse:      tx.VendorResponse,
	}
	if tx.Broker != nil {
		b := string(*tx.Broker)
		model.Broker = &b
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("create import transaction: %w", err)
	}
	tx.ID = model.ID
	return nil
}

// FindByVendorID looks up a transaction by the vendor's transaction id.
func (r *TransactionPostgres) FindByVendorID(ctx context.Context, vendorTransactionID string) (*entity.ImportTransaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).
		Where("vendor_transaction_id = ?", vendorTransactionID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction by vendor id: %w", err)
	}
	return model.toEntity(), nil
}

// MarkAuthorized moves a STARTED transaction to AUTHORIZED. The status guard
// is in the WHERE clause so any other state is a no-op.
func (r *TransactionPostgres) MarkAuthorized(ctx context.Context, vendorTransactionID string) error {
	err := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("vendor_transaction_id = ? AND transaction_status = ?", vendorTransactionID, string(entity.StatusStarted)).
		Update("transaction_status", string(entity.StatusAuthorized)).Error
	if err != nil {
		return fmt.Errorf("mark transaction authorized: %w", err)
	}
	return nil
}

// CountImportsSince counts the user's holdings-import transactions for the
// broker created at or after since, regardless of status.
func (r *TransactionPostgres) CountImportsSince(ctx context.Context, userID uint, broker entity.Broker, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("user_id = ? AND broker = ? AND transaction_type = ? AND created_at >= ?",
			userID, string(broker), entity.TransactionTypeHoldingsImport, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count imports: %w", err)
	}
	return count, nil
}

// ApplyImport applies a completed import atomically: the user's holdings for
// the broker are replaced, the transaction is completed with the raw payload
// attached, and for NEW imports the auth id is inserted (conflicts ignored).
func (r *TransactionPostgres) ApplyImport(ctx context.Context, app entity.ImportApplication) error {
	broker := string(app.Broker)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(app.Holdings) > 0 {
			err := tx.Where("user_id = ? AND broker = ?", app.UserID, broker).
				Delete(&HoldingModel{}).Error
			if err != nil {
				return fmt.Errorf("clear previous holdings: %w", err)
			}

			models := make([]HoldingModel, 0, len(app.Holdings))
			for _, h := range app.Holdings {
				models = append(models, HoldingModel{
					UserID:             h.UserID,
					InvestmentOptionID: h.InvestmentOptionID,
					TransactionRef:     h.TransactionRef,
					Quantity:           h.Quantity,
					AveragePrice:       h.AveragePrice,
					Broker:             string(h.Broker),
				})
			}
			if err := tx.Create(&models).Error; err != nil {
				return fmt.Errorf("insert holdings: %w", err)
			}
		}

		err := tx.Model(&TransactionModel{}).
			Where("id = ?", app.TransactionID).
			Updates(map[string]any{
				"transaction_status": string(entity.StatusCompleted),
				"broker":             broker,
				"webhook_payload":    app.RawPayload,
			}).Error
		if err != nil {
			return fmt.Errorf("complete transaction: %w", err)
		}

		if app.AuthID != nil {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&BrokerAuthIDModel{
					UserID: app.UserID,
					Broker: broker,
					AuthID: *app.AuthID,
				}).Error
			if err != nil {
				return fmt.Errorf("store auth id: %w", err)
			}
		}
		return nil
	})
}

// brokerAggregateRow is the scan target for LinkedBrokers.
type brokerAggregateRow struct {
	Broker            string
	LastFetched       *time.Time
	TransactionsToday int64
	AnyAuthorized     int64
}

// LinkedBrokers summarizes the user's brokers from their COMPLETED and
// AUTHORIZED transactions. Written as portable SQL so the sqlite-backed
// tests exercise the same query as Postgres.
func (r *TransactionPostgres) LinkedBrokers(ctx context.Context, userID uint, since time.Time) ([]entity.BrokerSummary, error) {
	var rows []brokerAggregateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT broker,
		       MAX(CASE WHEN transaction_status = 'COMPLETED' THEN updated_at END) AS last_fetched,
		       COUNT(CASE WHEN created_at >= ? THEN 1 END)                         AS transactions_today,
		       MAX(CASE WHEN transaction_status = 'AUTHORIZED' THEN 1 ELSE 0 END)  AS any_authorized
		FROM import_transactions
		WHERE user_id = ?
		  AND transaction_type = ?
		  AND transaction_status IN ('COMPLETED', 'AUTHORIZED')
		  AND broker IS NOT NULL
		GROUP BY broker`,
		since, userID, entity.TransactionTypeHoldingsImport,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate linked brokers: %w", err)
	}

	summaries := make([]entity.BrokerSummary, 0, len(rows))
	for _, row := range rows {
		s := entity.BrokerSummary{
			Broker:          entity.Broker(row.Broker),
			RefreshPossible: row.TransactionsToday < entity.ImportLimitPerDay,
			ActiveFetch:     row.AnyAuthorized > 0,
		}
		if row.LastFetched != nil {
			s.LastFetched = row.LastFetched.UnixMilli()
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// HasActiveFetch reports whether the user's most recent transaction is still
// AUTHORIZED, i.e. a webhook is expected.
func (r *TransactionPostgres) HasActiveFetch(ctx context.Context, userID uint) (bool, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find latest transaction: %w", err)
	}
	return model.TransactionStatus == string(entity.StatusAuthorized), nil
}
