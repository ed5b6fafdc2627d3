// Package adapters は holdings フィーチャーの永続化実装を提供します。
package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"invest_backend/internal/feature/holdings/domain/entity"
)

// TransactionModel is the GORM model for import transactions.
type TransactionModel struct {
	ID                  uint      `gorm:"primaryKey"`
	UserID              uint      `gorm:"not null;index"`
	VendorTransactionID string    `gorm:"size:64;not null;uniqueIndex"`
	TransactionType     string    `gorm:"size:32;not null"`
	TransactionStatus   string    `gorm:"size:16;not null;index"`
	ImportType          string    `gorm:"size:16;not null"`
	Broker              *string   `gorm:"size:32"`
	ExpireAt            int64     `gorm:"not null"`
	VendorResponse      string    `gorm:"type:jsonb"`
	WebhookPayload      *string   `gorm:"type:jsonb"`
	CreatedAt           time.Time `gorm:"index"`
	UpdatedAt           time.Time
}

// TableName はGORMが使用するテーブル名を指定します。
func (TransactionModel) TableName() string { return "import_transactions" }

func (m *TransactionModel) toEntity() *entity.ImportTransaction {
	tx := &entity.ImportTransaction{
		ID:                  m.ID,
		UserID:              m.UserID,
		VendorTransactionID: m.VendorTransactionID,
		TransactionType:     m.TransactionType,
		Status:              entity.TransactionStatus(m.TransactionStatus),
		ImportType:          entity.ImportType(m.ImportType),
		ExpireAt:            m.ExpireAt,
		VendorResponse:      m.VendorResponse,
		WebhookPayload:      m.WebhookPayload,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.Broker != nil {
		b := entity.Broker(*m.Broker)
		tx.Broker = &b
	}
	return tx
}

// HoldingModel is the GORM model for a user's imported holdings.
type HoldingModel struct {
	ID                 uint            `gorm:"primaryKey"`
	UserID             uint            `gorm:"not null;index:idx_holding_user_broker,priority:1"`
	InvestmentOptionID uint            `gorm:"not null"`
	TransactionRef     uint            `gorm:"not null"`
	Quantity           int64           `gorm:"not null"`
	AveragePrice       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Broker             string          `gorm:"size:32;not null;index:idx_holding_user_broker,priority:2"`
	CreatedAt          time.Time
}

// TableName はGORMが使用するテーブル名を指定します。
func (HoldingModel) TableName() string { return "user_holdings" }

// BrokerAuthIDModel stores the vendor auth id a user's broker link resolved
// to on their first import.
type BrokerAuthIDModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_auth_user_broker,priority:1"`
	Broker    string `gorm:"size:32;not null;uniqueIndex:idx_auth_user_broker,priority:2"`
	AuthID    string `gorm:"column:smallcase_auth_id;size:64;not null"`
	CreatedAt time.Time
}

// TableName はGORMが使用するテーブル名を指定します。
func (BrokerAuthIDModel) TableName() string { return "broker_auth_ids" }
