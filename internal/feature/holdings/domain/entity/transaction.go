package entity

import "time"

// ImportType distinguishes a first-time broker link from a re-import.
type ImportType string

const (
	ImportTypeNew     ImportType = "NEW"
	ImportTypeRefresh ImportType = "REFRESH"
)

// ParseImportType resolves an ImportType by name.
func ParseImportType(name string) (ImportType, bool) {
	switch ImportType(name) {
	case ImportTypeNew, ImportTypeRefresh:
		return ImportType(name), true
	default:
		return "", false
	}
}

// TransactionStatus is the lifecycle state of an import transaction.
// Transitions only move forward: STARTED → AUTHORIZED → COMPLETED.
type TransactionStatus string

const (
	StatusStarted    TransactionStatus = "STARTED"
	StatusAuthorized TransactionStatus = "AUTHORIZED"
	StatusCompleted  TransactionStatus = "COMPLETED"
)

// TransactionTypeHoldingsImport is the only transaction type this service
// creates with the import vendor.
const TransactionTypeHoldingsImport = "HOLDINGS_IMPORT"

// ImportLimitPerDay caps refresh imports per user and broker per calendar day.
const ImportLimitPerDay = 1

// ImportTransaction is one holdings-import attempt against the vendor.
type ImportTransaction struct {
	ID                  uint
	UserID              uint
	VendorTransactionID string
	TransactionType     string
	Status              TransactionStatus
	ImportType          ImportType
	Broker              *Broker
	ExpireAt            int64 // epoch millis, stored for audit, never enforced
	VendorResponse      string
	WebhookPayload      *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// VendorTransaction is the vendor's reply to a transaction creation, plus the
// gateway token the client SDK needs.
type VendorTransaction struct {
	SDKToken      string
	TransactionID string
	ExpireAt      string // RFC 3339
	Raw           string
}

// ImportTransactionResult is what transaction creation hands back to the
// client. A direct vendor import (no SDK round trip) only sets
// HoldingsImported.
type ImportTransactionResult struct {
	TransactionID    *string
	SDKToken         *string
	HoldingsImported *bool
}
