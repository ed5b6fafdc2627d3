package usecase

import "github.com/shopspring/decimal"

// WebhookPayload is the import vendor's webhook body.
type WebhookPayload struct {
	LastUpdate      string            `json:"lastUpdate"`
	SnapshotDate    string            `json:"snapshotDate"`
	Notes           *string           `json:"notes"`
	SmallcaseAuthID string            `json:"smallcaseAuthId"`
	Broker          string            `json:"broker"`
	TransactionID   string            `json:"transactionId"`
	Timestamp       string            `json:"timestamp"`
	Checksum        string            `json:"checksum"`
	Securities      []WebhookSecurity `json:"securities"`
}

// WebhookSecurity is one security in the webhook: the demat holding plus any
// open intraday positions per exchange.
type WebhookSecurity struct {
	ISIN      string           `json:"isin"`
	Name      string           `json:"name"`
	NSETicker *string          `json:"nseTicker"`
	BSETicker *string          `json:"bseTicker"`
	Holdings  PositionValue    `json:"holdings"`
	Positions WebhookPositions `json:"positions"`
}

// WebhookPositions groups open positions by exchange.
type WebhookPositions struct {
	NSE PositionValue `json:"nse"`
	BSE PositionValue `json:"bse"`
}

// PositionValue is a quantity at an average price.
type PositionValue struct {
	Quantity     int64           `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}
