package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserHolding is one user's position in one investment option at one broker,
// as of the import transaction it references.
type UserHolding struct {
	ID                 uint
	UserID             uint
	InvestmentOptionID uint
	TransactionRef     uint
	Quantity           int64
	AveragePrice       decimal.Decimal
	Broker             Broker
	CreatedAt          time.Time
}

// MergedHolding is an intermediate per-ticker aggregate built from the
// webhook's holdings and open positions before option resolution.
type MergedHolding struct {
	Ticker       string
	Quantity     int64
	AveragePrice decimal.Decimal
}

// InvestmentDetail is one stored holding joined with its investment option.
type InvestmentDetail struct {
	InvestmentOptionID uint
	Name               string
	NSETicker          *string
	BSETicker          *string
	Quantity           int64
	AveragePrice       decimal.Decimal
	Broker             Broker
}

// AggregatedInvestment is the per-option view across brokers returned to the
// client.
type AggregatedInvestment struct {
	InvestmentOptionID uint            `json:"investmentOptionId"`
	Name               string          `json:"name"`
	NSETicker          *string         `json:"nseTicker"`
	BSETicker          *string         `json:"bseTicker"`
	Quantity           int64           `json:"quantity"`
	AveragePrice       decimal.Decimal `json:"averagePrice"`
	InvestedValue      decimal.Decimal `json:"investedValue"`
}

// BrokerSummary describes one broker the user has linked.
type BrokerSummary struct {
	Broker          Broker `json:"broker"`
	StockCount      int64  `json:"stockCount"`
	LastFetched     int64  `json:"lastFetched"` // epoch millis, 0 when never completed
	RefreshPossible bool   `json:"isRefreshPossible"`
	ActiveFetch     bool   `json:"isFetchActive"`
}

// InvestmentsView is the full read model for a user's stock investments.
type InvestmentsView struct {
	TotalValue            decimal.Decimal        `json:"totalValue"`
	LastFetched           *int64                 `json:"lastFetched"`
	Investments           []AggregatedInvestment `json:"investments"`
	Brokers               []BrokerSummary        `json:"brokers"`
	ActiveFetchInProgress bool                   `json:"isFetchActive"`
}

// ImportApplication is everything the webhook resolved for one import, to be
// applied to storage in a single transaction.
type ImportApplication struct {
	TransactionID uint
	UserID        uint
	Broker        Broker
	Holdings      []UserHolding
	RawPayload    string
	AuthID        *string // persisted for NEW imports only
}
