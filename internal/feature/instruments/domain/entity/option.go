// Package entity は投資対象銘柄（investment option）と取引所インストゥルメントの
// ドメインモデルを定義します。
package entity

import (
	"fmt"
	"time"
)

// Exchange is a stock exchange identifier.
type Exchange string

const (
	ExchangeNSE Exchange = "NSE"
	ExchangeBSE Exchange = "BSE"
)

// ParseExchange converts a raw string into a supported Exchange.
func ParseExchange(s string) (Exchange, error) {
	switch Exchange(s) {
	case ExchangeNSE:
		return ExchangeNSE, nil
	case ExchangeBSE:
		return ExchangeBSE, nil
	default:
		return "", fmt.Errorf("unsupported exchange: %q", s)
	}
}

// Other returns the opposite exchange.
func (e Exchange) Other() Exchange {
	if e == ExchangeNSE {
		return ExchangeBSE
	}
	return ExchangeNSE
}

// InvestmentOption is a tradable security known to the platform. A security
// listed on both exchanges is a single option with both tickers set.
type InvestmentOption struct {
	ID        uint      `gorm:"primaryKey;column:investment_option_id" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	NSETicker *string   `gorm:"column:nse_ticker;size:32;uniqueIndex" json:"nseTicker"`
	BSETicker *string   `gorm:"column:bse_ticker;size:32;uniqueIndex" json:"bseTicker"`
	Active    bool      `gorm:"not null;default:false" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName はGORMが使用するテーブル名を指定します。
func (InvestmentOption) TableName() string { return "investment_options" }

// Ticker returns the option's ticker on the given exchange, nil if unlisted.
func (o *InvestmentOption) Ticker(e Exchange) *string {
	if e == ExchangeNSE {
		return o.NSETicker
	}
	return o.BSETicker
}

// SetTicker sets the option's ticker for the given exchange.
func (o *InvestmentOption) SetTicker(e Exchange, ticker string) {
	if e == ExchangeNSE {
		o.NSETicker = &ticker
		return
	}
	o.BSETicker = &ticker
}

// InstrumentMapping links an investment option to the vendor's instrument on
// one exchange. At most one mapping exists per (option, exchange).
type InstrumentMapping struct {
	ID                 uint      `gorm:"primaryKey"`
	InvestmentOptionID uint      `gorm:"not null;uniqueIndex:idx_mapping_option_exchange,priority:1"`
	Exchange           Exchange  `gorm:"size:8;not null;uniqueIndex:idx_mapping_option_exchange,priority:2"`
	TradingSymbol      string    `gorm:"size:64;not null"`
	InstrumentToken    string    `gorm:"size:32;not null"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// TableName はGORMが使用するテーブル名を指定します。
func (InstrumentMapping) TableName() string { return "instrument_mappings" }

// InstrumentRow is one line of the vendor's instrument dump.
type InstrumentRow struct {
	Exchange        string
	TradingSymbol   string
	InstrumentToken string
	Name            string
}

// InstrumentInfo is the canonical per-ticker view of the vendor universe for
// one exchange, built during reconciliation.
type InstrumentInfo struct {
	Ticker             string
	TradingSymbol      string
	InstrumentToken    string
	Name               string
	InvestmentOptionID uint
}
