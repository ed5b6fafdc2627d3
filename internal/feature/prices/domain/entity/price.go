// Package entity は投資対象銘柄の価格データのドメインモデルを定義します。
package entity

import (
	"time"

	instrentity "invest_backend/internal/feature/instruments/domain/entity"
)

// Candle is one daily OHLCV bar as returned by the market data vendor.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Quote is a live OHLC quote for one instrument.
type Quote struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	LastPrice float64
	Volume    int64
}

// HistoricPrice is a stored daily bar for an investment option on one
// exchange.
type HistoricPrice struct {
	InvestmentOptionID uint      `json:"investmentOptionId"`
	Exchange           instrentity.Exchange `json:"exchange"`
	Date               time.Time `json:"date"`
	Open               float64   `json:"open"`
	High               float64   `json:"high"`
	Low                float64   `json:"low"`
	Close              float64   `json:"close"`
	Volume             int64     `json:"volume"`
}

// LivePrice is one intraday capture for an investment option. Close carries
// the last traded price at capture time.
type LivePrice struct {
	InvestmentOptionID uint
	Exchange           instrentity.Exchange
	Time               time.Time
	Open               float64
	High               float64
	Low                float64
	Close              float64
	Volume             int64
}

// Instrument is an active (option, token, exchange) triple eligible for
// historic ingestion.
type Instrument struct {
	InvestmentOptionID uint
	InstrumentToken    string
	Exchange           instrentity.Exchange
}

// TradedInstrument identifies an instrument by its exchange and trading
// symbol, the form the vendor's quote API expects.
type TradedInstrument struct {
	InvestmentOptionID uint
	Exchange           instrentity.Exchange
	TradingSymbol      string
}

// QuoteKey returns the vendor's "EXCHANGE:SYMBOL" instrument key.
func (t TradedInstrument) QuoteKey() string {
	return string(t.Exchange) + ":" + t.TradingSymbol
}
