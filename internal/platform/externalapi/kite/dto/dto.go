// Package dto defines the Kite API response shapes.
package dto

// HistoricalResponse is the daily candle endpoint's reply. Each candle entry
// is [timestamp, open, high, low, close, volume].
type HistoricalResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Candles [][]any `json:"candles"`
	} `json:"data"`
}

// OHLCResponse is the multi-instrument quote endpoint's reply, keyed
// "EXCHANGE:SYMBOL".
type OHLCResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Data    map[string]OHLCQuoteDTO `json:"data"`
}

// OHLCQuoteDTO is one instrument's quote.
type OHLCQuoteDTO struct {
	LastPrice float64 `json:"last_price"`
	Volume    *int64  `json:"volume"`
	OHLC      struct {
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"ohlc"`
}

// RefreshTokenResponse is the session refresh endpoint's reply.
type RefreshTokenResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"data"`
}
