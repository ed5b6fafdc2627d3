// Package dto defines the smallcase gateway API shapes.
package dto

// TransactionRequest is the transaction creation body.
type TransactionRequest struct {
	Intent      string      `json:"intent"`
	Version     string      `json:"version"`
	AssetConfig AssetConfig `json:"assetConfig"`
	Notes       string      `json:"notes"`
}

// AssetConfig selects which asset classes the import covers.
type AssetConfig struct {
	MFHoldings bool `json:"mfHoldings"`
}

// TransactionResponse is the transaction creation reply.
type TransactionResponse struct {
	Success   bool     `json:"success"`
	Errors    []string `json:"errors"`
	ErrorType string   `json:"errorType"`
	Data      *struct {
		TransactionID string `json:"transactionId"`
		ExpireAt      string `json:"expireAt"`
	} `json:"data"`
}
