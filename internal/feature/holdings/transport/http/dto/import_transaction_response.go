package dto

// ImportTransactionResponse は保有インポートトランザクション作成のレスポンスDTOです。
// SDK経由のインポートではtransactionIdとsdkTokenのみ、ベンダー直結の
// インポートではholdingsImportedのみが設定されます。
type ImportTransactionResponse struct {
	TransactionID    *string `json:"transactionId,omitempty"`
	SDKToken         *string `json:"sdkToken,omitempty"`
	HoldingsImported *bool   `json:"holdingsImported,omitempty"`
}
