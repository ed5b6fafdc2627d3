package dto

// AuthorizedRequest marks a vendor transaction as authorized by the user.
type AuthorizedRequest struct {
	SmallcaseTransactionID string `json:"smallCaseTransactionId" binding:"required"`
}
