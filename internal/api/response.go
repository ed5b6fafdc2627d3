// Package api defines the common HTTP response envelopes.
package api

// SuccessResponse is the generic body returned by endpoints that have no
// richer payload to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// OK returns a positive SuccessResponse.
func OK() SuccessResponse {
	return SuccessResponse{Success: true}
}

// ErrorResponse carries a caller-facing error message. Root causes stay in
// the logs; this message is intentionally generic for vendor failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
