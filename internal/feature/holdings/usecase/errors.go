package usecase

import "errors"

var (
	// ErrBrokerRequired is returned when a refresh import names no broker.
	ErrBrokerRequired = errors.New("broker is required for a refresh import")

	// ErrImportLimitReached is returned when the user already imported from
	// this broker today.
	ErrImportLimitReached = errors.New("import limit reached for today")

	// ErrAuthIDNotFound is returned when no vendor auth id is stored for the
	// user and broker.
	ErrAuthIDNotFound = errors.New("no stored auth id for broker")

	// ErrPollingCountExceeded is returned when the client polls the
	// investments endpoint past the allowed count.
	ErrPollingCountExceeded = errors.New("polling count exceeded")

	// ErrMalformedPayload is returned when the webhook body cannot be decoded.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrChecksumMismatch is returned when the webhook checksum does not
	// verify. No state is mutated in that case.
	ErrChecksumMismatch = errors.New("webhook checksum mismatch")

	// ErrUnknownBroker is returned for a vendor broker code outside the enum.
	ErrUnknownBroker = errors.New("unknown broker")

	// ErrTransactionNotFound is returned when no import transaction matches
	// the vendor transaction id.
	ErrTransactionNotFound = errors.New("import transaction not found")

	// ErrTickerMissing is returned when a webhook security carries neither an
	// NSE nor a BSE ticker.
	ErrTickerMissing = errors.New("security has no ticker")

	// ErrUnresolvedTicker is returned when a merged ticker matches no stored
	// investment option.
	ErrUnresolvedTicker = errors.New("ticker resolves to no investment option")
)
