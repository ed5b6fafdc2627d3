package usecase

import "errors"

var (
	// ErrOptionIndexMismatch is returned when a resolved investment option
	// cannot be matched back to an entry of the vendor instrument index.
	ErrOptionIndexMismatch = errors.New("instrument index mismatch")
)
