package documents

import "errors"

var (
	// ErrNotFound is returned when a targeted document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput is returned for requests missing required fields.
	ErrInvalidInput = errors.New("invalid document input")
)
