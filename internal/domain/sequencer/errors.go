package sequencer

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrNotFound     = errors.New("rally not found")
	ErrInvalidInput = errors.New("invalid rally input")
)
