package network

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyNetwork = errors.New("no valid endorsement records")
)
