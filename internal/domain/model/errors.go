package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedRecord   = errors.New("malformed record")
	ErrMalformedIdentity = errors.New("malformed identity row")
)

func wrapMalformed(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, detail)
}
