package selector

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidBudget = errors.New("invalid selection budget")
	ErrRolesAssigned = errors.New("roles already assigned")
)
