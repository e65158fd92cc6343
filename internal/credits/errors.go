package credits

import "errors"

var (
	// ErrInsufficientCredits means the balance is below the operation cost.
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidCost         = errors.New("cost must be positive")
)
