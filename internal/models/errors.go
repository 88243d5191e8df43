package models

import "errors"

// Engine errors. Contract violations (bad odds, bad stake, empty slip) are
// caller mistakes; selection errors are expected rejections surfaced to users.
var (
	ErrInvalidOdds         = errors.New("invalid odds")
	ErrInvalidStake        = errors.New("invalid stake")
	ErrInvalidProbability  = errors.New("invalid probability")
	ErrEmptySlip           = errors.New("slip has no legs")
	ErrDuplicateSelection  = errors.New("duplicate selection")
	ErrCorrelatedSelection = errors.New("correlated selection")
	ErrMaxLegsExceeded     = errors.New("maximum legs exceeded")
	ErrInvalidComboSize    = errors.New("invalid combination size")
	ErrLegNotFound         = errors.New("leg not found")
	ErrInvalidLeg          = errors.New("invalid leg")
	ErrInvalidOrder        = errors.New("order must be a permutation of the slip's legs")
	ErrInvalidTemplate     = errors.New("invalid template")
)

// Storage errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrInvalidID    = errors.New("invalid ID format")
)

// IsRejection reports whether err is a recoverable selection rejection
// rather than a contract violation.
func IsRejection(err error) bool {
	return errors.Is(err, ErrDuplicateSelection) ||
		errors.Is(err, ErrCorrelatedSelection) ||
		errors.Is(err, ErrMaxLegsExceeded)
}
