package domain

import (
	"errors"
	"math"
)

// DefaultUpdateInterval is the number of accepted readings between two analysis runs.
const DefaultUpdateInterval = 50

// UpdateInterval is the analysis cadence counted in accepted records.
type UpdateInterval uint32

// NewUpdateInterval creates a new UpdateInterval with validation to ensure the interval is positive
// and fits the counter.
func NewUpdateInterval(val int) (UpdateInterval, error) {
	if val <= 0 {
		return 0, errors.New("update interval must be greater than 0")
	}
	if uint64(val) > math.MaxUint32 {
		return 0, errors.New("update interval must not exceed 4294967295")
	}
	return UpdateInterval(val), nil
}
