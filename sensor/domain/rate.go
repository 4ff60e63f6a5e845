package domain

import (
	"errors"
	"time"
)

// Rate is the number of samples emitted per second.
type Rate uint32

// NewRate validates rate and returns it as a Rate.
func NewRate(rate int) (Rate, error) {
	if rate <= 0 {
		return 0, errors.New("rate must be greater than 0")
	}
	return Rate(rate), nil
}

// Period returns the time between two samples.
func (r Rate) Period() time.Duration {
	return time.Second / time.Duration(r)
}
