package domain

import (
	"errors"
	"time"
)

// ReadTimeout bounds a single blocking read from the sensor source.
type ReadTimeout time.Duration

// NewReadTimeout creates a new ReadTimeout with validation to ensure the timeout is positive.
func NewReadTimeout(val time.Duration) (ReadTimeout, error) {
	if val <= 0 {
		return 0, errors.New("read timeout must be greater than 0")
	}
	return ReadTimeout(val), nil
}
