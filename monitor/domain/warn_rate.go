package domain

import "errors"

// WarnRate is the maximum number of malformed-line warnings logged per second.
type WarnRate uint32

// NewWarnRate creates a new WarnRate with validation to ensure the limit is positive.
func NewWarnRate(val int) (WarnRate, error) {
	if val <= 0 {
		return 0, errors.New("warn rate must be greater than 0")
	}
	return WarnRate(val), nil
}
