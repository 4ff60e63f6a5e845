package domain

import (
	"errors"
	"math"
)

// DefaultFlowThreshold is the average flow, in L/min, above which consumption is reported as high.
const DefaultFlowThreshold = 3.0

// FlowThreshold is the classification threshold for average flow in L/min.
type FlowThreshold float64

// NewFlowThreshold rejects negative and non-finite thresholds.
func NewFlowThreshold(val float64) (FlowThreshold, error) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, errors.New("flow threshold must be a finite number")
	}
	if val < 0 {
		return 0, errors.New("flow threshold cannot be negative")
	}
	return FlowThreshold(val), nil
}
