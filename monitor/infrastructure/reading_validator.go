package infrastructure

import (
	"fmt"
	"math"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

// ReadingValidator implements the domain invariants of a sensor reading.
type ReadingValidator struct {
}

// Apply rejects readings the analytics must never see.
func (r ReadingValidator) Apply(msg *monitorDomain.Reading) error {
	if msg.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is absent", monitorDomain.ErrValidation)
	}

	if math.IsNaN(msg.FlowLPM) || math.IsInf(msg.FlowLPM, 0) {
		return fmt.Errorf("%w: flow is not finite: %v", monitorDomain.ErrValidation, msg.FlowLPM)
	}
	if msg.FlowLPM < 0 {
		return fmt.Errorf("%w: negative flow: %g L/min", monitorDomain.ErrValidation, msg.FlowLPM)
	}

	if math.IsNaN(msg.CumulativeLiters) || math.IsInf(msg.CumulativeLiters, 0) {
		return fmt.Errorf("%w: cumulative total is not finite: %v", monitorDomain.ErrValidation, msg.CumulativeLiters)
	}
	if msg.CumulativeLiters < 0 {
		return fmt.Errorf("%w: negative cumulative total: %g L", monitorDomain.ErrValidation, msg.CumulativeLiters)
	}

	if !msg.Presence.IsValid() {
		return fmt.Errorf("%w: presence flag must be 0 or 1, got %d", monitorDomain.ErrValidation, int(msg.Presence))
	}

	return nil
}

// NewReadingValidator creates a new instance of ReadingValidator.
func NewReadingValidator() *ReadingValidator {
	return &ReadingValidator{}
}
