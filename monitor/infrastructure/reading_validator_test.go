package infrastructure

import (
	"errors"
	"math"
	"testing"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

func TestReadingValidator_Apply(t *testing.T) {
	validator := NewReadingValidator()
	now := time.Now()

	valid := monitorDomain.Reading{Timestamp: now, FlowLPM: 2.5, CumulativeLiters: 10, Presence: monitorDomain.PresencePresent}
	if err := validator.Apply(&valid); err != nil {
		t.Errorf("expected valid reading to pass, got %v", err)
	}

	zeroFlow := monitorDomain.Reading{Timestamp: now}
	if err := validator.Apply(&zeroFlow); err != nil {
		t.Errorf("expected idle reading to pass, got %v", err)
	}

	tests := []struct {
		name    string
		reading monitorDomain.Reading
	}{
		{"missing timestamp", monitorDomain.Reading{FlowLPM: 1}},
		{"negative flow", monitorDomain.Reading{Timestamp: now, FlowLPM: -0.1}},
		{"NaN flow", monitorDomain.Reading{Timestamp: now, FlowLPM: math.NaN()}},
		{"infinite flow", monitorDomain.Reading{Timestamp: now, FlowLPM: math.Inf(1)}},
		{"negative cumulative", monitorDomain.Reading{Timestamp: now, CumulativeLiters: -5}},
		{"infinite cumulative", monitorDomain.Reading{Timestamp: now, CumulativeLiters: math.Inf(-1)}},
		{"presence 2", monitorDomain.Reading{Timestamp: now, Presence: 2}},
		{"presence -1", monitorDomain.Reading{Timestamp: now, Presence: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading := tt.reading
			err := validator.Apply(&reading)
			if !errors.Is(err, monitorDomain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
