// Package domain provides core business logic of the flow sensor simulator.
package domain

import (
	"context"
	"fmt"
	"time"
)

// Sensor is a data source of values
type Sensor interface {
	GetValue() (SensorValue, error)
}

// ValueReader reads values from a sensor in a given time period
type ValueReader struct {
	maxCapacity uint32
	rate        Rate
	logger      Logger
}

// Read polls sensor at the reader's rate until ctx is cancelled.
// Failed or panicking reads are logged and skipped.
func (v *ValueReader) Read(ctx context.Context, sensor Sensor) <-chan *SensorValue {
	valueCH := make(chan *SensorValue, v.maxCapacity)
	ticker := time.NewTicker(v.rate.Period())

	go func() {
		defer close(valueCH)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				value, err := v.readValue(sensor)
				if err != nil {
					v.logger.Error("error reading sensor: %s", err.Error())
					continue
				}
				value.Timestamp = now

				select {
				case <-ctx.Done():
					return
				case valueCH <- &value:
				}
			}
		}
	}()

	return valueCH
}

// readValue polls the sensor once; a panicking driver is reported as an error.
func (v *ValueReader) readValue(sensor Sensor) (value SensorValue, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sensor panic: %v", rec)
		}
	}()
	return sensor.GetValue()
}

// NewValueReader creates a ValueReader with the given rate and buffer size
func NewValueReader(rate Rate, maxCapacity uint32, logger Logger) *ValueReader {
	return &ValueReader{
		rate:        rate,
		maxCapacity: maxCapacity,
		logger:      logger,
	}
}
