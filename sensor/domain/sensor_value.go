package domain

import "time"

// SensorValue is one sample taken from a flow sensor.
type SensorValue struct {
	Timestamp        time.Time
	FlowLPM          float64
	CumulativeLiters float64
	Presence         int
}
