package domain

import (
	"fmt"
	"time"
)

// PresenceState reports whether the occupancy (IR) sensor detects someone at the tap.
type PresenceState int

const (
	// PresenceAbsent means nobody was detected while the reading was taken.
	PresenceAbsent PresenceState = 0
	// PresencePresent means the IR sensor detected use.
	PresencePresent PresenceState = 1
)

// IsValid reports whether the state is one of the two values the sensor can send.
func (p PresenceState) IsValid() bool {
	return p == PresenceAbsent || p == PresencePresent
}

func (p PresenceState) String() string {
	switch p {
	case PresenceAbsent:
		return "absent"
	case PresencePresent:
		return "present"
	default:
		return fmt.Sprintf("invalid(%d)", int(p))
	}
}

// Reading represents a single sample received from the flow sensor.
type Reading struct {
	// Timestamp is the local receive time, not a sensor clock.
	Timestamp        time.Time
	FlowLPM          float64
	CumulativeLiters float64
	Presence         PresenceState
}

func (r Reading) String() string {
	return fmt.Sprintf("time=%s flow=%s L/min total=%s L ir=%s",
		r.Timestamp.Format(time.RFC3339), decimal(r.FlowLPM), decimal(r.CumulativeLiters), r.Presence)
}
