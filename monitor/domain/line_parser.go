package domain

import (
	"strconv"
	"strings"
	"time"
)

const minLineFields = 3

// LineParser turns one line of the sensor protocol
// ("<flow_lpm>,<cumulative_liters>,<presence>[,...]") into a Reading.
type LineParser struct {
	now func() time.Time
}

// Parse converts raw into a Reading stamped with the parser's clock.
// Fields beyond the third are ignored. Range checks are left to the
// validation chain: a presence of 7 parses fine here.
func (p *LineParser) Parse(raw string) (Reading, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Reading{}, &ParseError{Line: raw, Reason: "empty line"}
	}
	if !strings.Contains(line, ",") {
		return Reading{}, &ParseError{Line: raw, Reason: "no field separator"}
	}

	parts := strings.Split(line, ",")
	if len(parts) < minLineFields {
		return Reading{}, &ParseError{Line: raw, Reason: "expected at least 3 fields"}
	}

	flow, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Reading{}, &ParseError{Line: raw, Reason: "flow is not a number", Err: err}
	}

	cumulative, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Reading{}, &ParseError{Line: raw, Reason: "cumulative total is not a number", Err: err}
	}

	presence, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Reading{}, &ParseError{Line: raw, Reason: "presence flag is not an integer", Err: err}
	}

	return Reading{
		Timestamp:        p.now(),
		FlowLPM:          flow,
		CumulativeLiters: cumulative,
		Presence:         PresenceState(presence),
	}, nil
}

// NewLineParser creates a LineParser. A nil clock defaults to time.Now.
func NewLineParser(now func() time.Time) *LineParser {
	if now == nil {
		now = time.Now
	}
	return &LineParser{now: now}
}
