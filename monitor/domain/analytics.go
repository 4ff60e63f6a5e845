package domain

import (
	"fmt"
	"math"
	"sort"
)

// MinReportRecords is the smallest snapshot BuildReport analyses.
const MinReportRecords = 10

// wasteHighLiters separates moderate from high unattended consumption.
const wasteHighLiters = 10.0

// FlowClass classifies the average flow against the configured threshold.
type FlowClass int

const (
	FlowNormal FlowClass = iota
	FlowHigh
)

func (c FlowClass) String() string {
	if c == FlowHigh {
		return "high"
	}
	return "normal"
}

// WasteClass classifies the volume that flowed while nobody was present.
type WasteClass int

const (
	WasteNone WasteClass = iota
	WasteModerate
	WasteHigh
)

func (c WasteClass) String() string {
	switch c {
	case WasteModerate:
		return "moderate"
	case WasteHigh:
		return "high"
	default:
		return "none"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AverageFlow is the arithmetic mean of FlowLPM, rounded to 2 decimals; 0 for an empty snapshot.
func AverageFlow(s Snapshot) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s {
		sum += r.FlowLPM
	}
	return round2(sum / float64(len(s)))
}

// WasteVolume estimates the liters that flowed while presence was not detected.
//
// Readings with presence 1 are removed first; each remaining reading then
// contributes flow × minutes elapsed since the previous remaining reading.
// The order matters: a presence-1 stretch between two absent readings adds no
// delta of its own. The first remaining reading contributes nothing.
func WasteVolume(s Snapshot) float64 {
	absent := make([]Reading, 0, len(s))
	for _, r := range s {
		if r.Presence == PresenceAbsent {
			absent = append(absent, r)
		}
	}
	if len(absent) == 0 {
		return 0
	}

	// history loaded from disk is not guaranteed to be ordered
	sort.SliceStable(absent, func(i, j int) bool {
		return absent[i].Timestamp.Before(absent[j].Timestamp)
	})

	var total float64
	for i := 1; i < len(absent); i++ {
		minutes := absent[i].Timestamp.Sub(absent[i-1].Timestamp).Minutes()
		total += absent[i].FlowLPM * minutes
	}
	return round2(total)
}

// Classify reports FlowHigh only when average is strictly above threshold.
func Classify(average float64, threshold FlowThreshold) FlowClass {
	if average > float64(threshold) {
		return FlowHigh
	}
	return FlowNormal
}

// ClassifyWaste maps a waste volume to its tier: 0 is none, up to and including 10 L is moderate.
func ClassifyWaste(waste float64) WasteClass {
	switch {
	case waste > wasteHighLiters:
		return WasteHigh
	case waste > 0:
		return WasteModerate
	default:
		return WasteNone
	}
}

// BuildReport analyses s. Snapshots with fewer than MinReportRecords readings
// yield a report flagged InsufficientData rather than an error.
func BuildReport(s Snapshot, threshold FlowThreshold) Report {
	if len(s) < MinReportRecords {
		return Report{
			InsufficientData: true,
			RequiredRecords:  MinReportRecords,
			RecordCount:      len(s),
			Threshold:        threshold,
		}
	}

	var total float64
	if last, ok := s.Last(); ok {
		total = last.CumulativeLiters
	}

	average := AverageFlow(s)
	waste := WasteVolume(s)

	return Report{
		TotalLiters: total,
		AverageFlow: average,
		FlowClass:   Classify(average, threshold),
		WasteLiters: waste,
		WasteClass:  ClassifyWaste(waste),
		RecordCount: len(s),
		Threshold:   threshold,
	}
}

// LatestSummary formats the newest reading for the operator console.
func LatestSummary(s Snapshot) string {
	last, ok := s.Last()
	if !ok {
		return "no data yet"
	}
	return fmt.Sprintf("Flow: %s L/min | Total: %s L | IR: %s",
		decimal(last.FlowLPM), decimal(last.CumulativeLiters), last.Presence)
}
