package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const reportRule = "--------------------------"

// decimal formats v in plain notation with the fewest digits that round-trip.
func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Report is the result of one analysis run.
type Report struct {
	// InsufficientData is set when the snapshot was too small to analyse;
	// only RequiredRecords, RecordCount and Threshold are meaningful then.
	InsufficientData bool
	RequiredRecords  int

	TotalLiters float64
	AverageFlow float64
	FlowClass   FlowClass
	WasteLiters float64
	WasteClass  WasteClass
	RecordCount int
	Threshold   FlowThreshold
}

// String renders the report as the operator-facing text block.
func (r Report) String() string {
	if r.InsufficientData {
		return fmt.Sprintf("Not enough data: at least %d records are required for analysis (have %d).",
			r.RequiredRecords, r.RecordCount)
	}

	var b strings.Builder
	b.WriteString("WATER CONSUMPTION ANALYSIS REPORT\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Total consumption: %.1f L\n", r.TotalLiters)

	if r.FlowClass == FlowHigh {
		fmt.Fprintf(&b, "High flow: average %s L/min (threshold %s L/min)\n", decimal(r.AverageFlow), decimal(float64(r.Threshold)))
	} else {
		fmt.Fprintf(&b, "Flow normal: average %s L/min\n", decimal(r.AverageFlow))
	}

	switch r.WasteClass {
	case WasteHigh:
		fmt.Fprintf(&b, "High unattended consumption: %s L\n", decimal(r.WasteLiters))
	case WasteModerate:
		fmt.Fprintf(&b, "Moderate unattended consumption: %s L\n", decimal(r.WasteLiters))
	default:
		b.WriteString("No unattended consumption\n")
	}

	fmt.Fprintf(&b, "Total records: %d\n", r.RecordCount)
	b.WriteString(reportRule)
	return b.String()
}
