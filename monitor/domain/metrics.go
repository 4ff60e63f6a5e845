package domain

// Line outcomes reported to Metrics.LineRejected.
const (
	RejectParse   = "parse_error"
	RejectInvalid = "invalid"
)

// Metrics receives pipeline counters. Implementations must be safe for concurrent use.
type Metrics interface {
	LineAccepted(datasetSize int)
	LineRejected(reason string)
	PersistenceFailed()
	RenderFailed()
	AnalysisDropped()
	ObserveReport(report Report)
	// Flush exports the current values, if the implementation exports anywhere.
	Flush() error
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) LineAccepted(int)     {}
func (NopMetrics) LineRejected(string)  {}
func (NopMetrics) PersistenceFailed()   {}
func (NopMetrics) RenderFailed()        {}
func (NopMetrics) AnalysisDropped()     {}
func (NopMetrics) ObserveReport(Report) {}
func (NopMetrics) Flush() error         { return nil }
