package domain

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Artifact describes a rendered visualization.
type Artifact struct {
	Path string
}

// Exporter renders a snapshot, typically into an image file.
type Exporter interface {
	Render(ctx context.Context, snapshot Snapshot) (Artifact, error)
}

// AnalysisScheduler accepts snapshots for report and render runs.
type AnalysisScheduler interface {
	// Submit queues a run without blocking the caller.
	Submit(snapshot Snapshot)
	// Flush queues a run and waits until it has finished or ctx is done.
	Flush(ctx context.Context, snapshot Snapshot) error
}

type analysisJob struct {
	snapshot Snapshot
	done     chan struct{}
}

// Analyzer runs BuildReport and the exporter on a background goroutine so that a
// slow render never delays reading from the sensor. It holds at most one pending
// run: a newer snapshot replaces an older one that has not started yet.
type Analyzer struct {
	threshold FlowThreshold
	exporter  Exporter
	console   io.Writer
	logger    Logger
	metrics   Metrics
	queue     chan analysisJob
}

// Submit queues snapshot, replacing a pending run if there is one.
// It must be called from a single goroutine.
func (a *Analyzer) Submit(snapshot Snapshot) {
	job := analysisJob{snapshot: snapshot, done: make(chan struct{})}
	select {
	case a.queue <- job:
		return
	default:
	}

	select {
	case old := <-a.queue:
		close(old.done)
		a.metrics.AnalysisDropped()
		a.logger.Info("analysis still running, replacing queued snapshot of %d records", len(old.snapshot))
	default:
	}

	select {
	case a.queue <- job:
	default:
		a.metrics.AnalysisDropped()
	}
}

// Flush queues snapshot behind any pending run and waits for it to complete.
func (a *Analyzer) Flush(ctx context.Context, snapshot Snapshot) error {
	job := analysisJob{snapshot: snapshot, done: make(chan struct{})}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case a.queue <- job:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-job.done:
		return nil
	}
}

// Run processes queued snapshots until ctx is cancelled.
func (a *Analyzer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-a.queue:
			a.analyse(ctx, job.snapshot)
			close(job.done)
		}
	}
}

func (a *Analyzer) analyse(ctx context.Context, snapshot Snapshot) {
	banner := strings.Repeat("=", 40)
	report := BuildReport(snapshot, a.threshold)

	fmt.Fprintf(a.console, "\n%s\nAnalysis (records: %d)\n%s\n%s\n", banner, len(snapshot), banner, report)
	a.metrics.ObserveReport(report)

	if len(snapshot) == 0 {
		a.logger.Info("no data to plot")
	} else {
		var artifact Artifact
		err := SafeFunctionRun(func() error {
			var renderErr error
			artifact, renderErr = a.exporter.Render(ctx, snapshot)
			return renderErr
		}, a.logger)
		if err != nil {
			a.metrics.RenderFailed()
			a.logger.Error("%s: %s", ErrRender, err.Error())
		} else {
			a.logger.Info("plot saved to %s", artifact.Path)
		}
	}

	fmt.Fprintf(a.console, "Analysis complete.\n%s\n\n", banner)

	if err := a.metrics.Flush(); err != nil {
		a.logger.Error("error on exporting metrics: %s", err.Error())
	}
}

// NewAnalyzer creates an Analyzer. Run must be started for submitted work to be processed.
func NewAnalyzer(threshold FlowThreshold, exporter Exporter, console io.Writer, logger Logger, metrics Metrics) *Analyzer {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Analyzer{
		threshold: threshold,
		exporter:  exporter,
		console:   console,
		logger:    logger,
		metrics:   metrics,
		queue:     make(chan analysisJob, 1),
	}
}
