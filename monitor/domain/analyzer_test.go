package domain

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExporter struct {
	mu    sync.Mutex
	sizes []int
	err   error
	panic bool
}

func (e *recordingExporter) Render(_ context.Context, snapshot Snapshot) (Artifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sizes = append(e.sizes, len(snapshot))
	if e.panic {
		panic("renderer crashed")
	}
	return Artifact{Path: "plot.png"}, e.err
}

func (e *recordingExporter) Sizes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int{}, e.sizes...)
}

type analyzerFixture struct {
	analyzer *Analyzer
	exporter *recordingExporter
	metrics  *recordingMetrics
	logger   *recordingLogger
	out      *bytes.Buffer
}

func newAnalyzerFixture() *analyzerFixture {
	f := &analyzerFixture{
		exporter: &recordingExporter{},
		metrics:  newRecordingMetrics(),
		logger:   &recordingLogger{},
		out:      &bytes.Buffer{},
	}
	f.analyzer = NewAnalyzer(DefaultFlowThreshold, f.exporter, NewConsole(f.out), f.logger, f.metrics)
	return f
}

func (f *analyzerFixture) run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.analyzer.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func snapshotOf(n int) Snapshot {
	flows := make([]float64, n)
	for i := range flows {
		flows[i] = 2
	}
	return Snapshot(readingsAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), flows...))
}

func TestAnalyzer_Flush(t *testing.T) {
	t.Run("prints the report and renders", func(t *testing.T) {
		f := newAnalyzerFixture()
		f.run(t)

		require.NoError(t, f.analyzer.Flush(context.Background(), snapshotOf(12)))

		assert.Equal(t, []int{12}, f.exporter.Sizes())
		assert.Contains(t, f.out.String(), "WATER CONSUMPTION ANALYSIS REPORT")
		assert.Contains(t, f.out.String(), "Analysis complete.")

		counts := f.metrics.counts()
		require.Len(t, counts.reports, 1)
		assert.Equal(t, 12, counts.reports[0].RecordCount)
		assert.Equal(t, 1, counts.flushes)
	})

	t.Run("empty snapshot is not rendered", func(t *testing.T) {
		f := newAnalyzerFixture()
		f.run(t)

		require.NoError(t, f.analyzer.Flush(context.Background(), nil))

		assert.Empty(t, f.exporter.Sizes())
		assert.Contains(t, f.out.String(), "Not enough data")
		assert.Contains(t, f.logger.Messages("info"), "no data to plot")
	})

	t.Run("render failure does not affect the report", func(t *testing.T) {
		f := newAnalyzerFixture()
		f.exporter.err = errors.New("no space left")
		f.run(t)

		require.NoError(t, f.analyzer.Flush(context.Background(), snapshotOf(10)))

		assert.Contains(t, f.out.String(), "Total records: 10")
		assert.Equal(t, 1, f.metrics.counts().renderFailed)
		assert.Len(t, f.logger.Messages("error"), 1)
	})

	t.Run("render panic is recovered", func(t *testing.T) {
		f := newAnalyzerFixture()
		f.exporter.panic = true
		f.run(t)

		require.NoError(t, f.analyzer.Flush(context.Background(), snapshotOf(10)))
		assert.Equal(t, 1, f.metrics.counts().renderFailed)

		// the worker is still alive
		f.exporter.mu.Lock()
		f.exporter.panic = false
		f.exporter.mu.Unlock()
		require.NoError(t, f.analyzer.Flush(context.Background(), snapshotOf(11)))
		assert.Equal(t, []int{10, 11}, f.exporter.Sizes())
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		f := newAnalyzerFixture() // never started

		f.analyzer.Submit(snapshotOf(1)) // fills the queue
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, f.analyzer.Flush(ctx, snapshotOf(2)), context.DeadlineExceeded)
	})
}

func TestAnalyzer_Submit(t *testing.T) {
	t.Run("newer snapshot replaces a pending one", func(t *testing.T) {
		f := newAnalyzerFixture()

		f.analyzer.Submit(snapshotOf(10))
		f.analyzer.Submit(snapshotOf(20))
		f.analyzer.Submit(snapshotOf(30))
		assert.Equal(t, 2, f.metrics.counts().dropped)

		f.run(t)
		require.NoError(t, f.analyzer.Flush(context.Background(), snapshotOf(40)))

		assert.Equal(t, []int{30, 40}, f.exporter.Sizes())
	})

	t.Run("does not block the caller", func(t *testing.T) {
		f := newAnalyzerFixture()

		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				f.analyzer.Submit(snapshotOf(i + 1))
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Submit blocked without a running analyzer")
		}
	})
}
