package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

const (
	// DefaultSummaryEvery is how many accepted readings pass between two console summaries.
	DefaultSummaryEvery = 10
	// DefaultDrainTimeout bounds the final analysis run on shutdown.
	DefaultDrainTimeout = 30 * time.Second

	lineBufferSize = 16
)

// State is a phase of the ingestion loop lifecycle.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateStopped
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Store is the durable, append-only log of readings.
type Store interface {
	Append(r Reading) error
	Close() error
}

// Bootstrapper opens the resources the loop needs before it can run.
type Bootstrapper interface {
	// OpenLog opens the durable log and returns the readings it already holds.
	OpenLog() (Store, []Reading, error)
	// Connect opens the sensor source.
	Connect() (LineSource, error)
}

// WarnLimiter throttles repetitive warnings. Allow reports whether a warning may be
// logged now and how many were suppressed in the window that just ended.
type WarnLimiter interface {
	Allow() (allowed bool, suppressed int)
}

// LoopConfig holds the tunables of the ingestion loop.
type LoopConfig struct {
	UpdateInterval UpdateInterval
	// SummaryEvery defaults to DefaultSummaryEvery; a negative value disables summaries.
	SummaryEvery int
	Policy       PersistencePolicy
	DrainTimeout time.Duration
}

// LoopOption customizes an IngestionLoop.
type LoopOption func(*IngestionLoop)

// WithMetrics reports pipeline counters to m.
func WithMetrics(m Metrics) LoopOption {
	return func(l *IngestionLoop) { l.metrics = m }
}

// WithWarnLimiter throttles malformed-line warnings through w.
func WithWarnLimiter(w WarnLimiter) LoopOption {
	return func(l *IngestionLoop) { l.warnings = w }
}

// IngestionLoop owns the dataset, the durable log and the sensor connection and
// drives readings from the sensor into both stores.
type IngestionLoop struct {
	state atomic.Int32

	cfg          LoopConfig
	parser       *LineParser
	interceptors *Interceptors[Reading]
	analysis     AnalysisScheduler
	console      io.Writer
	logger       Logger
	metrics      Metrics
	warnings     WarnLimiter

	dataset *Dataset
	store   Store
	source  LineSource
	reader  *LineReader
	counter int
}

// State returns the current lifecycle phase.
func (l *IngestionLoop) State() State {
	return State(l.state.Load())
}

func (l *IngestionLoop) setState(s State) {
	l.state.Store(int32(s))
	l.logger.Info("ingestion %s", s)
}

// Dataset exposes the in-memory readings for read-only use.
func (l *IngestionLoop) Dataset() *Dataset {
	return l.dataset
}

// Start runs the Starting phase: it opens the durable log, seeds the dataset from
// it and connects to the sensor. Any failure leaves the loop Faulted.
func (l *IngestionLoop) Start(b Bootstrapper) error {
	if l.State() != StateStarting {
		return fmt.Errorf("ingestion loop cannot start from state %s", l.State())
	}

	store, history, err := b.OpenLog()
	if err != nil {
		l.setState(StateFaulted)
		if !errors.Is(err, ErrLogLoad) {
			err = fmt.Errorf("%w: %w", ErrLogLoad, err)
		}
		return err
	}
	l.store = store
	l.dataset = NewDataset(history)
	l.counter = len(history)
	l.logger.Info("loaded %d readings from durable log", len(history))

	source, err := b.Connect()
	if err != nil {
		l.setState(StateFaulted)
		if closeErr := store.Close(); closeErr != nil {
			l.logger.Error("error on closing durable log: %s", closeErr.Error())
		}
		if !errors.Is(err, ErrConnection) {
			err = fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return err
	}
	l.source = source
	return nil
}

// Run ingests lines until ctx is cancelled, the stream ends, or an unrecoverable
// error occurs, then drains. It returns nil after a graceful shutdown.
func (l *IngestionLoop) Run(ctx context.Context) error {
	if l.State() != StateStarting || l.source == nil {
		return fmt.Errorf("ingestion loop cannot run from state %s", l.State())
	}
	l.setState(StateRunning)

	readerCtx, stopReader := context.WithCancel(ctx)
	defer stopReader()
	lines := l.reader.Read(readerCtx, l.source)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("shutdown requested")
			break loop
		case line, ok := <-lines:
			if !ok {
				runErr = l.reader.Err()
				break loop
			}
			if err := l.ingest(line); err != nil {
				runErr = err
				break loop
			}
		}
	}

	// lines the reader already took from the source are recorded before draining
	stopReader()
	for line := range lines {
		if runErr != nil {
			continue
		}
		if err := l.ingest(line); err != nil {
			runErr = err
		}
	}

	l.drain()
	return runErr
}

// ingest handles one raw line. Only errors that must stop ingestion are returned.
func (l *IngestionLoop) ingest(line string) error {
	reading, err := l.parser.Parse(line)
	if err != nil {
		l.metrics.LineRejected(RejectParse)
		l.warn("%s", err.Error())
		return nil
	}
	reading.Timestamp = l.nextTimestamp(reading.Timestamp)

	if err := l.interceptors.Apply(&reading); err != nil {
		l.metrics.LineRejected(RejectInvalid)
		l.warn("reading rejected: %s | line: %q", err.Error(), line)
		return nil
	}

	if err := l.store.Append(reading); err != nil {
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		l.metrics.PersistenceFailed()
		l.logger.Error("%s", err.Error())
		if l.cfg.Policy == PersistenceStrict {
			return err
		}
	}

	// kept in memory even when the append failed under the best-effort policy
	l.dataset.Append(reading)
	l.counter++
	l.metrics.LineAccepted(l.dataset.Size())

	if l.cfg.SummaryEvery > 0 && l.counter%l.cfg.SummaryEvery == 0 {
		fmt.Fprintln(l.console, LatestSummary(Snapshot{reading}))
	}
	if l.counter%int(l.cfg.UpdateInterval) == 0 {
		l.logger.Info("analysis due (records: %d)", l.counter)
		l.analysis.Submit(l.dataset.Snapshot())
	}
	return nil
}

// nextTimestamp keeps timestamps strictly increasing at the log's microsecond precision,
// even if the wall clock stalls or steps back.
func (l *IngestionLoop) nextTimestamp(ts time.Time) time.Time {
	ts = ts.Round(0).Truncate(time.Microsecond)
	if last, ok := l.dataset.Last(); ok && !ts.After(last.Timestamp) {
		return last.Timestamp.Add(time.Microsecond)
	}
	return ts
}

func (l *IngestionLoop) warn(msg string, args ...interface{}) {
	if l.warnings == nil {
		l.logger.Warn(msg, args...)
		return
	}
	allowed, suppressed := l.warnings.Allow()
	if suppressed > 0 {
		l.logger.Warn("suppressed %d malformed-line warnings", suppressed)
	}
	if allowed {
		l.logger.Warn(msg, args...)
	}
}

// drain runs the final analysis over everything accumulated and releases the
// sensor connection and the durable log.
func (l *IngestionLoop) drain() {
	l.setState(StateDraining)

	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.DrainTimeout)
	defer cancel()

	snapshot := l.dataset.Snapshot()
	fmt.Fprintln(l.console, "\nFinal status report:")
	if err := l.analysis.Flush(ctx, snapshot); err != nil {
		l.logger.Error("final analysis did not complete: %s", err.Error())
	}
	if last, ok := snapshot.Last(); ok {
		fmt.Fprintf(l.console, "Total records: %d\nLast cumulative total: %.2f L\n", len(snapshot), last.CumulativeLiters)
	}

	if err := l.source.Close(); err != nil {
		l.logger.Error("error on closing sensor connection: %s", err.Error())
	} else {
		l.logger.Info("sensor connection closed")
	}
	if err := l.store.Close(); err != nil {
		l.logger.Error("error on closing durable log: %s", err.Error())
	}

	l.setState(StateStopped)
}

// NewIngestionLoop creates a loop in the Starting state.
func NewIngestionLoop(
	cfg LoopConfig,
	parser *LineParser,
	interceptors *Interceptors[Reading],
	analysis AnalysisScheduler,
	console io.Writer,
	logger Logger,
	opts ...LoopOption,
) *IngestionLoop {
	if cfg.UpdateInterval == 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if cfg.SummaryEvery == 0 {
		cfg.SummaryEvery = DefaultSummaryEvery
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.Policy == "" {
		cfg.Policy = PersistenceBestEffort
	}

	l := &IngestionLoop{
		cfg:          cfg,
		parser:       parser,
		interceptors: interceptors,
		analysis:     analysis,
		console:      console,
		logger:       logger,
		metrics:      NopMetrics{},
		reader:       NewLineReader(lineBufferSize, logger),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
