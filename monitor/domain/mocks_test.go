package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

type logCall struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *recordingLogger) record(level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, msg: fmt.Sprintf(msg, args...)})
}

func (l *recordingLogger) Info(msg string, args ...interface{})  { l.record("info", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...interface{})  { l.record("warn", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...interface{}) { l.record("error", msg, args...) }

func (l *recordingLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, c := range l.calls {
		if c.level == level {
			out = append(out, c.msg)
		}
	}
	return out
}

type memStore struct {
	mu          sync.Mutex
	readings    []Reading
	appendErr   error
	appendDelay time.Duration
	closed      bool
}

func (s *memStore) Append(r Reading) error {
	if s.appendDelay > 0 {
		time.Sleep(s.appendDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.readings = append(s.readings, r)
	return nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStore) Readings() []Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reading{}, s.readings...)
}

func (s *memStore) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// scriptedSource replays lines, then ends with endErr. When endErr is nil it
// keeps timing out until closed, like an idle serial port. A non-empty repeat
// line is returned forever once lines run out.
type scriptedSource struct {
	mu        sync.Mutex
	lines     []string
	repeat    string
	endErr    error
	closed    bool
	delivered int
}

func (s *scriptedSource) ReadLine() (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", io.ErrClosedPipe
	}
	if len(s.lines) > 0 {
		line := s.lines[0]
		s.lines = s.lines[1:]
		s.delivered++
		s.mu.Unlock()
		return line, nil
	}
	if s.repeat != "" {
		s.delivered++
		s.mu.Unlock()
		return s.repeat, nil
	}
	endErr := s.endErr
	s.mu.Unlock()

	if endErr != nil {
		return "", endErr
	}
	time.Sleep(2 * time.Millisecond)
	return "", ErrReadTimeout
}

func (s *scriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Delivered returns how many lines were handed out.
func (s *scriptedSource) Delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

func (s *scriptedSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeBootstrapper struct {
	store      *memStore
	history    []Reading
	source     *scriptedSource
	openErr    error
	connectErr error
}

func (b *fakeBootstrapper) OpenLog() (Store, []Reading, error) {
	if b.openErr != nil {
		return nil, nil, b.openErr
	}
	return b.store, b.history, nil
}

func (b *fakeBootstrapper) Connect() (LineSource, error) {
	if b.connectErr != nil {
		return nil, b.connectErr
	}
	return b.source, nil
}

type recordingScheduler struct {
	mu       sync.Mutex
	submits  []Snapshot
	flushes  []Snapshot
	flushErr error
}

func (s *recordingScheduler) Submit(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits = append(s.submits, snapshot)
}

func (s *recordingScheduler) Flush(_ context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes = append(s.flushes, snapshot)
	return s.flushErr
}

func (s *recordingScheduler) Submits() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot{}, s.submits...)
}

func (s *recordingScheduler) Flushes() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot{}, s.flushes...)
}

type recordingMetrics struct {
	mu                sync.Mutex
	accepted          int
	rejected          map[string]int
	persistenceFailed int
	renderFailed      int
	dropped           int
	reports           []Report
	flushes           int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rejected: map[string]int{}}
}

func (m *recordingMetrics) LineAccepted(int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accepted++
}

func (m *recordingMetrics) LineRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *recordingMetrics) PersistenceFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistenceFailed++
}

func (m *recordingMetrics) RenderFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderFailed++
}

func (m *recordingMetrics) AnalysisDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *recordingMetrics) ObserveReport(r Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
}

func (m *recordingMetrics) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

type metricsCounts struct {
	accepted          int
	rejected          map[string]int
	persistenceFailed int
	renderFailed      int
	dropped           int
	reports           []Report
	flushes           int
}

func (m *recordingMetrics) counts() metricsCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	rejected := map[string]int{}
	for k, v := range m.rejected {
		rejected[k] = v
	}
	return metricsCounts{
		accepted:          m.accepted,
		rejected:          rejected,
		persistenceFailed: m.persistenceFailed,
		renderFailed:      m.renderFailed,
		dropped:           m.dropped,
		reports:           append([]Report{}, m.reports...),
		flushes:           m.flushes,
	}
}

var errDiskFull = errors.New("disk full")

// readingsAt builds readings spaced one second apart starting at base.
func readingsAt(base time.Time, flows ...float64) []Reading {
	out := make([]Reading, len(flows))
	var total float64
	for i, f := range flows {
		total += f / 60
		out[i] = Reading{
			Timestamp:        base.Add(time.Duration(i) * time.Second),
			FlowLPM:          f,
			CumulativeLiters: total,
			Presence:         PresencePresent,
		}
	}
	return out
}
