package infrastructure

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

// Column names of the durable log, in file order.
const (
	ColumnTimestamp        = "timestamp"
	ColumnFlowLPM          = "flow_lpm"
	ColumnCumulativeLiters = "cumulative_liters"
	ColumnIRState          = "ir_state"
)

// TimestampLayout is how timestamps are written: sortable, with offset, microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Header is the first row of every durable log.
var Header = []string{ColumnTimestamp, ColumnFlowLPM, ColumnCumulativeLiters, ColumnIRState}

// naive layouts written by earlier tooling without an offset; read as local time.
var naiveTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// CSVLog is the append-only durable log of readings.
// A failed append marks the log not ready; the next append reopens the file first.
type CSVLog struct {
	logPath   monitorDomain.LogPath
	logger    monitorDomain.Logger
	readyLock sync.Mutex
	f         *os.File
	w         *csv.Writer
	ready     bool
}

// setReady manages the log's availability.
func (cl *CSVLog) setReady(val bool) {
	cl.readyLock.Lock()
	defer cl.readyLock.Unlock()
	cl.ready = val
}

// IsReady returns true if the log has an open handle that last wrote successfully.
func (cl *CSVLog) IsReady() bool {
	cl.readyLock.Lock()
	defer cl.readyLock.Unlock()
	return cl.ready
}

// Reconnect closes the current file handle and opens a new one in append mode.
func (cl *CSVLog) Reconnect() error {
	cl.setReady(false)
	_ = cl.Close()

	if err := cl.connect(); err != nil {
		return err
	}
	cl.setReady(true)
	return nil
}

// connect opens the log for appending, writing the header first if the file is empty.
func (cl *CSVLog) connect() error {
	f, err := os.OpenFile(string(cl.logPath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		cl.logger.Error("error on opening durable log: %s", err.Error())
		return fmt.Errorf("error on opening durable log: %w", err)
	}

	w := csv.NewWriter(f)
	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			_ = f.Close()
			return fmt.Errorf("error on writing header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return fmt.Errorf("error on writing header: %w", err)
		}
	}

	cl.f = f
	cl.w = w
	return nil
}

// Append writes one row and flushes it to the file.
func (cl *CSVLog) Append(r monitorDomain.Reading) error {
	if !cl.IsReady() {
		if err := cl.Reconnect(); err != nil {
			return fmt.Errorf("%w: %w", monitorDomain.ErrPersistence, err)
		}
		cl.logger.Info("durable log reopened")
	}

	if err := cl.w.Write(formatRow(r)); err != nil {
		cl.setReady(false)
		return fmt.Errorf("%w: %w", monitorDomain.ErrPersistence, err)
	}
	cl.w.Flush()
	if err := cl.w.Error(); err != nil {
		cl.setReady(false)
		return fmt.Errorf("%w: %w", monitorDomain.ErrPersistence, err)
	}

	return nil
}

// Close flushes buffered rows and closes the file handle. It is safe to call more than once.
func (cl *CSVLog) Close() error {
	cl.setReady(false)

	var flushErr error
	if cl.w != nil {
		cl.w.Flush()
		flushErr = cl.w.Error()
		cl.w = nil
	}

	if cl.f != nil {
		err := cl.f.Close()
		cl.f = nil
		if err != nil {
			return fmt.Errorf("error on closing durable log: %w", err)
		}
	}
	if flushErr != nil {
		return fmt.Errorf("error on flushing durable log: %w", flushErr)
	}
	return nil
}

// load reads the existing log. A missing or empty file yields no readings.
func (cl *CSVLog) load() ([]monitorDomain.Reading, error) {
	path := string(cl.logPath)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if dir := cl.logPath.Dir(); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("%w: %w", monitorDomain.ErrLogLoad, err)
			}
		}
		cl.logger.Info("creating new durable log %s", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", monitorDomain.ErrLogLoad, err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", monitorDomain.ErrLogLoad, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", monitorDomain.ErrLogLoad, path)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	readings, stats, err := ReadReadings(f)
	if err != nil {
		return nil, err
	}
	if stats.Coerced > 0 {
		cl.logger.Warn("%s: %d stored values in %s were not numeric and were loaded as 0",
			monitorDomain.ErrRowCoercion, stats.Coerced, path)
	}
	if stats.Skipped > 0 {
		cl.logger.Warn("%s: %d rows in %s have no timestamp and were skipped",
			monitorDomain.ErrRowCoercion, stats.Skipped, path)
	}
	return readings, nil
}

// LoadStats counts the repairs made while reading a durable log.
type LoadStats struct {
	// Coerced is the number of numeric cells loaded as 0.
	Coerced int
	// Skipped is the number of rows dropped for an empty timestamp cell.
	Skipped int
}

// ReadReadings parses a durable log. Columns are located by header name. Numeric cells
// that are empty, missing or not numbers are coerced to 0 and counted; rows with an
// empty timestamp are skipped and counted. A missing column or a timestamp that is
// present but unparseable is an ErrLogLoad.
func ReadReadings(r io.Reader) ([]monitorDomain.Reading, LoadStats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, LoadStats{}, fmt.Errorf("%w: no header row", monitorDomain.ErrLogLoad)
		}
		return nil, LoadStats{}, fmt.Errorf("%w: %w", monitorDomain.ErrLogLoad, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	for _, name := range Header {
		if _, ok := columns[name]; !ok {
			return nil, LoadStats{}, fmt.Errorf("%w: missing %q column", monitorDomain.ErrLogLoad, name)
		}
	}

	var (
		readings []monitorDomain.Reading
		stats    LoadStats
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, LoadStats{}, fmt.Errorf("%w: %w", monitorDomain.ErrLogLoad, err)
		}
		row, _ := cr.FieldPos(0)

		field := func(name string) string {
			idx := columns[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		rawTimestamp := field(ColumnTimestamp)
		if rawTimestamp == "" {
			stats.Skipped++
			continue
		}
		ts, err := ParseTimestamp(rawTimestamp)
		if err != nil {
			return nil, LoadStats{}, fmt.Errorf("%w: row %d: %w", monitorDomain.ErrLogLoad, row, err)
		}

		flow, ok := coerceNumber(field(ColumnFlowLPM))
		if !ok {
			stats.Coerced++
		}
		cumulative, ok := coerceNumber(field(ColumnCumulativeLiters))
		if !ok {
			stats.Coerced++
		}
		presence, ok := coerceNumber(field(ColumnIRState))
		if !ok || presence != math.Trunc(presence) {
			stats.Coerced++
			presence = 0
		}

		readings = append(readings, monitorDomain.Reading{
			Timestamp:        ts,
			FlowLPM:          flow,
			CumulativeLiters: cumulative,
			Presence:         monitorDomain.PresenceState(int(presence)),
		})
	}

	return readings, stats, nil
}

// coerceNumber parses value as a float; anything that is not a finite number becomes 0.
func coerceNumber(value string) (float64, bool) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTimestamp accepts RFC 3339 timestamps (the log's own format) and naive
// "date time" values, which are interpreted in the local time zone.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	for _, layout := range naiveTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

func formatRow(r monitorDomain.Reading) []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		strconv.FormatFloat(r.FlowLPM, 'f', -1, 64),
		strconv.FormatFloat(r.CumulativeLiters, 'f', -1, 64),
		strconv.Itoa(int(r.Presence)),
	}
}

// OpenCSVLog opens the durable log at logPath, creating it with a header row if it
// does not exist, and returns the readings it already holds.
func OpenCSVLog(logPath monitorDomain.LogPath, logger monitorDomain.Logger) (*CSVLog, []monitorDomain.Reading, error) {
	cl := NewCSVLog(logPath, logger)

	history, err := cl.load()
	if err != nil {
		return nil, nil, err
	}

	if err := cl.connect(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", monitorDomain.ErrLogLoad, err)
	}
	cl.setReady(true)

	return cl, history, nil
}

// NewCSVLog creates a CSVLog that is not yet open. Use OpenCSVLog to load and open it.
func NewCSVLog(logPath monitorDomain.LogPath, logger monitorDomain.Logger) *CSVLog {
	return &CSVLog{
		logPath: logPath,
		logger:  logger,
		ready:   false,
	}
}
