package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"syscall"

	sensorDomain "github.com/samoilenko/water_monitor/sensor/domain"
)

// LineTransport writes samples in the sensor line protocol:
// "<flow_lpm>,<cumulative_liters>,<presence>,<seq>\n".
type LineTransport struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

// Send writes one line. A closed consumer is reported as ErrTransportClosed.
func (t *LineTransport) Send(ctx context.Context, value *sensorDomain.SensorValue, seq int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = FormatLine(t.buf[:0], value, seq)
	if _, err := t.w.Write(t.buf); err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
			return fmt.Errorf("%w: %w", sensorDomain.ErrTransportClosed, err)
		}
		return err
	}
	return nil
}

// FormatLine appends the protocol line for value to dst.
func FormatLine(dst []byte, value *sensorDomain.SensorValue, seq int64) []byte {
	dst = strconv.AppendFloat(dst, value.FlowLPM, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, value.CumulativeLiters, 'f', 3, 64)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(value.Presence), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, seq, 10)
	return append(dst, '\n')
}

// NewLineTransport creates a LineTransport writing to w.
func NewLineTransport(w io.Writer) *LineTransport {
	return &LineTransport{w: w}
}
