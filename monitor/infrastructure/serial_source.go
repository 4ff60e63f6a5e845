package infrastructure

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
	"go.bug.st/serial"
)

// boardResetDelay is how long an Arduino-class board needs after the port is
// opened (opening toggles DTR, which resets it) before it sends clean lines.
const boardResetDelay = 2 * time.Second

const serialChunkSize = 256

// portReader is the part of serial.Port the source uses.
type portReader interface {
	Read(p []byte) (int, error)
	Close() error
}

// SerialSource reads protocol lines from a serial port. Each ReadLine performs at
// most one port read, so it blocks for at most the configured read timeout.
type SerialSource struct {
	port    portReader
	name    monitorDomain.PortName
	pending []byte
	chunk   []byte
}

// ReadLine returns the next complete line, or ErrReadTimeout when the port
// produced no complete line within the timeout.
func (s *SerialSource) ReadLine() (string, error) {
	if line, ok := s.nextLine(); ok {
		return line, nil
	}

	n, err := s.port.Read(s.chunk)
	if err != nil {
		return "", fmt.Errorf("read from %s: %w", s.name, err)
	}
	if n == 0 { // the serial driver reports a timeout as an empty read
		return "", monitorDomain.ErrReadTimeout
	}
	s.pending = append(s.pending, s.chunk[:n]...)

	if line, ok := s.nextLine(); ok {
		return line, nil
	}
	return "", monitorDomain.ErrReadTimeout
}

// nextLine cuts the first newline-terminated line out of the pending bytes.
// Invalid UTF-8 is dropped, like a lenient decoder would.
func (s *SerialSource) nextLine() (string, bool) {
	idx := bytes.IndexByte(s.pending, '\n')
	if idx < 0 {
		return "", false
	}
	raw := s.pending[:idx]
	s.pending = s.pending[idx+1:]

	line := strings.ToValidUTF8(string(raw), "")
	return strings.TrimRight(line, "\r"), true
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

func newSerialSource(port portReader, name monitorDomain.PortName) *SerialSource {
	return &SerialSource{
		port:  port,
		name:  name,
		chunk: make([]byte, serialChunkSize),
	}
}

// OpenSerialSource opens the serial port at the given line rate, waits for the
// board to come out of reset and discards whatever it sent while booting.
func OpenSerialSource(
	name monitorDomain.PortName,
	baud monitorDomain.BaudRate,
	timeout monitorDomain.ReadTimeout,
	logger monitorDomain.Logger,
) (*SerialSource, error) {
	port, err := serial.Open(string(name), &serial.Mode{BaudRate: int(baud)})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", monitorDomain.ErrConnection, name, err)
	}

	if err := port.SetReadTimeout(time.Duration(timeout)); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: set read timeout on %s: %w", monitorDomain.ErrConnection, name, err)
	}

	time.Sleep(boardResetDelay)
	if err := port.ResetInputBuffer(); err != nil {
		logger.Error("error on discarding boot output of %s: %s", name, err.Error())
	}

	logger.Info("serial port %s opened at %d baud", name, baud)
	return newSerialSource(port, name), nil
}
