package infrastructure

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

// StreamSource reads protocol lines from a byte stream such as standard input,
// typically fed by the sensor simulator through a pipe.
type StreamSource struct {
	r       io.ReadCloser
	timeout time.Duration
	lines   chan string
	done    chan struct{}
	once    sync.Once

	errLock sync.Mutex
	err     error
}

func (s *StreamSource) scan() {
	defer close(s.lines)

	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		line := strings.ToValidUTF8(scanner.Text(), "")
		select {
		case s.lines <- strings.TrimRight(line, "\r"):
		case <-s.done:
			return
		}
	}

	s.errLock.Lock()
	s.err = scanner.Err()
	s.errLock.Unlock()
}

// ReadLine waits up to the read timeout for the next line. It returns io.EOF
// once the stream is exhausted.
func (s *StreamSource) ReadLine() (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case line, ok := <-s.lines:
		if ok {
			return line, nil
		}
		select {
		case <-s.done:
			return "", os.ErrClosed
		default:
		}
		s.errLock.Lock()
		defer s.errLock.Unlock()
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	case <-timer.C:
		return "", monitorDomain.ErrReadTimeout
	case <-s.done:
		return "", os.ErrClosed
	}
}

// Close stops the scanner and closes the underlying stream.
func (s *StreamSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.r.Close()
	})
	return err
}

// NewStreamSource starts scanning r for lines.
func NewStreamSource(r io.ReadCloser, timeout monitorDomain.ReadTimeout) *StreamSource {
	s := &StreamSource{
		r:       r,
		timeout: time.Duration(timeout),
		lines:   make(chan string),
		done:    make(chan struct{}),
	}
	go s.scan()
	return s
}
