package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// LineSource is a connection to the sensor that yields one protocol line at a time.
type LineSource interface {
	// ReadLine blocks for at most the source's read timeout. It returns
	// ErrReadTimeout when no complete line arrived, and io.EOF when the
	// stream ended cleanly.
	ReadLine() (string, error)
	// Close releases the connection.
	Close() error
}

// LineReader pumps lines from a LineSource into a channel so that the consumer
// can watch for cancellation while a read is still blocked.
type LineReader struct {
	maxCapacity uint32
	logger      Logger

	mu  sync.Mutex
	err error
}

// Read starts reading in a background goroutine. The returned channel is
// closed when ctx is cancelled, the stream ends, or the source fails; Err
// tells the cases apart. A line already taken from the source is always
// delivered, so the caller must receive until the channel is closed.
func (r *LineReader) Read(ctx context.Context, source LineSource) <-chan string {
	lineCh := make(chan string, r.maxCapacity)

	go func() {
		defer close(lineCh)
		for {
			if ctx.Err() != nil {
				return
			}

			line, err := source.ReadLine()
			if err != nil {
				if errors.Is(err, ErrReadTimeout) {
					continue
				}
				if errors.Is(err, io.EOF) {
					r.logger.Info("sensor stream ended")
					return
				}
				if ctx.Err() != nil { // source closed during shutdown
					return
				}
				r.setErr(fmt.Errorf("%w: %w", ErrConnection, err))
				return
			}

			lineCh <- line
		}
	}()

	return lineCh
}

// Err returns the error that stopped the reader, or nil after cancellation or a clean end of stream.
func (r *LineReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *LineReader) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// NewLineReader creates a LineReader whose channel buffers up to maxCapacity lines.
func NewLineReader(maxCapacity uint32, logger Logger) *LineReader {
	return &LineReader{
		maxCapacity: maxCapacity,
		logger:      logger,
	}
}
