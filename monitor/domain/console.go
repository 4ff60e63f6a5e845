package domain

import (
	"io"
	"sync"
)

// Console serializes operator output written by the ingestion loop and the analyzer.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

// NewConsole wraps w so concurrent writers do not interleave within a write.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}
