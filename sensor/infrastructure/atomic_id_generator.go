package infrastructure

import "sync/atomic"

// AtomicIDGenerator hands out increasing sequence numbers starting at 1 and is safe for concurrent use.
type AtomicIDGenerator struct {
	id atomic.Int64
}

// Generate returns the next sequence number.
func (g *AtomicIDGenerator) Generate() int64 {
	return g.id.Add(1)
}
