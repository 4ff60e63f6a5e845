package infrastructure

import (
	"sync"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

// WarnLimiter implements a fixed window limiter for log warnings.
// A sensor that starts sending garbage produces one warning per line; the
// limiter lets the first maxLimit through per window and counts the rest.
type WarnLimiter struct {
	last       time.Time
	mu         sync.Mutex
	now        func() time.Time
	timeWindow time.Duration
	maxLimit   monitorDomain.WarnRate
	count      int
	suppressed int
}

// Allow reports whether a warning may be logged now.
//
// The limiter uses a fixed window approach:
//   - If the window has elapsed, it starts a new one and reports how many
//     warnings the previous window suppressed
//   - Otherwise it counts the warning and refuses it once the limit is reached
func (r *WarnLimiter) Allow() (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.last) >= r.timeWindow {
		suppressed := r.suppressed
		r.last = now
		r.count = 1
		r.suppressed = 0

		return true, suppressed
	}

	r.count++
	if r.count > int(r.maxLimit) {
		r.suppressed++
		return false, 0
	}

	return true, 0
}

// NewWarnLimiter creates a new limiter allowing maxLimit warnings per timeWindow.
func NewWarnLimiter(maxLimit monitorDomain.WarnRate, timeWindow time.Duration) *WarnLimiter {
	return &WarnLimiter{
		maxLimit:   maxLimit,
		timeWindow: timeWindow,
		now:        time.Now,
	}
}
