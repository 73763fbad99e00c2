package rate

import (
	"sync"
	"time"
)

// Guard suppresses invocations that arrive within Window of the last
// admitted one. It is safe for concurrent use; multiple trigger sources
// share a single guard.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   time.Time
}

// NewGuard builds a guard. A zero or negative window admits everything.
// now defaults to time.Now.
func NewGuard(window time.Duration, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{window: window, now: now}
}

// Allow reports whether this invocation is admitted and, if so, advances
// the window. Check-and-advance is atomic: two concurrent callers inside
// the same window admit exactly one.
func (g *Guard) Allow() bool {
	if g == nil {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.window > 0 && !g.last.IsZero() && now.Sub(g.last) < g.window {
		return false
	}
	g.last = now
	return true
}

// Reset forgets the last admission, so the next Allow always succeeds.
// Called on logout: a fresh login must not inherit a stale window.
func (g *Guard) Reset() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.last = time.Time{}
	g.mu.Unlock()
}
