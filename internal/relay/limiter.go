package relay

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// userLimiter throttles submissions per user ID.
type userLimiter struct {
	mu        sync.Mutex
	entries   map[int64]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

// newUserLimiter returns nil when perMinute is not positive, which disables throttling.
func newUserLimiter(perMinute float64, burst int) *userLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{
		entries: make(map[int64]*limiterEntry),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
	}
}

func (l *userLimiter) allow(userID int64, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for id, e := range l.entries {
			if now.Sub(e.lastUse) > limiterIdleTTL {
				delete(l.entries, id)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[userID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[userID] = e
	}
	e.lastUse = now
	return e.limiter.AllowN(now, 1)
}
