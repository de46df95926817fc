package httpserver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per player for /cities/move.
type limiterSet struct {
	mu      sync.Mutex
	rps     int
	burst   int
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	lim        *rate.Limiter
	lastAccess time.Time
}

func newLimiterSet(rps, burst int) *limiterSet {
	return &limiterSet{rps: rps, burst: burst, entries: make(map[string]*limiterEntry)}
}

// allow reports whether key may act now, creating its bucket on first use.
func (l *limiterSet) allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = time.Now()
	l.mu.Unlock()
	return e.lim.Allow()
}

// sweep drops buckets idle since before cutoff and returns how many went.
func (l *limiterSet) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// sweepEvery runs sweep until ctx is done.
func (l *limiterSet) sweepEvery(ctx context.Context, every, ttl time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := l.sweep(now.Add(-ttl)); n > 0 {
				log.Debug().Int("removed", n).Msg("swept idle move limiters")
			}
		}
	}
}
