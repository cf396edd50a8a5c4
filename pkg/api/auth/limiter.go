package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ghostline/pkg/timeutil"
)

// keyIdleTTL is how long a key's bucket survives without traffic.
const keyIdleTTL = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// keyLimiters holds one token bucket per API key. Idle buckets are swept
// on the request path, at most once per keyIdleTTL, so no goroutine runs
// behind it.
type keyLimiters struct {
	clock timeutil.Clock
	limit rate.Limit
	burst int

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newKeyLimiters(clock timeutil.Clock, rps float64, burst int) *keyLimiters {
	return &keyLimiters{
		clock:     clock,
		limit:     rate.Limit(rps),
		burst:     burst,
		buckets:   map[string]*bucket{},
		lastSweep: clock.Now(),
	}
}

// allow spends one token from key's bucket.
func (k *keyLimiters) allow(key string) bool {
	now := k.clock.Now()

	k.mu.Lock()
	defer k.mu.Unlock()
	if now.Sub(k.lastSweep) >= keyIdleTTL {
		k.sweepLocked(now.Add(-keyIdleTTL))
		k.lastSweep = now
	}
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func (k *keyLimiters) sweepLocked(cutoff time.Time) {
	for key, b := range k.buckets {
		if b.seen.Before(cutoff) {
			delete(k.buckets, key)
		}
	}
}

func (k *keyLimiters) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
