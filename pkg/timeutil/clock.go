// Package timeutil carries the single authoritative clock used for every
// visibility, grant and retention decision.
package timeutil

import (
	"sync"
	"time"
)

// Clock is the time source injected into the engine and the sweep loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers ticks on C until Stop is called.
type Ticker struct {
	C        <-chan time.Time
	stopFunc func()
}

// Stop turns off the ticker. No more ticks are sent after Stop returns.
func (t *Ticker) Stop() {
	if t.stopFunc != nil {
		t.stopFunc()
	}
}

var (
	defaultMu    sync.RWMutex
	defaultClock Clock = Real()
)

// SetDefault replaces the process clock returned by Default and Now.
func SetDefault(c Clock) {
	if c == nil {
		c = Real()
	}
	defaultMu.Lock()
	defaultClock = c
	defaultMu.Unlock()
}

// Default returns the process clock.
func Default() Clock {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClock
}

// Now returns the current UTC time from the process clock.
func Now() time.Time {
	return Default().Now().UTC()
}
