// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"
)

// Real returns the current time in UTC, truncated to microseconds so values
// survive a round trip through the preset store unchanged.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Fake is a controllable clock. When Step is non-zero every call to Now
// advances the clock by Step after reading it.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewFake creates a fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// NewTicking creates a fake clock that advances by step on each read.
func NewTicking(t time.Time, step time.Duration) *Fake {
	return &Fake{current: t, step: step}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.current
	f.current = f.current.Add(f.step)
	return now
}

// Set sets the fake current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the fake time by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
