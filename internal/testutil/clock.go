package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced wall clock for tests.
//
// Unlike engine.SystemClock, FakeClock only moves when Advance or Set is
// called. WaitUntil channels fire as soon as the clock reaches their deadline,
// so a test can step the engine loop through time deterministically.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

// NewFakeClock creates a fake clock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// WaitUntil returns a channel that receives once the clock reaches t.
// A deadline at or before the current time fires immediately.
func (c *FakeClock) WaitUntil(t time.Time) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if !t.After(c.now) {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, fakeWaiter{at: t, ch: ch})
	return ch
}

// Advance moves the clock forward by d and fires every waiter whose deadline
// has been reached.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(c.now.Add(d))
}

// Set moves the clock to t. Moving backwards fires nothing.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(t)
}

// Waiters returns the number of pending WaitUntil deadlines.
func (c *FakeClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *FakeClock) setLocked(t time.Time) {
	c.now = t

	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at.After(t) {
			pending = append(pending, w)
			continue
		}
		w.ch <- t // buffered, never blocks
	}
	// Nil out the tail so fired channels can be collected.
	for i := len(pending); i < len(c.waiters); i++ {
		c.waiters[i] = fakeWaiter{}
	}
	c.waiters = pending
}
