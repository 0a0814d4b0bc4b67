package engine

import "time"

// Clock is the engine's source of wall-clock time.
//
// WaitUntil takes an absolute deadline rather than a duration so a fake clock
// cannot lose a wakeup between the loop reading Now and registering the wait.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// WaitUntil returns a channel that receives once the clock reaches t.
	// If t is not after Now, the channel is ready immediately.
	WaitUntil(t time.Time) <-chan time.Time
}

// SystemClock is the production Clock backed by the time package.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// WaitUntil returns a timer channel that fires at t.
func (SystemClock) WaitUntil(t time.Time) <-chan time.Time {
	return time.After(time.Until(t))
}
