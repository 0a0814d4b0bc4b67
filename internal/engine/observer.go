package engine

import "time"

// Observer captures telemetry for engine operations.
// Implementations must be safe for concurrent use.
type Observer interface {
	RecordDispatch(lag time.Duration, err error)
	RecordRefresh(duration time.Duration, err error)
	RecordAdd(err error)
	RecordQueueDepth(n int)
}

type nopObserver struct{}

func (nopObserver) RecordDispatch(time.Duration, error) {}
func (nopObserver) RecordRefresh(time.Duration, error)  {}
func (nopObserver) RecordAdd(error)                     {}
func (nopObserver) RecordQueueDepth(int)                {}
