package engine

import (
	"context"
	"time"
)

// run is the background dispatch loop. It blocks until ctx is cancelled.
//
// ERROR HANDLING: refresh and dispatch failures are logged and the loop
// continues. Nothing is retried: a reminder that failed to send is consumed.
func (e *Engine) run(ctx context.Context) {
	e.logger.Info("reminder engine starting")

	for {
		wake := e.RunOnce(ctx)
		if ctx.Err() != nil {
			e.logger.Info("reminder engine stopping: context cancelled")
			return
		}

		select {
		case <-ctx.Done():
			e.logger.Info("reminder engine stopping: context cancelled")
			return
		case <-e.clock.WaitUntil(wake):
		case <-e.queue.Wait():
			// Live set changed (add or refresh) - reassess the head.
		}
	}
}

// RunOnce performs one pass of the dispatch loop:
//  1. Refresh from the Store if the refresh interval has elapsed
//  2. Dispatch every reminder that is due, earliest first
//  3. Return when the loop should next wake up
//
// The returned instant is now+EmptyQueuePollInterval for an empty set, or
// min(head trigger time, now+MaxDispatchWait) otherwise.
//
// RunOnce stops dispatching as soon as ctx is cancelled; the reminder being
// dispatched at that moment is still delivered.
func (e *Engine) RunOnce(ctx context.Context) time.Time {
	for {
		if e.refreshDue() {
			if err := e.RefreshData(ctx); err != nil {
				e.logger.Error("periodic refresh failed, keeping current reminders", "error", err)
			}
		}

		now := e.clock.Now()
		r, ok := e.queue.PopDue(now)
		if !ok {
			return e.nextWake(now)
		}

		e.dispatch(ctx, r, now)
		e.observer.RecordQueueDepth(e.queue.Len())

		if ctx.Err() != nil {
			return now
		}
	}
}

// nextWake computes the loop's next wake-up instant from the live set head.
func (e *Engine) nextWake(now time.Time) time.Time {
	head, ok := e.queue.Peek()
	if !ok {
		return now.Add(e.emptyPoll)
	}

	wait := head.TriggerTime.Sub(now)
	if wait > e.maxWait {
		wait = e.maxWait
	}
	return now.Add(wait)
}
