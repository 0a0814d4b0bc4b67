package testutil

import (
	"context"
	"sync"

	"github.com/roach88/balanza/internal/reminder"
)

// RecordingNotifier captures every notification it is asked to send.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingNotifier struct {
	mu    sync.Mutex
	sent  []reminder.Notification
	calls int
	err   error
}

// NewRecordingNotifier creates a notifier that accepts every message.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Send records n. When a failure is configured, the attempt is counted but
// n is not recorded as sent.
func (r *RecordingNotifier) Send(_ context.Context, n reminder.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

// Fail makes Send return err (nil clears it).
func (r *RecordingNotifier) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Sent returns a copy of the delivered notifications in send order.
func (r *RecordingNotifier) Sent() []reminder.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reminder.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Calls returns the number of Send attempts, including failed ones.
func (r *RecordingNotifier) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
