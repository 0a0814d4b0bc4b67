package notify

import (
	"context"
	"errors"

	"github.com/roach88/balanza/internal/reminder"
)

// Notifier is implemented by every adapter in this package.
type Notifier interface {
	Send(ctx context.Context, n reminder.Notification) error
}

// Fanout sends through each notifier in turn. A failing notifier does not
// stop the others; all errors are joined.
type Fanout []Notifier

// Send delivers n to every notifier.
func (f Fanout) Send(ctx context.Context, n reminder.Notification) error {
	var errs []error
	for _, nt := range f {
		if err := nt.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
