package engine

import (
	"context"
	"strings"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

// NotificationSubject is the subject line of every reminder notification.
const NotificationSubject = "Balanza Reminder"

// dispatch delivers a due reminder. It runs detached from ctx cancellation so
// an in-flight dispatch completes after Stop; each external call is still
// bounded by the store timeout.
//
// Failures are logged and recorded, never returned: the reminder has already
// been removed from the live set (at-most-once, best effort).
func (e *Engine) dispatch(ctx context.Context, r reminder.Reminder, now time.Time) {
	ctx = context.WithoutCancel(ctx)
	lag := now.Sub(r.TriggerTime)
	log := e.logger.With("reminder_id", r.ID, "title", r.Title)

	n, err := e.compose(ctx, r)
	if err == nil {
		sendCtx, cancel := e.storeContext(ctx)
		if sendErr := e.notifier.Send(sendCtx, n); sendErr != nil {
			err = &DispatchError{ReminderID: r.ID, Stage: "send", Err: sendErr}
		}
		cancel()
	}

	e.observer.RecordDispatch(lag, err)
	if err != nil {
		log.Error("reminder dispatch failed", "error", err)
	} else {
		log.Info("reminder dispatched", "notification_id", n.ID, "lag", lag)
	}

	e.markDispatched(ctx, r, now)
}

// compose resolves the recipient and builds the notification text.
func (e *Engine) compose(ctx context.Context, r reminder.Reminder) (reminder.Notification, error) {
	lookupCtx, cancel := e.storeContext(ctx)
	recipient, err := e.identity.EmailForOwner(lookupCtx, e.ownerID)
	cancel()
	if err != nil {
		return reminder.Notification{}, &DispatchError{ReminderID: r.ID, Stage: "lookup", Err: err}
	}

	return reminder.Notification{
		ID:          e.idGen.Generate(),
		OwnerID:     e.ownerID,
		ReminderID:  r.ID,
		Recipient:   recipient,
		Subject:     NotificationSubject,
		Body:        e.composeBody(ctx, r),
		TriggerTime: r.TriggerTime,
	}, nil
}

// composeBody renders the notification body. The linked task line is best
// effort: a missing task or a store without TaskLookup just omits it.
func (e *Engine) composeBody(ctx context.Context, r reminder.Reminder) string {
	var b strings.Builder
	b.WriteString("NOTIFICATION: ")
	b.WriteString(r.String())

	if d := strings.TrimSpace(r.Description); d != "" {
		b.WriteString("\n\n")
		b.WriteString(d)
	}

	if r.TaskID == nil {
		return b.String()
	}
	tasks, ok := e.store.(TaskLookup)
	if !ok {
		return b.String()
	}

	taskCtx, cancel := e.storeContext(ctx)
	task, err := tasks.GetTask(taskCtx, *r.TaskID)
	cancel()
	if err != nil || task == nil {
		e.logger.Debug("linked task unavailable", "task_id", *r.TaskID, "error", err)
		return b.String()
	}

	b.WriteString("\n\nTask: ")
	b.WriteString(task.String())
	return b.String()
}

// markDispatched records the dispatch in the Store when it supports it.
func (e *Engine) markDispatched(ctx context.Context, r reminder.Reminder, at time.Time) {
	rec, ok := e.store.(DispatchRecorder)
	if !ok || !r.Persisted() {
		return
	}

	storeCtx, cancel := e.storeContext(ctx)
	defer cancel()
	if err := rec.MarkDispatched(storeCtx, r.ID, at); err != nil {
		e.logger.Warn("could not mark reminder dispatched", "reminder_id", r.ID, "error", err)
	}
}
