package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

// User is a reminder owner.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertUser creates a user and returns its ID.
// The e-mail must be unique.
func (s *Store) InsertUser(ctx context.Context, email, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, name, created_at)
		VALUES (?, ?, ?)
	`, email, name, marshalTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user: last insert id: %w", err)
	}
	return id, nil
}

// InsertTask creates a financial task and returns its ID.
func (s *Store) InsertTask(ctx context.Context, t reminder.Task) (int64, error) {
	status := t.Status
	if status == "" {
		status = reminder.TaskPending
	}
	if !reminder.ValidTaskStatuses[status] {
		return 0, fmt.Errorf("insert task: invalid status %q", status)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_tasks
		(user_id, title, description, due_date, amount, category, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		t.OwnerID,
		t.Title,
		t.Description,
		marshalTime(t.DueDate),
		marshalAmount(t.Amount),
		t.Category,
		string(status),
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert task: last insert id: %w", err)
	}
	return id, nil
}

// InsertReminder persists a reminder and returns the generated ID.
// The reminder's own ID field is ignored.
func (s *Store) InsertReminder(ctx context.Context, r reminder.Reminder) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders
		(user_id, title, description, trigger_time, task_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		r.OwnerID,
		r.Title,
		r.Description,
		marshalTime(r.TriggerTime),
		marshalTaskID(r.TaskID),
		marshalTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reminder: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert reminder: last insert id: %w", err)
	}
	return id, nil
}

// UpdateReminder rewrites a reminder's title, description, trigger time and
// task link. Updating clears dispatched_at so a rescheduled reminder fires again.
// Returns ErrNotFound if no reminder has r.ID.
func (s *Store) UpdateReminder(ctx context.Context, r reminder.Reminder) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reminders
		SET title = ?, description = ?, trigger_time = ?, task_id = ?, dispatched_at = NULL
		WHERE id = ?
	`,
		r.Title,
		r.Description,
		marshalTime(r.TriggerTime),
		marshalTaskID(r.TaskID),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update reminder %d: %w", r.ID, err)
	}
	return expectOneRow(res, "update reminder", r.ID)
}

// DeleteReminder removes a reminder.
// Returns ErrNotFound if no reminder has id.
func (s *Store) DeleteReminder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	return expectOneRow(res, "delete reminder", id)
}

// MarkDispatched records that a reminder fired at the given time.
// Marking an already dispatched reminder keeps the first timestamp.
func (s *Store) MarkDispatched(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reminders
		SET dispatched_at = COALESCE(dispatched_at, ?)
		WHERE id = ?
	`, marshalTime(at), id)
	if err != nil {
		return fmt.Errorf("mark dispatched %d: %w", id, err)
	}
	return expectOneRow(res, "mark dispatched", id)
}

// PruneDispatched deletes reminders dispatched before cutoff and returns how
// many were removed.
func (s *Store) PruneDispatched(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reminders
		WHERE dispatched_at IS NOT NULL AND dispatched_at < ?
	`, marshalTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune dispatched: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune dispatched: rows affected: %w", err)
	}
	return n, nil
}

// rowsAffecter is the subset of sql.Result used by expectOneRow.
type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func expectOneRow(res rowsAffecter, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	return nil
}
