package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/balanza/internal/reminder"
)

// ListForOwner returns the owner's pending (undispatched) reminders.
// Results are ordered deterministically: ORDER BY trigger_time ASC, id ASC.
//
// Returns an empty slice (not nil) if the owner has no pending reminders.
func (s *Store) ListForOwner(ctx context.Context, ownerID int64) ([]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, trigger_time, task_id
		FROM reminders
		WHERE user_id = ? AND dispatched_at IS NULL
		ORDER BY trigger_time ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	reminders := []reminder.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}

	return reminders, nil
}

// GetReminder returns a reminder by ID, dispatched or not.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetReminder(ctx context.Context, id int64) (reminder.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, trigger_time, task_id
		FROM reminders
		WHERE id = ?
	`, id)

	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reminder.Reminder{}, fmt.Errorf("get reminder %d: %w", id, ErrNotFound)
	}
	return r, err
}

// IsDispatched reports whether a reminder has been marked dispatched.
func (s *Store) IsDispatched(ctx context.Context, id int64) (bool, error) {
	var at sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT dispatched_at FROM reminders WHERE id = ?`, id).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("is dispatched %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("is dispatched %d: %w", id, err)
	}
	return at.Valid, nil
}

// GetTask returns a financial task by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetTask(ctx context.Context, id int64) (*reminder.Task, error) {
	var (
		t       reminder.Task
		dueDate int64
		amount  string
		status  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, due_date, amount, category, status
		FROM financial_tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &dueDate, &amount, &t.Category, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}

	t.DueDate = unmarshalTime(dueDate)
	t.Status = reminder.TaskStatus(status)
	if t.Amount, err = unmarshalAmount(amount); err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// GetUser returns a user by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	var (
		u         User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("get user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	u.CreatedAt = unmarshalTime(createdAt)
	return u, nil
}

// EmailForOwner resolves the notification recipient for an owner.
// Returns ErrNotFound if the owner does not exist.
func (s *Store) EmailForOwner(ctx context.Context, ownerID int64) (string, error) {
	u, err := s.GetUser(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("email for owner: %w", err)
	}
	return u.Email, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReminder scans a reminder row selected as
// (id, user_id, title, description, trigger_time, task_id).
func scanReminder(row rowScanner) (reminder.Reminder, error) {
	var (
		r       reminder.Reminder
		trigger int64
		taskID  sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Description, &trigger, &taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reminder.Reminder{}, err
		}
		return reminder.Reminder{}, fmt.Errorf("scan reminder: %w", err)
	}
	r.TriggerTime = unmarshalTime(trigger)
	r.TaskID = unmarshalTaskID(taskID)
	return r, nil
}
