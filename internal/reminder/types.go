package reminder

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Reminder is a scheduled notification for one owner.
type Reminder struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TriggerTime time.Time `json:"trigger_time"`
	TaskID      *int64    `json:"task_id,omitempty"` // weak reference to a Task
}

// String renders the reminder the way it appears in notification bodies.
func (r Reminder) String() string {
	return fmt.Sprintf("Reminder: %s at %s", r.Title, r.TriggerTime.Format(TimeLayout))
}

// Persisted reports whether the store has assigned an ID.
func (r Reminder) Persisted() bool {
	return r.ID != 0
}

// TimeLayout is the human-readable layout used in notification text.
const TimeLayout = "2006-01-02 15:04 MST"

// TaskStatus is the lifecycle state of a financial task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskOverdue   TaskStatus = "OVERDUE"
	TaskCancelled TaskStatus = "CANCELLED"
)

// ValidTaskStatuses defines allowed task statuses.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskPending:   true,
	TaskCompleted: true,
	TaskOverdue:   true,
	TaskCancelled: true,
}

// Task is a financial task (bill payment, budget allocation) a reminder may point at.
type Task struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Status      TaskStatus      `json:"status"`
}

// String renders e.g. "Rent - $1200.00 (PENDING)".
func (t Task) String() string {
	return fmt.Sprintf("%s - $%s (%s)", t.Title, t.Amount.StringFixed(2), t.Status)
}

// Notification is an outbound message produced when a reminder fires.
type Notification struct {
	ID          string    `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	ReminderID  int64     `json:"reminder_id"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	TriggerTime time.Time `json:"trigger_time"`
}
