// Package store provides SQLite-backed durable storage for balanza reminders.
//
// The store holds three tables:
//   - users: reminder owners and the e-mail used as notification recipient
//   - financial_tasks: tasks a reminder may link to (weak reference)
//   - reminders: scheduled reminders, with dispatched_at set once fired
//
// # Conventions
//
//   - Timestamps are stored as INTEGER unix nanoseconds in UTC
//   - Amounts are stored as decimal TEXT, never floating point
//   - Pending-reminder queries ORDER BY trigger_time ASC, id ASC so reloads
//     are deterministic
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// *Store satisfies engine.Store, engine.DispatchRecorder, engine.TaskLookup and
// engine.IdentityLookup.
package store
