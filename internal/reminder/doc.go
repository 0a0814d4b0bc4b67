// Package reminder provides the entity types shared by the scheduling engine,
// the store and the notifier adapters.
//
// This package contains type definitions and pure validation only. All other
// internal packages import reminder; reminder imports nothing internal.
//
// Key design constraints:
//   - Reminder IDs are assigned by the store; zero means "not yet persisted"
//   - TaskID is a weak reference: the scheduler never owns or loads tasks
//   - Trigger times are absolute instants, compared in UTC
package reminder
