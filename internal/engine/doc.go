// Package engine implements the balanza reminder scheduling engine.
//
// An Engine owns the live ordered set of pending reminders for one owner,
// runs a single background loop that dispatches reminders when they fall due,
// and periodically re-synchronizes the set from the Store so reminders added
// or edited elsewhere are eventually observed.
//
// ARCHITECTURE:
//
// Single Dispatch Goroutine:
// Each running engine has exactly one loop goroutine. Reminders fire strictly
// one at a time, in trigger-time order. Callers interact through AddReminder,
// GetAllReminders and RefreshData from any goroutine.
//
// Loop Flow:
//  1. Refresh the live set from the Store when the refresh interval has elapsed
//  2. Empty set: wait EmptyQueuePollInterval
//  3. Head due (now >= trigger time): pop, notify, loop immediately
//  4. Otherwise wait min(trigger - now, MaxDispatchWait)
//
// Every wait is interruptible by Stop and by AddReminder, which wakes the loop
// so a newly added earlier reminder shortens the current wait.
//
// SHARED STATE:
//
// The live set is a mutex-guarded heap. Pop and full replacement are atomic
// with respect to each other, and the set remembers dispatched IDs so a
// refresh never re-admits a reminder this engine has already fired.
//
// Store synchronization (persist-then-insert, load-then-replace) is serialized
// by a separate mutex so a refresh cannot overwrite a concurrent add.
//
// DELIVERY:
//
// Dispatch is at-most-once and best effort. Lookup and send failures are
// logged and the reminder is consumed anyway; nothing is retried.
package engine
