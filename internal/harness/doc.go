// Package harness runs scripted scenarios against the reminder engine.
//
// A scenario drives a real engine over an in-memory store, a fake clock and
// a recording notifier, so every run produces the same trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: pay_rent
//	description: "A seeded reminder fires at its trigger time"
//	start: 2026-03-01T09:00:00Z     # fake clock start (optional)
//	owner: { id: 1, email: owner@example.com }
//	tasks:
//	  - { id: 3, title: Rent, amount: "1200.50", status: PENDING }
//	reminders:                      # in the store before the engine starts
//	  - { title: Pay rent, at: +1h, task: 3 }
//	steps:
//	  - add: { title: Water bill, at: +30m }
//	  - add: { title: Hi, at: +5m }
//	    expect: TITLE_LENGTH
//	  - advance: 2h
//	assertions:
//	  - type: dispatch_order
//	    titles: [Water bill, Pay rent]
//
// Trigger times ("at") are either RFC 3339 instants or signed offsets from
// the clock reading when the step runs ("+1h", "-5m").
//
// # Steps
//
//   - add: AddReminder through the engine; expect is ok (default), a
//     validation code, or persistence_error
//   - seed: write a reminder straight into the store, as another process would
//   - delete: remove a reminder (by title) from the store
//   - refresh: RefreshData
//   - advance: move the clock forward, waking the loop at every instant it
//     asks to be woken
//   - fail / recover: inject or clear a fault (insert, list, lookup, send)
//
// # Assertion Types
//
//   - dispatch_order: titles delivered, in order (failed sends excluded)
//   - dispatch_count: number of deliveries (optionally of one title)
//   - pending: titles left in the live set, in trigger order
//   - body_contains: a title's notification body contains text
//   - store_dispatched: the store recorded a title as dispatched
//
// # Golden Traces
//
// RunWithGolden compares the trace to testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
