package engine

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

// queueItem is a reminder plus its insertion sequence, used as a tie-break so
// reminders with equal trigger times keep insertion order and both fire.
type queueItem struct {
	reminder reminder.Reminder
	seq      uint64
}

// reminderHeap implements heap.Interface ordered by (TriggerTime, seq).
type reminderHeap []queueItem

func (h reminderHeap) Len() int { return len(h) }

func (h reminderHeap) Less(i, j int) bool {
	ti, tj := h[i].reminder.TriggerTime, h[j].reminder.TriggerTime
	if !ti.Equal(tj) {
		return ti.Before(tj)
	}
	return h[i].seq < h[j].seq
}

func (h reminderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *reminderHeap) Push(x any) { *h = append(*h, x.(queueItem)) }

func (h *reminderHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem{} // release string references
	*h = old[:n-1]
	return item
}

// reminderQueue is the live ordered set: a thread-safe priority queue of
// pending reminders.
//
// Every read and write happens under mu, so the dispatch loop and caller
// goroutines never observe a partially modified heap.
//
// The queue uses a buffered channel for signaling so the loop can wait on
// "something was added" alongside its timer and cancellation.
type reminderQueue struct {
	mu     sync.Mutex
	items  reminderHeap
	seq    uint64
	fired  map[int64]struct{} // IDs dispatched by this engine instance
	signal chan struct{}      // buffered, size 1
}

// newReminderQueue creates an empty queue.
func newReminderQueue() *reminderQueue {
	return &reminderQueue{
		items:  make(reminderHeap, 0, 16),
		fired:  make(map[int64]struct{}),
		signal: make(chan struct{}, 1),
	}
}

// Push inserts a reminder and wakes the loop.
// Returns false if the reminder was already dispatched by this engine.
func (q *reminderQueue) Push(r reminder.Reminder) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.wasFired(r.ID) {
		return false
	}
	q.pushLocked(r)
	q.notify()
	return true
}

// Replace discards the current contents and loads rs, skipping reminders this
// engine has already dispatched. Returns the number of reminders admitted.
func (q *reminderQueue) Replace(rs []reminder.Reminder) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = make(reminderHeap, 0, len(rs))
	for _, r := range rs {
		if q.wasFired(r.ID) {
			continue
		}
		q.items = append(q.items, queueItem{reminder: r, seq: q.nextSeq()})
	}
	heap.Init(&q.items)
	q.notify()
	return len(q.items)
}

// Peek returns the earliest-due reminder without removing it.
func (q *reminderQueue) Peek() (reminder.Reminder, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return reminder.Reminder{}, false
	}
	return q.items[0].reminder, true
}

// PopDue removes and returns the earliest reminder if it is due at now
// (now >= trigger time). The reminder is recorded as fired before the lock is
// released, so a concurrent Replace cannot re-admit it.
func (q *reminderQueue) PopDue(now time.Time) (reminder.Reminder, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || now.Before(q.items[0].reminder.TriggerTime) {
		return reminder.Reminder{}, false
	}

	item := heap.Pop(&q.items).(queueItem)
	if item.reminder.ID != 0 {
		q.fired[item.reminder.ID] = struct{}{}
	}
	return item.reminder, true
}

// Snapshot returns a copy of the live set ordered by trigger time.
func (q *reminderQueue) Snapshot() []reminder.Reminder {
	q.mu.Lock()
	items := make(reminderHeap, len(q.items))
	copy(items, q.items)
	q.mu.Unlock()

	sort.Slice(items, items.Less)

	out := make([]reminder.Reminder, len(items))
	for i, item := range items {
		out[i] = item.reminder
	}
	return out
}

// Len returns the number of pending reminders.
func (q *reminderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wait returns a channel that signals when the queue contents changed.
// Use with select alongside the loop's timer and context.
func (q *reminderQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *reminderQueue) pushLocked(r reminder.Reminder) {
	heap.Push(&q.items, queueItem{reminder: r, seq: q.nextSeq()})
}

func (q *reminderQueue) nextSeq() uint64 {
	q.seq++
	return q.seq
}

func (q *reminderQueue) wasFired(id int64) bool {
	if id == 0 {
		return false
	}
	_, ok := q.fired[id]
	return ok
}

// notify signals availability (non-blocking - buffer of 1 coalesces multiple signals).
func (q *reminderQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
