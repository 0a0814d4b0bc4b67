package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

// ErrNotFound is returned by MemoryStore lookups that match nothing.
var ErrNotFound = errors.New("not found")

// MemoryStore is an in-memory reminder store, identity lookup and task lookup
// with fault injection, for engine tests.
//
// It satisfies engine.Store, engine.DispatchRecorder, engine.TaskLookup and
// engine.IdentityLookup structurally, so testutil does not import engine.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	reminders  map[int64]reminder.Reminder
	dispatched map[int64]time.Time
	emails     map[int64]string
	tasks      map[int64]reminder.Task

	insertErr error
	listErr   error
	lookupErr error

	insertCalls int
	listCalls   int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reminders:  make(map[int64]reminder.Reminder),
		dispatched: make(map[int64]time.Time),
		emails:     make(map[int64]string),
		tasks:      make(map[int64]reminder.Task),
	}
}

// InsertReminder stores r under a new ID.
func (s *MemoryStore) InsertReminder(_ context.Context, r reminder.Reminder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertCalls++
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	return s.insertLocked(r), nil
}

// ListForOwner returns the owner's undispatched reminders ordered by trigger time.
func (s *MemoryStore) ListForOwner(_ context.Context, ownerID int64) ([]reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []reminder.Reminder
	for id, r := range s.reminders {
		if r.OwnerID != ownerID {
			continue
		}
		if _, done := s.dispatched[id]; done {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TriggerTime.Equal(out[j].TriggerTime) {
			return out[i].TriggerTime.Before(out[j].TriggerTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MarkDispatched records that a reminder fired.
func (s *MemoryStore) MarkDispatched(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[id]; !ok {
		return fmt.Errorf("mark dispatched %d: %w", id, ErrNotFound)
	}
	s.dispatched[id] = at
	return nil
}

// GetTask returns a seeded task.
func (s *MemoryStore) GetTask(_ context.Context, id int64) (*reminder.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	return &t, nil
}

// EmailForOwner returns the e-mail registered with SetEmail.
func (s *MemoryStore) EmailForOwner(_ context.Context, ownerID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookupErr != nil {
		return "", s.lookupErr
	}
	email, ok := s.emails[ownerID]
	if !ok {
		return "", fmt.Errorf("email for owner %d: %w", ownerID, ErrNotFound)
	}
	return email, nil
}

// Seed inserts a reminder directly, bypassing validation and fault injection.
// Returns the reminder with its assigned ID.
func (s *MemoryStore) Seed(r reminder.Reminder) reminder.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.insertLocked(r)
	return r
}

// Delete removes a reminder, simulating an external edit.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reminders, id)
}

// SetEmail registers the recipient for an owner.
func (s *MemoryStore) SetEmail(ownerID int64, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[ownerID] = email
}

// AddTask seeds a task for TaskLookup.
func (s *MemoryStore) AddTask(t reminder.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

// FailInserts makes InsertReminder return err (nil clears it).
func (s *MemoryStore) FailInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
}

// FailLists makes ListForOwner return err (nil clears it).
func (s *MemoryStore) FailLists(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailLookups makes EmailForOwner return err (nil clears it).
func (s *MemoryStore) FailLookups(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupErr = err
}

// InsertCalls returns how many times InsertReminder was called.
func (s *MemoryStore) InsertCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCalls
}

// ListCalls returns how many times ListForOwner was called.
func (s *MemoryStore) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// Dispatched reports whether MarkDispatched was called for id.
func (s *MemoryStore) Dispatched(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dispatched[id]
	return ok
}

func (s *MemoryStore) insertLocked(r reminder.Reminder) int64 {
	s.nextID++
	r.ID = s.nextID
	s.reminders[r.ID] = r
	return r.ID
}
