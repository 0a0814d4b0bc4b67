package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestUser inserts a user and returns its ID.
func createTestUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.InsertUser(context.Background(), email, "Test User")
	if err != nil {
		t.Fatalf("InsertUser() failed: %v", err)
	}
	return id
}

// testReminder creates a reminder with minimal required fields.
func testReminder(ownerID int64, title string, at time.Time) reminder.Reminder {
	return reminder.Reminder{
		OwnerID:     ownerID,
		Title:       title,
		TriggerTime: at,
	}
}
