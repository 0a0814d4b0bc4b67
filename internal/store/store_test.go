package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesFileAndTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanza.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	for _, table := range []string{"users", "financial_tasks", "reminders"} {
		if !hasObject(t, s, "table", table) {
			t.Errorf("table %q missing", table)
		}
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanza.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	owner := createTestUser(t, s, "owner@example.com")
	if _, err := s.InsertReminder(ctx, testReminder(owner, "Pay rent", testEpoch)); err != nil {
		t.Fatalf("InsertReminder() failed: %v", err)
	}
	s.Close()

	for i := 0; i < 2; i++ {
		s, err = Open(path)
		if err != nil {
			t.Fatalf("reopen %d failed: %v", i, err)
		}
		got, err := s.ListForOwner(ctx, owner)
		if err != nil {
			t.Fatalf("ListForOwner() failed: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Pay rent" {
			t.Errorf("reopen %d: got %+v, want the one saved reminder", i, got)
		}
		s.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "balanza.db")); err == nil {
		t.Error("expected error for a path in a missing directory")
	}
}

func TestClose(t *testing.T) {
	if err := (&Store{}).Close(); err != nil {
		t.Errorf("Close() on zero Store: %v", err)
	}

	s := createTestStore(t)
	if err := s.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	_ = s.Close() // second close must not panic
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			got, err := s.pragma(tt.pragma)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.pragma, got, tt.want)
			}
		})
	}
}

func TestSchema_RemindersColumns(t *testing.T) {
	s := createTestStore(t)

	rows, err := s.db.Query("SELECT name FROM pragma_table_info('reminders')")
	if err != nil {
		t.Fatalf("table_info failed: %v", err)
	}
	defer rows.Close()

	got := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got[name] = true
	}

	for _, col := range []string{"id", "user_id", "title", "description", "trigger_time", "task_id", "dispatched_at", "created_at"} {
		if !got[col] {
			t.Errorf("reminders column %q missing", col)
		}
	}
}

func TestConstraint_ReminderRequiresExistingUser(t *testing.T) {
	s := createTestStore(t)

	_, err := s.InsertReminder(context.Background(), testReminder(999, "Orphan", testEpoch))
	if err == nil {
		t.Error("expected foreign key error for unknown user, got nil")
	}
}

func TestConstraint_UserEmailUnique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertUser(ctx, "dup@example.com", "first"); err != nil {
		t.Fatalf("first InsertUser() failed: %v", err)
	}
	if _, err := s.InsertUser(ctx, "dup@example.com", "second"); err == nil {
		t.Error("expected unique constraint error, got nil")
	}
}

func TestMigrations_FreshDatabaseAtCurrentVersion(t *testing.T) {
	s := createTestStore(t)

	assertVersion(t, s, "2")
	for _, idx := range []string{"idx_reminders_owner_pending", "idx_reminders_dispatched"} {
		if !hasObject(t, s, "index", idx) {
			t.Errorf("index %q missing", idx)
		}
	}
}

func TestMigrations_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanza.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Simulate a database created before any migration.
	for _, stmt := range []string{
		"DROP INDEX idx_reminders_owner_pending",
		"DROP INDEX idx_reminders_dispatched",
		"PRAGMA user_version = 0",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	assertVersion(t, s, "2")
	if !hasObject(t, s, "index", "idx_reminders_owner_pending") {
		t.Error("v1 index not recreated")
	}
	if !hasObject(t, s, "index", "idx_reminders_dispatched") {
		t.Error("v2 index not recreated")
	}
}

func TestMigrations_ResumeFromV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balanza.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("DROP INDEX idx_reminders_dispatched"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	assertVersion(t, s, "2")
	if !hasObject(t, s, "index", "idx_reminders_dispatched") {
		t.Error("v2 index not created on resume")
	}
}

func hasObject(t *testing.T, s *Store, kind, name string) bool {
	t.Helper()
	var n int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
	).Scan(&n); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n == 1
}

func assertVersion(t *testing.T, s *Store, want string) {
	t.Helper()
	got, err := s.pragma("user_version")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("user_version = %s, want %s", got, want)
	}
}
