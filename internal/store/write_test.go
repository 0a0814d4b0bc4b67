package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/balanza/internal/reminder"
)

func TestInsertReminder_AssignsIncreasingIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "a@example.com")

	id1, err := s.InsertReminder(ctx, testReminder(owner, "First", testEpoch))
	if err != nil {
		t.Fatalf("InsertReminder() failed: %v", err)
	}
	id2, err := s.InsertReminder(ctx, testReminder(owner, "Second", testEpoch))
	if err != nil {
		t.Fatalf("InsertReminder() failed: %v", err)
	}

	if id1 <= 0 || id2 <= id1 {
		t.Errorf("ids = %d, %d; want positive and increasing", id1, id2)
	}
}

func TestInsertReminder_RoundTripsFields(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "a@example.com")
	taskID, err := s.InsertTask(ctx, reminder.Task{OwnerID: owner, Title: "Rent", DueDate: testEpoch, Amount: decimal.RequireFromString("1200.50")})
	if err != nil {
		t.Fatalf("InsertTask() failed: %v", err)
	}

	in := testReminder(owner, "Pay rent", testEpoch.Add(1500*time.Millisecond))
	in.Description = "Transfer to landlord"
	in.TaskID = &taskID

	id, err := s.InsertReminder(ctx, in)
	if err != nil {
		t.Fatalf("InsertReminder() failed: %v", err)
	}

	got, err := s.GetReminder(ctx, id)
	if err != nil {
		t.Fatalf("GetReminder() failed: %v", err)
	}
	if got.Title != in.Title || got.Description != in.Description || got.OwnerID != owner {
		t.Errorf("got %+v, want fields of %+v", got, in)
	}
	if !got.TriggerTime.Equal(in.TriggerTime) {
		t.Errorf("TriggerTime = %v, want %v", got.TriggerTime, in.TriggerTime)
	}
	if got.TaskID == nil || *got.TaskID != taskID {
		t.Errorf("TaskID = %v, want %d", got.TaskID, taskID)
	}
}

func TestUpdateReminder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "a@example.com")
	id, _ := s.InsertReminder(ctx, testReminder(owner, "Old title", testEpoch))
	if err := s.MarkDispatched(ctx, id, testEpoch); err != nil {
		t.Fatalf("MarkDispatched() failed: %v", err)
	}

	updated := testReminder(owner, "New title", testEpoch.Add(time.Hour))
	updated.ID = id
	if err := s.UpdateReminder(ctx, updated); err != nil {
		t.Fatalf("UpdateReminder() failed: %v", err)
	}

	got, _ := s.GetReminder(ctx, id)
	if got.Title != "New title" || !got.TriggerTime.Equal(testEpoch.Add(time.Hour)) {
		t.Errorf("update not applied: %+v", got)
	}
	dispatched, _ := s.IsDispatched(ctx, id)
	if dispatched {
		t.Error("rescheduled reminder should be pending again")
	}
}

func TestUpdateReminder_NotFound(t *testing.T) {
	s := createTestStore(t)

	err := s.UpdateReminder(context.Background(), reminder.Reminder{ID: 404, Title: "x", TriggerTime: testEpoch})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteReminder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "a@example.com")
	id, _ := s.InsertReminder(ctx, testReminder(owner, "Gone soon", testEpoch))

	if err := s.DeleteReminder(ctx, id); err != nil {
		t.Fatalf("DeleteReminder() failed: %v", err)
	}
	if _, err := s.GetReminder(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReminder after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteReminder(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestMarkDispatched_KeepsFirstTimestamp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "a@example.com")
	id, _ := s.InsertReminder(ctx, testReminder(owner, "Once", testEpoch))

	if err := s.MarkDispatched(ctx, id, testEpoch); err != nil {
		t.Fatalf("MarkDispatched() failed: %v", err)
	}
	if err := s.MarkDispatched(ctx, id, testEpoch.Add(time.Hour)); err != nil {
		t.Fatalf("second MarkDispatched() failed: %v", err)
	}

	var at int64
	if err := s.db.QueryRow("SELECT dispatched_at FROM reminders WHERE id = ?", id).Scan(&at); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !unmarshalTime(at).Equal(testEpoch) {
		t.Errorf("dispatched_at = %v, want %v", unmarshalTime(at), testEpoch)
	}
	if err := s.MarkDispatched(ctx, 999, testEpoch); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestPruneDispatched(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "a@example.com")

	old, _ := s.InsertReminder(ctx, testReminder(owner, "Old", testEpoch))
	recent, _ := s.InsertReminder(ctx, testReminder(owner, "Recent", testEpoch))
	pending, _ := s.InsertReminder(ctx, testReminder(owner, "Pending", testEpoch))
	_ = s.MarkDispatched(ctx, old, testEpoch.Add(-48*time.Hour))
	_ = s.MarkDispatched(ctx, recent, testEpoch)

	n, err := s.PruneDispatched(ctx, testEpoch.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneDispatched() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}
	if _, err := s.GetReminder(ctx, old); !errors.Is(err, ErrNotFound) {
		t.Error("old dispatched reminder should be pruned")
	}
	for _, id := range []int64{recent, pending} {
		if _, err := s.GetReminder(ctx, id); err != nil {
			t.Errorf("reminder %d should survive prune: %v", id, err)
		}
	}
}

func TestInsertTask_RejectsUnknownStatus(t *testing.T) {
	s := createTestStore(t)
	owner := createTestUser(t, s, "a@example.com")

	_, err := s.InsertTask(context.Background(), reminder.Task{OwnerID: owner, Title: "Odd", Status: "LOST"})
	if err == nil {
		t.Error("expected invalid status error, got nil")
	}
}
