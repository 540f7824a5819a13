package store

import (
	"errors"
	"testing"

	"github.com/daybookapp/daybook/internal/types"
)

func TestStore_PlaceTasks(t *testing.T) {
	s := newTestStore(t)

	a := mustCreateTask(t, s, types.Task{Title: "a"})
	b := mustCreateTask(t, s, types.Task{Title: "b"})

	err := s.PlaceTasks([]Placement{
		{TaskID: a.ID, DueDate: "2026-09-01", DueTime: "09:00", EstimatedMinutes: 30},
		{TaskID: b.ID, DueDate: "2026-09-01", DueTime: "09:30", EstimatedMinutes: 60},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTask(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DueDate != "2026-09-01" || got.DueTime != "09:30" {
		t.Errorf("placement not applied: %+v", got)
	}
	if got.EstimatedMinutes == nil || *got.EstimatedMinutes != 60 {
		t.Error("estimate not applied")
	}
}

func TestStore_PlaceTasks_WholeBatchRollsBack(t *testing.T) {
	s := newTestStore(t)

	a := mustCreateTask(t, s, types.Task{Title: "a"})

	err := s.PlaceTasks([]Placement{
		{TaskID: a.ID, DueDate: "2026-09-01", DueTime: "09:00", EstimatedMinutes: 30},
		{TaskID: "deadbeefdeadbeefdeadbeefdeadbeef", DueDate: "2026-09-01", DueTime: "10:00", EstimatedMinutes: 30},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// The first placement must have rolled back with the batch.
	got, err := s.GetTask(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DueTime != "" || got.DueDate != "" {
		t.Errorf("first task placed despite failed batch: %+v", got)
	}
}

func TestStore_ClearDueTime_KeepsDate(t *testing.T) {
	s := newTestStore(t)

	task := mustCreateTask(t, s, types.Task{Title: "a", DueDate: "2026-09-01", DueTime: "09:00"})
	if err := s.ClearDueTime(task.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DueTime != "" {
		t.Errorf("due time not cleared: %q", got.DueTime)
	}
	if got.DueDate != "2026-09-01" {
		t.Errorf("due date should survive unscheduling: %q", got.DueDate)
	}
}

func TestStore_ApplyPriorityUpdates_PartialCommit(t *testing.T) {
	s := newTestStore(t)

	a := mustCreateTask(t, s, types.Task{Title: "a"})
	b := mustCreateTask(t, s, types.Task{Title: "b"})

	tier1, tier3 := 1, 3
	effort := 2
	updated, failed, err := s.ApplyPriorityUpdates([]PriorityUpdate{
		{TaskID: a.ID, Tier: &tier1, Effort: &effort},
		{TaskID: "deadbeefdeadbeefdeadbeefdeadbeef", Tier: &tier3},
		{TaskID: b.ID, Tier: &tier3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated) != 2 {
		t.Errorf("expected 2 updates applied, got %v", updated)
	}
	if len(failed) != 1 || failed[0] != "deadbeefdeadbeefdeadbeefdeadbeef" {
		t.Errorf("expected the missing ID in failed, got %v", failed)
	}

	got, err := s.GetTask(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PriorityTier == nil || *got.PriorityTier != 1 {
		t.Errorf("tier not persisted: %+v", got.PriorityTier)
	}
	if got.Effort == nil || *got.Effort != 2 {
		t.Errorf("effort not persisted: %+v", got.Effort)
	}
	if got.PrioritizedAt == nil {
		t.Error("expected prioritized_at stamp")
	}

	got, err = s.GetTask(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PriorityTier == nil || *got.PriorityTier != 3 {
		t.Error("update after the failed row should still commit")
	}
}

func TestStore_ApplyPriorityUpdates_RejectsBadScores(t *testing.T) {
	s := newTestStore(t)
	a := mustCreateTask(t, s, types.Task{Title: "a"})

	bad := 9
	_, _, err := s.ApplyPriorityUpdates([]PriorityUpdate{{TaskID: a.ID, Impact: &bad}})
	if err == nil {
		t.Fatal("expected validation error for impact 9")
	}
}

func TestStore_DayPlanned(t *testing.T) {
	s := newTestStore(t)

	planned, err := s.DayPlanned("2026-09-01")
	if err != nil {
		t.Fatal(err)
	}
	if planned {
		t.Error("fresh day should not be planned")
	}

	if err := s.MarkDayPlanned("2026-09-01"); err != nil {
		t.Fatal(err)
	}
	// Re-planning the same day is an upsert, not an error.
	if err := s.MarkDayPlanned("2026-09-01"); err != nil {
		t.Fatal(err)
	}

	planned, err = s.DayPlanned("2026-09-01")
	if err != nil {
		t.Fatal(err)
	}
	if !planned {
		t.Error("expected day to be planned")
	}
}
