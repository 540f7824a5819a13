package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/types"
)

func TestWorkflows_StartAndNavigate(t *testing.T) {
	p, _ := newTestPlanner(t)
	w := NewWorkflows(p)

	wf, err := w.Start([]string{"2026-09-01"})
	if err != nil {
		t.Fatal(err)
	}
	if wf.Step != StepReview {
		t.Errorf("expected to start at review, got %q", wf.Step)
	}
	if wf.TargetDate != "2026-09-01" {
		t.Errorf("wrong target date: %q", wf.TargetDate)
	}

	// Free navigation, including backward.
	wf, err = w.Navigate(wf.ID, StepSchedule)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Step != StepSchedule {
		t.Errorf("navigate failed: %q", wf.Step)
	}
	wf, err = w.Navigate(wf.ID, StepReview)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Step != StepReview {
		t.Errorf("backward navigation failed: %q", wf.Step)
	}

	if _, err := w.Navigate(wf.ID, Step("celebrate")); err == nil {
		t.Error("expected rejection of an unknown step")
	}
}

func TestWorkflows_Start_Validation(t *testing.T) {
	p, _ := newTestPlanner(t)
	w := NewWorkflows(p)

	if _, err := w.Start(nil); err == nil {
		t.Error("expected error for empty date batch")
	}
	if _, err := w.Start([]string{"someday"}); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestWorkflows_Review(t *testing.T) {
	p, s := newTestPlanner(t)
	w := NewWorkflows(p)

	done := createTask(t, s, types.Task{Title: "done yesterday", DueDate: "2026-08-31"})
	at := time.Date(2026, 8, 31, 16, 0, 0, 0, time.UTC)
	if _, err := s.CompleteTask(done.ID, at); err != nil {
		t.Fatal(err)
	}
	createTask(t, s, types.Task{Title: "slipped", DueDate: "2026-08-31"})

	wf, err := w.Start([]string{"2026-09-01"})
	if err != nil {
		t.Fatal(err)
	}

	review, err := w.Review(wf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if review.Date != "2026-08-31" {
		t.Errorf("review should look at the previous day, got %q", review.Date)
	}
	if len(review.Completed) != 1 || review.Completed[0].Title != "done yesterday" {
		t.Errorf("completed list wrong: %+v", review.Completed)
	}
	if len(review.Incomplete) != 1 || review.Incomplete[0].Title != "slipped" {
		t.Errorf("incomplete list wrong: %+v", review.Incomplete)
	}
}

func TestWorkflows_ResolveReviewTask(t *testing.T) {
	p, s := newTestPlanner(t)
	w := NewWorkflows(p)

	wf, err := w.Start([]string{"2026-09-01"})
	if err != nil {
		t.Fatal(err)
	}

	moved := createTask(t, s, types.Task{Title: "carry over", DueDate: "2026-08-31"})
	task, err := w.ResolveReviewTask(wf.ID, moved.ID, ReviewReschedule)
	if err != nil {
		t.Fatal(err)
	}
	if task.DueDate != "2026-09-01" {
		t.Errorf("reschedule should move to the target date, got %q", task.DueDate)
	}

	dropped := createTask(t, s, types.Task{Title: "let it go", DueDate: "2026-08-31", DueTime: "14:00"})
	task, err = w.ResolveReviewTask(wf.ID, dropped.ID, ReviewDefer)
	if err != nil {
		t.Fatal(err)
	}
	if task.DueDate != "" || task.DueTime != "" {
		t.Errorf("defer should clear the due date, got %q %q", task.DueDate, task.DueTime)
	}

	late := createTask(t, s, types.Task{Title: "actually finished", DueDate: "2026-08-31"})
	task, err = w.ResolveReviewTask(wf.ID, late.ID, ReviewComplete)
	if err != nil {
		t.Fatal(err)
	}
	if !task.Completed {
		t.Error("complete should mark the task done")
	}

	if _, err := w.ResolveReviewTask(wf.ID, moved.ID, "snooze"); err == nil {
		t.Error("expected rejection of an unknown action")
	}
	if _, err := w.ResolveReviewTask("01ARZ3NDEKTSV4RRFFQ69G5FAV", moved.ID, ReviewDefer); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
}

func TestWorkflows_ChooseTasks_Capacity(t *testing.T) {
	p, s := newTestPlanner(t)
	w := NewWorkflows(p)

	est := 7 * 60
	big := createTask(t, s, types.Task{Title: "big", EstimatedMinutes: &est})

	wf, err := w.Start([]string{"2026-09-01"})
	if err != nil {
		t.Fatal(err)
	}

	capacity, err := w.ChooseTasks(wf.ID, []string{big.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !capacity.OverCommitted {
		t.Errorf("7h of 8h should warn: %+v", capacity)
	}

	wf, err = w.Get(wf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(wf.ChosenTasks) != 1 || wf.ChosenTasks[0] != big.ID {
		t.Errorf("selection not recorded: %v", wf.ChosenTasks)
	}
}

func TestWorkflows_FinishDay_SingleDay(t *testing.T) {
	p, s := newTestPlanner(t)
	w := NewWorkflows(p)

	wf, err := w.Start([]string{"2026-09-01"})
	if err != nil {
		t.Fatal(err)
	}

	wf, err = w.FinishDay(wf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !wf.Done {
		t.Error("single-day session should close after finishing")
	}

	planned, err := s.DayPlanned("2026-09-01")
	if err != nil {
		t.Fatal(err)
	}
	if !planned {
		t.Error("finished day should be recorded as planned")
	}
}

func TestWorkflows_FinishDay_WeekModeAdvances(t *testing.T) {
	p, s := newTestPlanner(t)
	w := NewWorkflows(p)

	dates := []string{"2026-09-01", "2026-09-02", "2026-09-03"}
	wf, err := w.Start(dates)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := w.Navigate(wf.ID, StepConfirm); err != nil {
		t.Fatal(err)
	}
	wf, err = w.FinishDay(wf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.Done {
		t.Error("batch should stay open with days remaining")
	}
	if wf.TargetDate != "2026-09-02" {
		t.Errorf("expected advance to the next day, got %q", wf.TargetDate)
	}
	if wf.Step != StepReview {
		t.Errorf("expected reset to review, got %q", wf.Step)
	}
	if !wf.DaysDone["2026-09-01"] {
		t.Error("finished day should be remembered")
	}

	for range dates[1:] {
		wf, err = w.FinishDay(wf.ID)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !wf.Done {
		t.Error("session should close after the last day")
	}
	for _, d := range dates {
		planned, err := s.DayPlanned(d)
		if err != nil {
			t.Fatal(err)
		}
		if !planned {
			t.Errorf("day %s should be planned", d)
		}
	}
}

func TestWorkflows_UnknownSession(t *testing.T) {
	p, _ := newTestPlanner(t)
	w := NewWorkflows(p)

	if _, err := w.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
	if _, err := w.FinishDay("01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("expected ErrWorkflowNotFound, got %v", err)
	}
}
