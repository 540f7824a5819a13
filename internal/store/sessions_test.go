package store

import (
	"errors"
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/types"
)

func TestStore_StartFocusSession(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "focus target"})

	session, err := s.StartFocusSession(task.ID, 25)
	if err != nil {
		t.Fatal(err)
	}
	if session.ID == "" || session.PlannedMinutes != 25 {
		t.Errorf("session not initialized: %+v", session)
	}

	active, err := s.ActiveFocusSession()
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != session.ID {
		t.Errorf("expected the running session, got %+v", active)
	}
}

func TestStore_StartFocusSession_OneAtATime(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "t"})

	if _, err := s.StartFocusSession(task.ID, 25); err != nil {
		t.Fatal(err)
	}
	_, err := s.StartFocusSession(task.ID, 25)
	if !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}
}

func TestStore_FinishFocusSession(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "t"})

	session, err := s.StartFocusSession(task.ID, 25)
	if err != nil {
		t.Fatal(err)
	}

	finished, err := s.FinishFocusSession(session.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if finished.EndedAt == nil || !finished.Completed {
		t.Errorf("finish not recorded: %+v", finished)
	}

	// Finishing again fails: the session is no longer running.
	if _, err := s.FinishFocusSession(session.ID, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a finished session, got %v", err)
	}

	active, err := s.ActiveFocusSession()
	if err != nil {
		t.Fatal(err)
	}
	if active != nil {
		t.Errorf("no session should be running, got %+v", active)
	}
}

func TestStore_FocusMinutesOn(t *testing.T) {
	s := newTestStore(t)
	task := mustCreateTask(t, s, types.Task{Title: "t"})

	for _, run := range []struct {
		minutes   int
		completed bool
	}{
		{25, true},
		{50, true},
		{25, false}, // abandoned, should not count
	} {
		session, err := s.StartFocusSession(task.ID, run.minutes)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.FinishFocusSession(session.ID, run.completed); err != nil {
			t.Fatal(err)
		}
	}

	today := time.Now().UTC().Format(DateLayout)
	minutes, err := s.FocusMinutesOn(today)
	if err != nil {
		t.Fatal(err)
	}
	if minutes != 75 {
		t.Errorf("expected 75 completed minutes, got %d", minutes)
	}

	minutes, err = s.FocusMinutesOn("1999-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if minutes != 0 {
		t.Errorf("expected 0 minutes on an empty day, got %d", minutes)
	}
}
