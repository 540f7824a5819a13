package analytics

import (
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/types"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func completeOn(t *testing.T, s *store.Store, day time.Time) {
	t.Helper()
	def, err := s.DefaultList()
	if err != nil {
		t.Fatal(err)
	}
	task, err := s.CreateTask(types.Task{ListID: def.ID, Title: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteTask(task.ID, day); err != nil {
		t.Fatal(err)
	}
}

func TestAggregator_Today(t *testing.T) {
	a, s := newTestAggregator(t)
	def, _ := s.DefaultList()
	today := testNow.Format("2006-01-02")

	tier := 1
	dueDone, err := s.CreateTask(types.Task{ListID: def.ID, Title: "due and done", DueDate: today, PriorityTier: &tier})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteTask(dueDone.ID, testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTask(types.Task{ListID: def.ID, Title: "due open", DueDate: today}); err != nil {
		t.Fatal(err)
	}

	// A completion not due today counts toward completed, not the rate.
	completeOn(t, s, testNow)

	summary, err := a.Today(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if summary.CompletedCount != 2 {
		t.Errorf("expected 2 completions, got %d", summary.CompletedCount)
	}
	if summary.DueCount != 2 {
		t.Errorf("expected 2 due, got %d", summary.DueCount)
	}
	if summary.CompletionRate != 0.5 {
		t.Errorf("expected rate 0.5, got %v", summary.CompletionRate)
	}
	if summary.DueTierCounts[1] != 1 {
		t.Errorf("tier counts wrong: %v", summary.DueTierCounts)
	}
}

func TestAggregator_Today_NothingDue(t *testing.T) {
	a, _ := newTestAggregator(t)

	summary, err := a.Today(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if summary.CompletionRate != 0 {
		t.Errorf("rate with nothing due must be 0, got %v", summary.CompletionRate)
	}
	if summary.DueCount != 0 || summary.CompletedCount != 0 {
		t.Errorf("empty day should be all zeroes: %+v", summary)
	}
}

func TestAggregator_WeeklyTrend(t *testing.T) {
	a, s := newTestAggregator(t)

	completeOn(t, s, testNow)                  // today
	completeOn(t, s, testNow)                  // today again
	completeOn(t, s, testNow.AddDate(0, 0, -2))
	completeOn(t, s, testNow.AddDate(0, 0, -7)) // outside the window

	trend, err := a.WeeklyTrend(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(trend) != 7 {
		t.Fatalf("expected 7 days, got %d", len(trend))
	}
	if trend[0].Date != "2026-08-25" || trend[6].Date != "2026-08-31" {
		t.Errorf("window wrong: %s .. %s", trend[0].Date, trend[6].Date)
	}
	if trend[6].Completed != 2 {
		t.Errorf("expected 2 completions today, got %d", trend[6].Completed)
	}
	if trend[4].Completed != 1 {
		t.Errorf("expected 1 completion two days back, got %d", trend[4].Completed)
	}
	if trend[6].Weekday != "Mon" {
		t.Errorf("2026-08-31 is a Monday, got %q", trend[6].Weekday)
	}
}

func TestAggregator_Streaks_Current(t *testing.T) {
	a, s := newTestAggregator(t)

	// today, -1, -2 with a gap at -3.
	for _, offset := range []int{0, -1, -2, -4} {
		completeOn(t, s, testNow.AddDate(0, 0, offset))
	}

	streaks, err := a.Streaks(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if streaks.Current != 3 {
		t.Errorf("expected current streak 3, got %d", streaks.Current)
	}
}

func TestAggregator_Streaks_AnchorsOnYesterday(t *testing.T) {
	a, s := newTestAggregator(t)

	// Nothing today, but yesterday and the day before count.
	completeOn(t, s, testNow.AddDate(0, 0, -1))
	completeOn(t, s, testNow.AddDate(0, 0, -2))

	streaks, err := a.Streaks(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if streaks.Current != 2 {
		t.Errorf("expected streak 2 anchored on yesterday, got %d", streaks.Current)
	}
}

func TestAggregator_Streaks_BrokenStreak(t *testing.T) {
	a, s := newTestAggregator(t)

	// Completions only at -2 and -3: neither today nor yesterday.
	completeOn(t, s, testNow.AddDate(0, 0, -2))
	completeOn(t, s, testNow.AddDate(0, 0, -3))

	streaks, err := a.Streaks(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if streaks.Current != 0 {
		t.Errorf("expected current streak 0, got %d", streaks.Current)
	}
	if streaks.Longest != 2 {
		t.Errorf("expected longest streak 2, got %d", streaks.Longest)
	}
}

func TestAggregator_Streaks_Longest(t *testing.T) {
	a, s := newTestAggregator(t)

	// Two separate 4-day runs with a gap between them.
	for _, offset := range []int{-10, -11, -12, -13, -20, -21, -22, -23} {
		completeOn(t, s, testNow.AddDate(0, 0, offset))
	}

	streaks, err := a.Streaks(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if streaks.Longest != 4 {
		t.Errorf("expected longest streak 4, got %d", streaks.Longest)
	}
	if streaks.Current != 0 {
		t.Errorf("expected current streak 0, got %d", streaks.Current)
	}
}

func TestAggregator_Streaks_Empty(t *testing.T) {
	a, _ := newTestAggregator(t)

	streaks, err := a.Streaks(testNow)
	if err != nil {
		t.Fatal(err)
	}
	if streaks.Current != 0 || streaks.Longest != 0 {
		t.Errorf("empty history should be zero streaks: %+v", streaks)
	}
}
