package priority

import (
	"strings"
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/types"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewEngine(s), s
}

func createTask(t *testing.T, s *store.Store, task types.Task) *types.Task {
	t.Helper()
	if task.ListID == "" {
		def, err := s.DefaultList()
		if err != nil {
			t.Fatal(err)
		}
		task.ListID = def.ID
	}
	created, err := s.CreateTask(task)
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func intp(v int) *int { return &v }

func TestStrategies_Catalogue(t *testing.T) {
	catalogue := Strategies()
	if len(catalogue) != 5 {
		t.Fatalf("expected 5 strategies, got %d", len(catalogue))
	}
	wantNames := []string{"balanced", "urgent-first", "quick-wins", "high-impact", "eisenhower"}
	for i, name := range wantNames {
		s := catalogue[i]
		if s.Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, s.Name)
		}
		if s.Label == "" || s.Description == "" || s.Guidance == "" {
			t.Errorf("strategy %q missing metadata", s.Name)
		}
		if !strings.Contains(s.Guidance, "tier") {
			t.Errorf("strategy %q guidance should explain tiers", s.Name)
		}
	}
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("quick-wins")
	if err != nil {
		t.Fatal(err)
	}
	if s.Label != "Quick wins" {
		t.Errorf("wrong strategy returned: %+v", s)
	}

	if _, err := StrategyByName("vibes"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestEngine_Start(t *testing.T) {
	e, s := newTestEngine(t)
	def, _ := s.DefaultList()

	createTask(t, s, types.Task{Title: "open"})
	done := createTask(t, s, types.Task{Title: "done"})
	if _, err := s.CompleteTask(done.ID, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	goal, err := s.CreateGoal(types.Goal{Name: "Focus", Timeframe: types.TimeframeWeekly})
	if err != nil {
		t.Fatal(err)
	}

	session, err := e.Start(def.ID, "balanced", []string{goal.ID})
	if err != nil {
		t.Fatal(err)
	}
	if session.Strategy.Name != "balanced" {
		t.Errorf("wrong strategy: %+v", session.Strategy)
	}
	if len(session.Tasks) != 1 || session.Tasks[0].Title != "open" {
		t.Errorf("completed tasks should be excluded: %+v", session.Tasks)
	}
	if len(session.FocusGoals) != 1 || session.FocusGoals[0].ID != goal.ID {
		t.Errorf("focus goal missing: %+v", session.FocusGoals)
	}
}

func TestEngine_Start_UnknownStrategy(t *testing.T) {
	e, s := newTestEngine(t)
	def, _ := s.DefaultList()

	if _, err := e.Start(def.ID, "vibes", nil); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestEngine_Apply_PartialBatch(t *testing.T) {
	e, s := newTestEngine(t)

	a := createTask(t, s, types.Task{Title: "a"})
	b := createTask(t, s, types.Task{Title: "b"})

	reasoning := "high urgency, small task"
	result, err := e.Apply([]Decision{
		{TaskID: a.ID, Tier: intp(1), Urgency: intp(5), Effort: intp(1), Reasoning: &reasoning},
		{TaskID: "deadbeefdeadbeefdeadbeefdeadbeef", Tier: intp(2)},
		{TaskID: b.ID, Tier: intp(3)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Updated) != 2 {
		t.Errorf("expected 2 updated, got %v", result.Updated)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "deadbeefdeadbeefdeadbeefdeadbeef" {
		t.Errorf("expected the missing ID reported, got %v", result.Failed)
	}

	got, err := s.GetTask(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PriorityTier == nil || *got.PriorityTier != 1 {
		t.Errorf("tier not persisted: %+v", got.PriorityTier)
	}
	if got.PriorityReasoning != reasoning {
		t.Errorf("reasoning not persisted: %q", got.PriorityReasoning)
	}
	if got.PrioritizedAt == nil {
		t.Error("prioritized_at should be stamped")
	}
}

func TestEngine_Apply_RejectsBadInput(t *testing.T) {
	e, s := newTestEngine(t)
	a := createTask(t, s, types.Task{Title: "a"})

	if _, err := e.Apply([]Decision{{TaskID: ""}}); err == nil {
		t.Error("expected error for missing task_id")
	}
	if _, err := e.Apply([]Decision{{TaskID: a.ID, Impact: intp(9)}}); err == nil {
		t.Error("expected error for out-of-range impact")
	}
}

func TestEngine_Summarize(t *testing.T) {
	e, s := newTestEngine(t)
	today := "2026-08-31"

	createTask(t, s, types.Task{Title: "quick win", Effort: intp(1), Impact: intp(5), PriorityTier: intp(1)})
	createTask(t, s, types.Task{Title: "big bet", Effort: intp(5), Impact: intp(5), PriorityTier: intp(2)})
	createTask(t, s, types.Task{Title: "unsized bet", Impact: intp(5), PriorityTier: intp(2)})
	createTask(t, s, types.Task{Title: "overdue", DueDate: "2026-08-29"})
	createTask(t, s, types.Task{Title: "due today", DueDate: today, PriorityTier: intp(1)})
	createTask(t, s, types.Task{Title: "unranked"})

	summary, err := e.Summarize(nil, today)
	if err != nil {
		t.Fatal(err)
	}

	if summary.TierCounts[1] != 2 || summary.TierCounts[2] != 2 {
		t.Errorf("tier counts wrong: %v", summary.TierCounts)
	}
	if summary.Unranked != 2 {
		t.Errorf("expected 2 unranked, got %d", summary.Unranked)
	}
	if summary.Overdue != 1 || summary.DueToday != 1 {
		t.Errorf("date counts wrong: overdue=%d dueToday=%d", summary.Overdue, summary.DueToday)
	}
	if len(summary.QuickWins) != 1 || summary.QuickWins[0].Title != "quick win" {
		t.Errorf("quick wins wrong: %+v", summary.QuickWins)
	}
	if len(summary.HighImpact) != 3 {
		t.Errorf("expected all impact-5 tasks, got %+v", summary.HighImpact)
	}
	if summary.HighImpact[0].Title != "quick win" {
		t.Errorf("lower effort should rank first within equal impact: %+v", summary.HighImpact[0])
	}
	if summary.HighImpact[2].Title != "unsized bet" {
		t.Errorf("effort-less task should still appear, sorted last: %+v", summary.HighImpact)
	}
	if summary.EffortHistogram[1] != 1 || summary.EffortHistogram[5] != 1 {
		t.Errorf("effort histogram wrong: %v", summary.EffortHistogram)
	}
}

func TestEngine_Summarize_ScopedToLists(t *testing.T) {
	e, s := newTestEngine(t)

	work, err := s.CreateList(types.List{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	createTask(t, s, types.Task{ListID: work.ID, Title: "in scope", PriorityTier: intp(1)})
	createTask(t, s, types.Task{Title: "out of scope", PriorityTier: intp(1)}) // default list

	summary, err := e.Summarize([]string{work.ID}, "2026-08-31")
	if err != nil {
		t.Fatal(err)
	}
	if summary.TierCounts[1] != 1 {
		t.Errorf("expected only the scoped list counted, got %v", summary.TierCounts)
	}
}
