package priority

import (
	"fmt"
	"sort"

	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/types"
)

// Engine runs the two-phase prioritization flow: fetch tasks with
// strategy context, then persist the caller's decisions.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Session is the first phase's payload: the tasks to rank, the chosen
// strategy, and any goals the caller wants the ranking to serve.
type Session struct {
	Strategy   Strategy     `json:"strategy"`
	Tasks      []types.Task `json:"tasks"`
	FocusGoals []types.Goal `json:"focus_goals,omitempty"`
}

// Start loads a list's incomplete tasks together with strategy
// metadata. goalIDs optionally narrows the ranking's focus.
func (e *Engine) Start(listID, strategyName string, goalIDs []string) (*Session, error) {
	strategy, err := StrategyByName(strategyName)
	if err != nil {
		return nil, err
	}

	tasks, err := e.store.TasksByList(listID, false)
	if err != nil {
		return nil, err
	}

	session := &Session{Strategy: *strategy, Tasks: tasks}
	for _, goalID := range goalIDs {
		goal, err := e.store.GetGoal(goalID)
		if err != nil {
			return nil, err
		}
		session.FocusGoals = append(session.FocusGoals, *goal)
	}
	return session, nil
}

// Decision is one task's ranking outcome from the caller.
type Decision struct {
	TaskID     string  `json:"task_id"`
	Effort     *int    `json:"effort,omitempty"`
	Impact     *int    `json:"impact,omitempty"`
	Urgency    *int    `json:"urgency,omitempty"`
	Importance *int    `json:"importance,omitempty"`
	Tier       *int    `json:"tier,omitempty"`
	Reasoning  *string `json:"reasoning,omitempty"`
}

// ApplyResult reports the batch outcome: which tasks persisted and
// which no longer existed.
type ApplyResult struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// Apply persists a batch of decisions. Missing tasks are collected into
// Failed while the rest commit; out-of-range scores reject the whole
// batch before any write.
func (e *Engine) Apply(decisions []Decision) (*ApplyResult, error) {
	updates := make([]store.PriorityUpdate, 0, len(decisions))
	for _, d := range decisions {
		if d.TaskID == "" {
			return nil, fmt.Errorf("decision missing task_id")
		}
		updates = append(updates, store.PriorityUpdate{
			TaskID:     d.TaskID,
			Effort:     d.Effort,
			Impact:     d.Impact,
			Urgency:    d.Urgency,
			Importance: d.Importance,
			Tier:       d.Tier,
			Reasoning:  d.Reasoning,
		})
	}

	updated, failed, err := e.store.ApplyPriorityUpdates(updates)
	if err != nil {
		return nil, err
	}
	return &ApplyResult{Updated: updated, Failed: failed}, nil
}

// Summary aggregates priority state across lists.
type Summary struct {
	TierCounts      map[int]int  `json:"tier_counts"`
	Unranked        int          `json:"unranked"`
	Overdue         int          `json:"overdue"`
	DueToday        int          `json:"due_today"`
	QuickWins       []types.Task `json:"quick_wins,omitempty"`
	HighImpact      []types.Task `json:"high_impact,omitempty"`
	EffortHistogram map[int]int  `json:"effort_histogram"`
}

const shortlistSize = 5

// Summarize aggregates incomplete tasks across the given lists, or all
// lists when none are named. today is a "2006-01-02" date.
func (e *Engine) Summarize(listIDs []string, today string) (*Summary, error) {
	if len(listIDs) == 0 {
		lists, err := e.store.Lists()
		if err != nil {
			return nil, err
		}
		for _, l := range lists {
			if !l.IsSmart {
				listIDs = append(listIDs, l.ID)
			}
		}
	}

	summary := &Summary{
		TierCounts:      map[int]int{1: 0, 2: 0, 3: 0},
		EffortHistogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var quickWins, highImpact []types.Task
	for _, listID := range listIDs {
		tasks, err := e.store.TasksByList(listID, false)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			if task.PriorityTier != nil {
				summary.TierCounts[*task.PriorityTier]++
			} else {
				summary.Unranked++
			}
			if task.Effort != nil {
				summary.EffortHistogram[*task.Effort]++
			}
			if task.DueDate != "" {
				switch {
				case task.DueDate < today:
					summary.Overdue++
				case task.DueDate == today:
					summary.DueToday++
				}
			}
			if task.Impact != nil && *task.Impact >= 4 {
				highImpact = append(highImpact, task)
				if task.Effort != nil && *task.Effort <= 2 {
					quickWins = append(quickWins, task)
				}
			}
		}
	}

	// Best candidates first: quick wins by lowest effort, high impact by
	// highest impact, effort breaking ties.
	sort.SliceStable(quickWins, func(i, j int) bool {
		if *quickWins[i].Effort != *quickWins[j].Effort {
			return *quickWins[i].Effort < *quickWins[j].Effort
		}
		return *quickWins[i].Impact > *quickWins[j].Impact
	})
	sort.SliceStable(highImpact, func(i, j int) bool {
		if *highImpact[i].Impact != *highImpact[j].Impact {
			return *highImpact[i].Impact > *highImpact[j].Impact
		}
		// Unscored effort sorts after any scored effort.
		ei, ej := highImpact[i].Effort, highImpact[j].Effort
		switch {
		case ei == nil:
			return false
		case ej == nil:
			return true
		default:
			return *ei < *ej
		}
	})

	summary.QuickWins = truncate(quickWins, shortlistSize)
	summary.HighImpact = truncate(highImpact, shortlistSize)
	return summary, nil
}

func truncate(tasks []types.Task, n int) []types.Task {
	if len(tasks) <= n {
		return tasks
	}
	return tasks[:n]
}
