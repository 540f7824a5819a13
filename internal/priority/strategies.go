// Package priority implements the strategy-driven prioritization
// engine: a fixed catalogue of ranking strategies, the two-phase
// prioritize flow, and cross-list priority summaries.
package priority

import "fmt"

// Strategy is one named ranking approach. Guidance is written for an
// LLM caller that ranks on the user's behalf.
type Strategy struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Guidance    string `json:"guidance"`
}

var strategies = []Strategy{
	{
		Name:        "balanced",
		Label:       "Balanced",
		Description: "Weigh effort, impact, urgency, and importance evenly.",
		Guidance: "Score each task 1-5 on effort, impact, urgency, and importance. " +
			"Assign tier 1 to tasks strong on at least three dimensions, tier 3 to tasks " +
			"weak on most, tier 2 to the rest. Explain each tier choice in one sentence.",
	},
	{
		Name:        "urgent-first",
		Label:       "Urgent first",
		Description: "Deadline pressure dominates; everything else ranks behind it.",
		Guidance: "Rank primarily by urgency and due date. Overdue or due-today tasks get " +
			"tier 1 regardless of size. Tasks with no deadline pressure go to tier 3 even " +
			"if they matter long-term.",
	},
	{
		Name:        "quick-wins",
		Label:       "Quick wins",
		Description: "Favor low-effort, high-impact tasks to build momentum.",
		Guidance: "Put tasks with effort 1-2 and impact 4-5 in tier 1. Large tasks go to " +
			"tier 2 or 3 regardless of impact; suggest splitting any tier-3 task with " +
			"effort 5 into smaller pieces.",
	},
	{
		Name:        "high-impact",
		Label:       "High impact",
		Description: "Rank by expected impact alone; effort is a tiebreaker.",
		Guidance: "Assign tier by impact score: 4-5 is tier 1, 3 is tier 2, below is " +
			"tier 3. Within a tier, order lower-effort tasks first.",
	},
	{
		Name:        "eisenhower",
		Label:       "Urgent / important",
		Description: "Classic two-axis quadrant of urgency against importance.",
		Guidance: "Urgent and important is tier 1, important but not urgent is tier 2, " +
			"urgent but not important is tier 2 with a note to consider delegating, " +
			"neither is tier 3. Treat urgency >= 4 and importance >= 4 as the axis cutoffs.",
	},
}

// Strategies returns the full catalogue in its fixed order.
func Strategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

// StrategyByName looks up a catalogue entry.
func StrategyByName(name string) (*Strategy, error) {
	for _, s := range strategies {
		if s.Name == name {
			copied := s
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}
