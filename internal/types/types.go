// Package types defines the Daybook domain model shared by the store,
// the planning subsystem, and both adapters.
package types

import "time"

// EnergyLevel classifies how much energy a task demands.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// GoalTimeframe is the planning horizon of a goal.
type GoalTimeframe string

const (
	TimeframeDaily     GoalTimeframe = "daily"
	TimeframeWeekly    GoalTimeframe = "weekly"
	TimeframeMonthly   GoalTimeframe = "monthly"
	TimeframeQuarterly GoalTimeframe = "quarterly"
	TimeframeYearly    GoalTimeframe = "yearly"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// List is a container of tasks. A smart list is a saved filter evaluated
// at query time, not a physical container.
type List struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Color       string       `json:"color,omitempty"`
	Position    int          `json:"position"`
	IsDefault   bool         `json:"is_default"`
	IsSmart     bool         `json:"is_smart"`
	SmartFilter *SmartFilter `json:"smart_filter,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SmartFilter is the serialized rule set of a smart list.
type SmartFilter struct {
	Completed    *bool    `json:"completed,omitempty"`
	DueWithin    *int     `json:"due_within_days,omitempty"`
	Overdue      bool     `json:"overdue,omitempty"`
	PriorityTier *int     `json:"priority_tier,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Task is a single todo item belonging to exactly one list.
//
// DueDate ("2006-01-02") and DueTime ("15:04") are independent: a task may
// be due on a day without being scheduled at a clock time. The four score
// fields and the tier are either nil or within their declared ranges.
type Task struct {
	ID                string      `json:"id"`
	ListID            string      `json:"list_id"`
	Title             string      `json:"title"`
	Notes             string      `json:"notes,omitempty"`
	DueDate           string      `json:"due_date,omitempty"`
	DueTime           string      `json:"due_time,omitempty"`
	ReminderAt        *time.Time  `json:"reminder_at,omitempty"`
	Completed         bool        `json:"completed"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	Position          int         `json:"position"`
	Effort            *int        `json:"effort,omitempty"`
	Impact            *int        `json:"impact,omitempty"`
	Urgency           *int        `json:"urgency,omitempty"`
	Importance        *int        `json:"importance,omitempty"`
	PriorityTier      *int        `json:"priority_tier,omitempty"`
	PriorityReasoning string      `json:"priority_reasoning,omitempty"`
	EstimatedMinutes  *int        `json:"estimated_minutes,omitempty"`
	EnergyLevel       EnergyLevel `json:"energy_level,omitempty"`
	ContextTags       []string    `json:"context_tags,omitempty"`
	RecurrenceRule    string      `json:"recurrence_rule,omitempty"`
	PrioritizedAt     *time.Time  `json:"prioritized_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Goal is an objective tasks can align to. Goals form a tree; deleting a
// parent clears the reference on its children rather than cascading.
type Goal struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Timeframe   GoalTimeframe `json:"timeframe"`
	TargetDate  string        `json:"target_date,omitempty"`
	ParentID    *string       `json:"parent_id,omitempty"`
	Status      GoalStatus    `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// GoalLink associates a task with a goal and records how strongly the
// task contributes to it (1-5).
type GoalLink struct {
	TaskID    string `json:"task_id"`
	GoalID    string `json:"goal_id"`
	Alignment int    `json:"alignment"`
}

// Subtask is a checklist item under a task.
type Subtask struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is a label shared across tasks.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FocusSession is one timed work block on a task. Completed is true only
// when the session ran to its planned end rather than being stopped early.
type FocusSession struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"task_id"`
	PlannedMinutes int        `json:"planned_minutes"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	Completed      bool       `json:"completed"`
}

// ValidScore reports whether v is usable as a 1-5 score value.
func ValidScore(v int) bool { return v >= 1 && v <= 5 }

// ValidTier reports whether v is usable as a 1-3 priority tier.
func ValidTier(v int) bool { return v >= 1 && v <= 3 }

// ValidEnergyLevel reports whether s is a recognized energy level.
func ValidEnergyLevel(s string) bool {
	switch EnergyLevel(s) {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	}
	return false
}

// ValidTimeframe reports whether s is a recognized goal timeframe.
func ValidTimeframe(s string) bool {
	switch GoalTimeframe(s) {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeQuarterly, TimeframeYearly:
		return true
	}
	return false
}

// ValidGoalStatus reports whether s is a recognized goal status.
func ValidGoalStatus(s string) bool {
	switch GoalStatus(s) {
	case GoalActive, GoalCompleted, GoalAbandoned:
		return true
	}
	return false
}
