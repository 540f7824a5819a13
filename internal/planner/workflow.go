package planner

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/timegrid"
	"github.com/daybookapp/daybook/internal/types"
)

// Step is one state of the guided planning workflow. The sequence is
// review, build, schedule, confirm, but navigation is free: any step
// can be revisited before the day is finished.
type Step string

const (
	StepReview   Step = "review"
	StepBuild    Step = "build"
	StepSchedule Step = "schedule"
	StepConfirm  Step = "confirm"
)

var stepOrder = []Step{StepReview, StepBuild, StepSchedule, StepConfirm}

// ErrWorkflowNotFound is returned for unknown or expired workflow IDs.
var ErrWorkflowNotFound = errors.New("planning workflow not found")

// Workflow is one in-flight planning run over a batch of dates. Week
// mode is just a batch of seven.
type Workflow struct {
	ID          string          `json:"id"`
	Dates       []string        `json:"dates"`
	TargetDate  string          `json:"target_date"`
	Step        Step            `json:"step"`
	ChosenTasks []string        `json:"chosen_tasks"`
	DaysDone    map[string]bool `json:"days_done"`
	Done        bool            `json:"done"`
}

// ReviewData is the review step's look back at the day before the
// target date.
type ReviewData struct {
	Date       string       `json:"date"`
	Completed  []types.Task `json:"completed"`
	Incomplete []types.Task `json:"incomplete"`
}

// ConfirmData is the confirm step's summary of the built day.
type ConfirmData struct {
	Date             string   `json:"date"`
	TaskCount        int      `json:"task_count"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	ScheduledCount   int      `json:"scheduled_count"`
	ProjectedFinish  string   `json:"projected_finish,omitempty"`
	Capacity         Capacity `json:"capacity"`
}

// Workflows holds the in-memory planning sessions. Sessions are cheap
// and per-process; they do not survive a restart.
type Workflows struct {
	mu       sync.Mutex
	planner  *Planner
	sessions map[string]*Workflow
	entropy  *ulid.MonotonicEntropy
}

func NewWorkflows(p *Planner) *Workflows {
	return &Workflows{
		planner:  p,
		sessions: make(map[string]*Workflow),
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Start opens a planning run over one or more dates, beginning at the
// review step for the first date.
func (w *Workflows) Start(dates []string) (*Workflow, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("at least one date is required")
	}
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid date %q", d)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wf := &Workflow{
		ID:         ulid.MustNew(ulid.Timestamp(time.Now()), w.entropy).String(),
		Dates:      dates,
		TargetDate: dates[0],
		Step:       StepReview,
		DaysDone:   make(map[string]bool),
	}
	w.sessions[wf.ID] = wf
	return wf, nil
}

// Get returns a snapshot of a session.
func (w *Workflows) Get(id string) (*Workflow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot(id)
}

func (w *Workflows) snapshot(id string) (*Workflow, error) {
	wf, ok := w.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	copied := *wf
	copied.ChosenTasks = append([]string(nil), wf.ChosenTasks...)
	copied.DaysDone = make(map[string]bool, len(wf.DaysDone))
	for k, v := range wf.DaysDone {
		copied.DaysDone[k] = v
	}
	return &copied, nil
}

// Navigate moves a session to an explicit step; next and back are just
// jumps from the caller's point of view.
func (w *Workflows) Navigate(id string, step Step) (*Workflow, error) {
	valid := false
	for _, s := range stepOrder {
		if s == step {
			valid = true
		}
	}
	if !valid {
		return nil, fmt.Errorf("unknown step %q", step)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	wf, ok := w.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	wf.Step = step
	return w.snapshot(id)
}

// Review assembles the previous day's outcomes for the target date.
func (w *Workflows) Review(id string) (*ReviewData, error) {
	wf, err := w.Get(id)
	if err != nil {
		return nil, err
	}

	target, err := time.Parse("2006-01-02", wf.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("invalid target date %q", wf.TargetDate)
	}
	previous := target.AddDate(0, 0, -1).Format("2006-01-02")

	completed, err := w.planner.store.CompletedOn(previous)
	if err != nil {
		return nil, err
	}
	incomplete, err := w.planner.store.TasksForDate(previous)
	if err != nil {
		return nil, err
	}
	return &ReviewData{Date: previous, Completed: completed, Incomplete: incomplete}, nil
}

// Review actions for tasks left over from the previous day.
const (
	ReviewReschedule = "reschedule"
	ReviewDefer      = "defer"
	ReviewComplete   = "complete"
)

// ResolveReviewTask acts on one incomplete task from the review step:
// reschedule moves it to the session's target date, defer clears its
// due date back to the backlog, complete marks it done after the fact.
func (w *Workflows) ResolveReviewTask(id, taskID, action string) (*types.Task, error) {
	wf, err := w.Get(id)
	if err != nil {
		return nil, err
	}

	switch action {
	case ReviewReschedule:
		target := wf.TargetDate
		return w.planner.store.UpdateTask(taskID, store.TaskUpdate{DueDate: &target})
	case ReviewDefer:
		empty := ""
		return w.planner.store.UpdateTask(taskID, store.TaskUpdate{DueDate: &empty, DueTime: &empty})
	case ReviewComplete:
		return w.planner.store.CompleteTask(taskID, time.Now())
	default:
		return nil, fmt.Errorf("unknown review action %q", action)
	}
}

// ChooseTasks records the build step's selection and returns the
// capacity meter for it.
func (w *Workflows) ChooseTasks(id string, taskIDs []string) (*Capacity, error) {
	tasks := make([]types.Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := w.planner.store.GetTask(taskID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	capacity := w.planner.CapacityFor(tasks)

	w.mu.Lock()
	defer w.mu.Unlock()
	wf, ok := w.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	wf.ChosenTasks = append([]string(nil), taskIDs...)
	return &capacity, nil
}

// Confirm summarizes the built day for the final step.
func (w *Workflows) Confirm(id string) (*ConfirmData, error) {
	wf, err := w.Get(id)
	if err != nil {
		return nil, err
	}

	schedule, err := w.planner.DaySchedule(wf.TargetDate)
	if err != nil {
		return nil, err
	}

	tasks := make([]types.Task, 0, len(schedule.Scheduled)+len(schedule.Unscheduled))
	for _, st := range schedule.Scheduled {
		tasks = append(tasks, st.Task)
	}
	tasks = append(tasks, schedule.Unscheduled...)
	capacity := w.planner.CapacityFor(tasks)

	data := &ConfirmData{
		Date:             wf.TargetDate,
		TaskCount:        len(tasks),
		EstimatedMinutes: capacity.PlannedMinutes,
		ScheduledCount:   len(schedule.Scheduled),
		Capacity:         capacity,
	}
	if n := len(schedule.Scheduled); n > 0 {
		last := schedule.Scheduled[n-1]
		data.ProjectedFinish = timegrid.FormatClock(last.end)
	}
	return data, nil
}

// FinishDay records the target date as planned. In a multi-day batch
// the session advances to the next unfinished date and resets to the
// review step; it closes only after the last day.
func (w *Workflows) FinishDay(id string) (*Workflow, error) {
	w.mu.Lock()
	wf, ok := w.sessions[id]
	if !ok {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	target := wf.TargetDate
	w.mu.Unlock()

	if err := w.planner.store.MarkDayPlanned(target); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	wf, ok = w.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}

	wf.DaysDone[target] = true
	next := ""
	for _, d := range wf.Dates {
		if !wf.DaysDone[d] {
			next = d
			break
		}
	}
	if next == "" {
		wf.Done = true
	} else {
		wf.TargetDate = next
		wf.Step = StepReview
		wf.ChosenTasks = nil
	}
	return w.snapshot(id)
}

// Discard drops a session without recording anything.
func (w *Workflows) Discard(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, id)
}
