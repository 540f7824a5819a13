// Package planner builds day schedules on the working-day grid and runs
// the guided daily-planning workflow.
package planner

import (
	"fmt"
	"sort"

	"github.com/daybookapp/daybook/internal/config"
	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/timegrid"
	"github.com/daybookapp/daybook/internal/types"
)

// ScheduledTask is a task placed on the grid with its resolved end time.
type ScheduledTask struct {
	Task    types.Task `json:"task"`
	EndTime string     `json:"end_time"`
	start   int
	end     int
}

// DaySchedule is one date's grid view: placed tasks in start order, the
// day's unplaced tasks, and the remaining free blocks.
type DaySchedule struct {
	Date        string           `json:"date"`
	Scheduled   []ScheduledTask  `json:"scheduled"`
	Unscheduled []types.Task     `json:"unscheduled"`
	FreeBlocks  []timegrid.Block `json:"free_blocks"`
}

// PlacementRequest asks for one task at a requested start time. The
// start is snapped to the grid; duration falls back from the explicit
// value to the task's stored estimate to the configured default.
type PlacementRequest struct {
	TaskID          string `json:"task_id"`
	StartTime       string `json:"start_time"` // "15:04"
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
}

// Planner resolves day schedules and placements against the store.
type Planner struct {
	store              *store.Store
	grid               timegrid.Grid
	defaultTaskMinutes int
	workingHoursPerDay int
	overCommitPercent  int
}

func New(s *store.Store, cfg config.PlannerConfig) *Planner {
	return &Planner{
		store: s,
		grid: timegrid.Grid{
			StartHour:   cfg.DayStartHour,
			EndHour:     cfg.DayEndHour,
			SnapMinutes: cfg.SnapMinutes,
		},
		defaultTaskMinutes: cfg.DefaultTaskMinutes,
		workingHoursPerDay: cfg.WorkingHoursPerDay,
		overCommitPercent:  cfg.OverCommitThreshold,
	}
}

// Grid exposes the working-day frame for callers that render it.
func (p *Planner) Grid() timegrid.Grid { return p.grid }

// DaySchedule partitions a date's incomplete tasks into scheduled and
// unscheduled and computes the free blocks between placements.
func (p *Planner) DaySchedule(date string) (*DaySchedule, error) {
	tasks, err := p.store.TasksForDate(date)
	if err != nil {
		return nil, fmt.Errorf("load tasks for %s: %w", date, err)
	}

	schedule := &DaySchedule{Date: date}
	for _, task := range tasks {
		if task.DueTime == "" {
			schedule.Unscheduled = append(schedule.Unscheduled, task)
			continue
		}
		start, err := timegrid.ParseClock(task.DueTime)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.ID, err)
		}
		duration := p.defaultTaskMinutes
		if task.EstimatedMinutes != nil && *task.EstimatedMinutes > 0 {
			duration = *task.EstimatedMinutes
		}
		end := timegrid.End(start, duration)
		schedule.Scheduled = append(schedule.Scheduled, ScheduledTask{
			Task:    task,
			EndTime: timegrid.FormatClock(end),
			start:   start,
			end:     end,
		})
	}

	sort.Slice(schedule.Scheduled, func(i, j int) bool {
		return schedule.Scheduled[i].start < schedule.Scheduled[j].start
	})

	blocks := make([]timegrid.Block, 0, len(schedule.Scheduled))
	for _, st := range schedule.Scheduled {
		blocks = append(blocks, timegrid.Block{Start: st.start, End: st.end})
	}
	schedule.FreeBlocks = p.grid.FreeBlocks(mergeBlocks(blocks))
	return schedule, nil
}

// mergeBlocks coalesces overlapping intervals so FreeBlocks sees the
// sorted non-overlapping set it requires.
func mergeBlocks(sorted []timegrid.Block) []timegrid.Block {
	var merged []timegrid.Block
	for _, b := range sorted {
		if n := len(merged); n > 0 && b.Start <= merged[n-1].End {
			if b.End > merged[n-1].End {
				merged[n-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// ScheduleTasks places a batch of tasks on a date's grid. The whole
// batch persists in one transaction: a missing task aborts every
// placement.
func (p *Planner) ScheduleTasks(date string, requests []PlacementRequest) error {
	placements := make([]store.Placement, 0, len(requests))
	for _, req := range requests {
		start, err := timegrid.ParseClock(req.StartTime)
		if err != nil {
			return fmt.Errorf("task %s: %w", req.TaskID, err)
		}

		duration := p.defaultTaskMinutes
		if req.DurationMinutes != nil && *req.DurationMinutes > 0 {
			duration = *req.DurationMinutes
		} else {
			task, err := p.store.GetTask(req.TaskID)
			if err != nil {
				return err
			}
			if task.EstimatedMinutes != nil && *task.EstimatedMinutes > 0 {
				duration = *task.EstimatedMinutes
			}
		}

		placements = append(placements, store.Placement{
			TaskID:           req.TaskID,
			DueDate:          date,
			DueTime:          timegrid.FormatClock(p.grid.Snap(start)),
			EstimatedMinutes: duration,
		})
	}
	return p.store.PlaceTasks(placements)
}

// UnscheduleTask clears a task's clock time. The task keeps its due
// date and returns to the day's unscheduled pool.
func (p *Planner) UnscheduleTask(taskID string) error {
	return p.store.ClearDueTime(taskID)
}

// Capacity is the build-step commitment meter for one day.
type Capacity struct {
	PlannedMinutes int  `json:"planned_minutes"`
	BudgetMinutes  int  `json:"budget_minutes"`
	Percent        int  `json:"percent"` // clamped to 100 for display
	OverCommitted  bool `json:"over_committed"`
}

// CapacityFor measures a set of tasks against the working-hours budget.
// The displayed percentage clamps at 100; the over-commit flag trips at
// the configured threshold without blocking anything.
func (p *Planner) CapacityFor(tasks []types.Task) Capacity {
	total := 0
	for _, task := range tasks {
		if task.EstimatedMinutes != nil && *task.EstimatedMinutes > 0 {
			total += *task.EstimatedMinutes
		} else {
			total += p.defaultTaskMinutes
		}
	}

	budget := p.workingHoursPerDay * 60
	percent := 0
	if budget > 0 {
		percent = total * 100 / budget
	}
	capacity := Capacity{
		PlannedMinutes: total,
		BudgetMinutes:  budget,
		Percent:        percent,
		OverCommitted:  percent >= p.overCommitPercent,
	}
	if capacity.Percent > 100 {
		capacity.Percent = 100
	}
	return capacity
}
