// Package core assembles the subsystems behind one capability surface.
// Both adapters (the local HTTP API and the MCP server) wrap this
// service, so neither can expose semantics the other lacks.
package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/daybookapp/daybook/internal/analytics"
	"github.com/daybookapp/daybook/internal/config"
	"github.com/daybookapp/daybook/internal/parser"
	"github.com/daybookapp/daybook/internal/planner"
	"github.com/daybookapp/daybook/internal/priority"
	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/types"
)

// Service is the union of every operation the adapters offer.
type Service struct {
	Store     *store.Store
	Planner   *planner.Planner
	Workflows *planner.Workflows
	Priority  *priority.Engine
	Analytics *analytics.Aggregator

	logger *slog.Logger
}

func New(s *store.Store, cfg config.PlannerConfig, logger *slog.Logger) *Service {
	p := planner.New(s, cfg)
	return &Service{
		Store:     s,
		Planner:   p,
		Workflows: planner.NewWorkflows(p),
		Priority:  priority.NewEngine(s),
		Analytics: analytics.New(s),
		logger:    logger,
	}
}

// ParseInput runs the token parser without persisting anything, for
// live preview while the user types.
func (s *Service) ParseInput(input string, now time.Time) parser.Result {
	return parser.Parse(input, now)
}

// QuickAdd parses free-form input and creates the task it describes.
// Parsed tags become real tag assignments; the default list is used
// when none is named.
func (s *Service) QuickAdd(input, listID string, now time.Time) (*types.Task, error) {
	parsed := parser.Parse(input, now)
	if parsed.Title == "" {
		return nil, fmt.Errorf("input has no task title")
	}

	if listID == "" {
		def, err := s.Store.DefaultList()
		if err != nil {
			return nil, err
		}
		listID = def.ID
	}

	task, err := s.Store.CreateTask(types.Task{
		ListID:           listID,
		Title:            parsed.Title,
		DueDate:          parsed.DueDate,
		DueTime:          parsed.DueTime,
		PriorityTier:     parsed.PriorityTier,
		EstimatedMinutes: parsed.EstimatedMinutes,
	})
	if err != nil {
		return nil, err
	}

	for _, tag := range parsed.Tags {
		if _, err := s.Store.TagTask(task.ID, tag); err != nil {
			s.logger.Warn("quick add tag failed", "task_id", task.ID, "tag", tag, "error", err)
		}
	}
	return task, nil
}

// SetReminderFromDueDate derives a reminder timestamp from a task's due
// date and time, offset backward by the given number of minutes. A task
// without a due time falls back to fallbackHour on the due date.
func (s *Service) SetReminderFromDueDate(taskID string, minutesBefore, fallbackHour int) (*types.Task, error) {
	task, err := s.Store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.DueDate == "" {
		return nil, fmt.Errorf("task %s has no due date", taskID)
	}

	clock := task.DueTime
	if clock == "" {
		clock = fmt.Sprintf("%02d:00", fallbackHour)
	}
	due, err := time.Parse("2006-01-02 15:04", task.DueDate+" "+clock)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", taskID, err)
	}

	reminder := due.Add(-time.Duration(minutesBefore) * time.Minute)
	return s.Store.UpdateTask(taskID, store.TaskUpdate{ReminderAt: &reminder})
}
