package store

import (
	"fmt"
	"strings"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
)

// Placement is one resolved grid placement: the planner has already
// snapped the start time and resolved the duration.
type Placement struct {
	TaskID           string
	DueDate          string // "2006-01-02"
	DueTime          string // "15:04"
	EstimatedMinutes int
}

// PlaceTasks persists a batch of placements as one transaction.
// The batch is all-or-nothing: a missing task aborts the whole write and
// the returned error names the offending ID.
func (s *Store) PlaceTasks(placements []Placement) error {
	if len(placements) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := encodeTime(time.Now().UTC())
	for _, p := range placements {
		result, err := tx.Exec(`UPDATE tasks
			SET due_date = ?, due_time = ?, estimated_minutes = ?, updated_at = ?
			WHERE id = ?`, p.DueDate, p.DueTime, p.EstimatedMinutes, now, p.TaskID)
		if err != nil {
			return fmt.Errorf("place task %s: %w", p.TaskID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return notFound("task", p.TaskID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, p := range placements {
		s.notify("tasks", p.TaskID, daybooksync.OperationUpsert)
	}
	return nil
}

// ClearDueTime removes a task's clock time only. The task keeps its due
// date and moves back to the unscheduled pool for that day.
func (s *Store) ClearDueTime(id string) error {
	result, err := s.db.Exec(`UPDATE tasks SET due_time = NULL, updated_at = ? WHERE id = ?`,
		encodeTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("clear due time: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("task", id)
	}

	s.notify("tasks", id, daybooksync.OperationUpsert)
	return nil
}

// PriorityUpdate is one task's caller-supplied prioritization decision.
// Any subset of the score fields may be present.
type PriorityUpdate struct {
	TaskID    string
	Effort    *int
	Impact    *int
	Urgency   *int
	Importance *int
	Tier      *int
	Reasoning *string
}

// ApplyPriorityUpdates applies a batch of priority decisions. Unlike
// PlaceTasks, the batch commits what it can: tasks that no longer exist
// are collected into the returned failed list while the rest persist.
// Every task touched gets its prioritized_at stamp.
func (s *Store) ApplyPriorityUpdates(updates []PriorityUpdate) (updated, failed []string, err error) {
	if len(updates) == 0 {
		return nil, nil, nil
	}

	for _, u := range updates {
		upd := TaskUpdate{
			Effort:    u.Effort,
			Impact:    u.Impact,
			Urgency:   u.Urgency,
			Importance: u.Importance,
			Tier:      u.Tier,
			Reasoning: u.Reasoning,
		}
		if err := upd.validate(); err != nil {
			return nil, nil, fmt.Errorf("task %s: %w", u.TaskID, err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, u := range updates {
		upd := TaskUpdate{
			Effort:    u.Effort,
			Impact:    u.Impact,
			Urgency:   u.Urgency,
			Importance: u.Importance,
			Tier:      u.Tier,
			Reasoning: u.Reasoning,
		}
		sets, args, buildErr := buildTaskUpdate(&upd, now)
		if buildErr != nil {
			return nil, nil, buildErr
		}
		if len(sets) == 0 {
			// Nothing to write beyond the stamp; still mark the task touched.
			sets = []string{"prioritized_at = ?"}
			args = []any{encodeTime(now)}
		}
		sets = append(sets, "updated_at = ?")
		args = append(args, encodeTime(now), u.TaskID)

		result, execErr := tx.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if execErr != nil {
			return nil, nil, fmt.Errorf("update task %s: %w", u.TaskID, execErr)
		}
		affected, raErr := result.RowsAffected()
		if raErr != nil {
			return nil, nil, fmt.Errorf("rows affected: %w", raErr)
		}
		if affected == 0 {
			failed = append(failed, u.TaskID)
			continue
		}
		updated = append(updated, u.TaskID)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	for _, id := range updated {
		s.notify("tasks", id, daybooksync.OperationUpsert)
	}
	return updated, failed, nil
}

// MarkDayPlanned records that a date went through the daily-planning
// workflow.
func (s *Store) MarkDayPlanned(date string) error {
	_, err := s.db.Exec(`INSERT INTO planned_days (date, planned_at) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET planned_at = excluded.planned_at`,
		date, encodeTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("mark day planned: %w", err)
	}
	return nil
}

// DayPlanned reports whether a date was already planned.
func (s *Store) DayPlanned(date string) (bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM planned_days WHERE date = ?`, date).Scan(&count); err != nil {
		return false, fmt.Errorf("query planned day: %w", err)
	}
	return count > 0, nil
}
