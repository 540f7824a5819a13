package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	"github.com/daybookapp/daybook/internal/types"
)

const goalColumns = `id, name, description, timeframe, target_date, parent_id, status, created_at, updated_at`

// CreateGoal inserts a new goal. A parent reference must resolve.
func (s *Store) CreateGoal(goal types.Goal) (*types.Goal, error) {
	if !types.ValidTimeframe(string(goal.Timeframe)) {
		return nil, invalid("invalid timeframe %q", goal.Timeframe)
	}
	if goal.Status == "" {
		goal.Status = types.GoalActive
	}
	if !types.ValidGoalStatus(string(goal.Status)) {
		return nil, invalid("invalid goal status %q", goal.Status)
	}

	now := time.Now().UTC()
	goal.ID = NewID()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	var parent any
	if goal.ParentID != nil {
		if _, err := s.GetGoal(*goal.ParentID); err != nil {
			return nil, err
		}
		parent = *goal.ParentID
	}

	_, err := s.db.Exec(`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.Name, nullString(goal.Description), string(goal.Timeframe),
		nullString(goal.TargetDate), parent, string(goal.Status),
		encodeTime(goal.CreatedAt), encodeTime(goal.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}

	s.notify("goals", goal.ID, daybooksync.OperationUpsert)
	return &goal, nil
}

func scanGoal(scanner interface{ Scan(...any) error }) (*types.Goal, error) {
	var g types.Goal
	var description, targetDate, parentID sql.NullString
	var timeframe, status, createdAt, updatedAt string

	err := scanner.Scan(&g.ID, &g.Name, &description, &timeframe, &targetDate,
		&parentID, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	g.Description = fromNullString(description)
	g.Timeframe = types.GoalTimeframe(timeframe)
	g.TargetDate = fromNullString(targetDate)
	g.Status = types.GoalStatus(status)
	if parentID.Valid {
		g.ParentID = &parentID.String
	}
	if g.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}

	return &g, nil
}

// GetGoal retrieves a goal by ID.
func (s *Store) GetGoal(id string) (*types.Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, notFound("goal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	return goal, nil
}

// Goals returns all goals, optionally filtered by status.
func (s *Store) Goals(status types.GoalStatus) ([]types.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// GoalUpdate carries the fields of a partial goal update.
type GoalUpdate struct {
	Name        *string
	Description *string
	Timeframe   *string
	TargetDate  *string
	ParentID    *string // empty string clears the parent
	Status      *string
}

// UpdateGoal applies a partial update to a goal. A goal cannot become
// its own parent.
func (s *Store) UpdateGoal(id string, upd GoalUpdate) (*types.Goal, error) {
	var sets []string
	var args []any

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*upd.Description))
	}
	if upd.Timeframe != nil {
		if !types.ValidTimeframe(*upd.Timeframe) {
			return nil, invalid("invalid timeframe %q", *upd.Timeframe)
		}
		sets = append(sets, "timeframe = ?")
		args = append(args, *upd.Timeframe)
	}
	if upd.TargetDate != nil {
		sets = append(sets, "target_date = ?")
		args = append(args, nullString(*upd.TargetDate))
	}
	if upd.ParentID != nil {
		if *upd.ParentID == id {
			return nil, invalid("goal %s cannot be its own parent", id)
		}
		if *upd.ParentID != "" {
			if _, err := s.GetGoal(*upd.ParentID); err != nil {
				return nil, err
			}
		}
		sets = append(sets, "parent_id = ?")
		args = append(args, nullString(*upd.ParentID))
	}
	if upd.Status != nil {
		if !types.ValidGoalStatus(*upd.Status) {
			return nil, invalid("invalid goal status %q", *upd.Status)
		}
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}

	if len(sets) == 0 {
		return s.GetGoal(id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, encodeTime(time.Now().UTC()), id)

	result, err := s.db.Exec(`UPDATE goals SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("goal", id)
	}

	s.notify("goals", id, daybooksync.OperationUpsert)
	return s.GetGoal(id)
}

// DeleteGoal removes a goal. Children keep existing with their parent
// reference cleared; task links are removed, tasks are kept.
func (s *Store) DeleteGoal(id string) error {
	result, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("goal", id)
	}

	s.notify("goals", id, daybooksync.OperationDelete)
	return nil
}

// LinkTaskToGoal associates a task with a goal at the given alignment
// strength, upserting on repeat links.
func (s *Store) LinkTaskToGoal(taskID, goalID string, alignment int) error {
	if !types.ValidScore(alignment) {
		return invalid("alignment must be between 1 and 5, got %d", alignment)
	}
	if _, err := s.GetTask(taskID); err != nil {
		return err
	}
	if _, err := s.GetGoal(goalID); err != nil {
		return err
	}

	_, err := s.db.Exec(`INSERT INTO task_goals (task_id, goal_id, alignment) VALUES (?, ?, ?)
		ON CONFLICT(task_id, goal_id) DO UPDATE SET alignment = excluded.alignment`,
		taskID, goalID, alignment)
	if err != nil {
		return fmt.Errorf("link task to goal: %w", err)
	}
	return nil
}

// UnlinkTaskFromGoal removes a task-goal association.
func (s *Store) UnlinkTaskFromGoal(taskID, goalID string) error {
	result, err := s.db.Exec(`DELETE FROM task_goals WHERE task_id = ? AND goal_id = ?`, taskID, goalID)
	if err != nil {
		return fmt.Errorf("unlink task from goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("goal link", taskID+"/"+goalID)
	}
	return nil
}

// GoalLinks returns a goal's task links with alignment strengths.
func (s *Store) GoalLinks(goalID string) ([]types.GoalLink, error) {
	rows, err := s.db.Query(`SELECT task_id, goal_id, alignment FROM task_goals WHERE goal_id = ?`, goalID)
	if err != nil {
		return nil, fmt.Errorf("query goal links: %w", err)
	}
	defer rows.Close()

	var links []types.GoalLink
	for rows.Next() {
		var l types.GoalLink
		if err := rows.Scan(&l.TaskID, &l.GoalID, &l.Alignment); err != nil {
			return nil, fmt.Errorf("scan goal link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal links: %w", err)
	}
	return links, nil
}

// TasksForGoal returns the incomplete tasks linked to a goal.
func (s *Store) TasksForGoal(goalID string) ([]types.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE completed = 0 AND id IN (SELECT task_id FROM task_goals WHERE goal_id = ?)
		ORDER BY position ASC`, goalID)
}
