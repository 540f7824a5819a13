package store

import (
	"database/sql"
	"fmt"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	"github.com/daybookapp/daybook/internal/types"
)

// CreateSubtask appends a subtask to a task's checklist.
func (s *Store) CreateSubtask(taskID, title string) (*types.Subtask, error) {
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}

	var maxPos sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(position) FROM subtasks WHERE task_id = ?`, taskID).Scan(&maxPos); err != nil {
		return nil, fmt.Errorf("next subtask position: %w", err)
	}

	sub := types.Subtask{
		ID:        NewID(),
		TaskID:    taskID,
		Title:     title,
		Position:  int(maxPos.Int64) + 1,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`INSERT INTO subtasks (id, task_id, title, completed, position, created_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		sub.ID, sub.TaskID, sub.Title, sub.Position, encodeTime(sub.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert subtask: %w", err)
	}

	s.notify("tasks", taskID, daybooksync.OperationUpsert)
	return &sub, nil
}

// Subtasks returns a task's checklist in position order.
func (s *Store) Subtasks(taskID string) ([]types.Subtask, error) {
	rows, err := s.db.Query(`SELECT id, task_id, title, completed, position, created_at
		FROM subtasks WHERE task_id = ? ORDER BY position ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}
	defer rows.Close()

	var subs []types.Subtask
	for rows.Next() {
		var sub types.Subtask
		var completed int
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.Title, &completed, &sub.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		sub.Completed = decodeBool(completed)
		if sub.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtasks: %w", err)
	}
	return subs, nil
}

// SetSubtaskCompleted toggles a subtask's completion state.
func (s *Store) SetSubtaskCompleted(id string, completed bool) error {
	result, err := s.db.Exec(`UPDATE subtasks SET completed = ? WHERE id = ?`, encodeBool(completed), id)
	if err != nil {
		return fmt.Errorf("update subtask: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("subtask", id)
	}
	return nil
}

// RenameSubtask updates a subtask's title.
func (s *Store) RenameSubtask(id, title string) error {
	result, err := s.db.Exec(`UPDATE subtasks SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("rename subtask: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("subtask", id)
	}
	return nil
}

// DeleteSubtask removes a single subtask.
func (s *Store) DeleteSubtask(id string) error {
	result, err := s.db.Exec(`DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("subtask", id)
	}
	return nil
}

// ReorderSubtasks rewrites a task's checklist order to match ids.
func (s *Store) ReorderSubtasks(taskID string, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		result, err := tx.Exec(`UPDATE subtasks SET position = ? WHERE id = ? AND task_id = ?`, i+1, id, taskID)
		if err != nil {
			return fmt.Errorf("reorder subtask %s: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return notFound("subtask", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	s.notify("tasks", taskID, daybooksync.OperationUpsert)
	return nil
}
