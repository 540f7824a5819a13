package store

import (
	"database/sql"
	"fmt"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	"github.com/daybookapp/daybook/internal/types"
)

// StartFocusSession begins a focus session against a task. Only one
// session may be running at a time.
func (s *Store) StartFocusSession(taskID string, plannedMinutes int) (*types.FocusSession, error) {
	if plannedMinutes <= 0 {
		return nil, invalid("planned minutes must be positive, got %d", plannedMinutes)
	}
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}

	var running int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM focus_sessions WHERE ended_at IS NULL`).Scan(&running); err != nil {
		return nil, fmt.Errorf("check running sessions: %w", err)
	}
	if running > 0 {
		return nil, ErrSessionActive
	}

	session := types.FocusSession{
		ID:             NewID(),
		TaskID:         taskID,
		PlannedMinutes: plannedMinutes,
		StartedAt:      time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO focus_sessions (id, task_id, planned_minutes, started_at, ended_at, completed)
		VALUES (?, ?, ?, ?, NULL, 0)`,
		session.ID, session.TaskID, session.PlannedMinutes, encodeTime(session.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("insert focus session: %w", err)
	}
	s.notify("focus_sessions", session.ID, daybooksync.OperationUpsert)
	return &session, nil
}

// ActiveFocusSession returns the currently running session, or nil.
func (s *Store) ActiveFocusSession() (*types.FocusSession, error) {
	row := s.db.QueryRow(`SELECT id, task_id, planned_minutes, started_at, ended_at, completed
		FROM focus_sessions WHERE ended_at IS NULL LIMIT 1`)
	session, err := scanFocusSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan focus session: %w", err)
	}
	return session, nil
}

func scanFocusSession(scanner interface{ Scan(...any) error }) (*types.FocusSession, error) {
	var f types.FocusSession
	var startedAt string
	var endedAt sql.NullString
	var completed int
	err := scanner.Scan(&f.ID, &f.TaskID, &f.PlannedMinutes, &startedAt, &endedAt, &completed)
	if err != nil {
		return nil, err
	}
	if f.StartedAt, err = decodeTime(startedAt); err != nil {
		return nil, err
	}
	if f.EndedAt, err = decodeTimePtr(endedAt); err != nil {
		return nil, err
	}
	f.Completed = decodeBool(completed)
	return &f, nil
}

// FinishFocusSession ends a running session, recording whether the
// planned block was seen through.
func (s *Store) FinishFocusSession(id string, completed bool) (*types.FocusSession, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(`UPDATE focus_sessions SET ended_at = ?, completed = ?
		WHERE id = ? AND ended_at IS NULL`,
		encodeTime(now), encodeBool(completed), id)
	if err != nil {
		return nil, fmt.Errorf("finish focus session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("running focus session", id)
	}

	row := s.db.QueryRow(`SELECT id, task_id, planned_minutes, started_at, ended_at, completed
		FROM focus_sessions WHERE id = ?`, id)
	session, err := scanFocusSession(row)
	if err != nil {
		return nil, fmt.Errorf("scan focus session: %w", err)
	}
	s.notify("focus_sessions", id, daybooksync.OperationUpsert)
	return session, nil
}

// FocusSessionsForTask returns a task's session history, newest first.
func (s *Store) FocusSessionsForTask(taskID string) ([]types.FocusSession, error) {
	rows, err := s.db.Query(`SELECT id, task_id, planned_minutes, started_at, ended_at, completed
		FROM focus_sessions WHERE task_id = ? ORDER BY started_at DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query focus sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.FocusSession
	for rows.Next() {
		session, err := scanFocusSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan focus session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus sessions: %w", err)
	}
	return sessions, nil
}

// FocusMinutesOn sums the planned minutes of completed sessions that
// started on the given date (YYYY-MM-DD).
func (s *Store) FocusMinutesOn(date string) (int, error) {
	var minutes sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(planned_minutes) FROM focus_sessions
		WHERE completed = 1 AND substr(started_at, 1, 10) = ?`, date).Scan(&minutes)
	if err != nil {
		return 0, fmt.Errorf("sum focus minutes: %w", err)
	}
	return int(minutes.Int64), nil
}
