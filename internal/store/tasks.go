package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	"github.com/daybookapp/daybook/internal/types"
)

const taskColumns = `id, list_id, title, notes, due_date, due_time, reminder_at,
	completed, completed_at, position, effort, impact, urgency, importance,
	priority_tier, priority_reasoning, estimated_minutes, energy_level,
	context_tags, recurrence_rule, prioritized_at, created_at, updated_at`

// scanTask decodes one task row, converting storage representations
// (integer booleans, JSON tag arrays, text timestamps) back to Go types.
func scanTask(scanner interface{ Scan(...any) error }) (*types.Task, error) {
	var t types.Task
	var notes, dueDate, dueTime, reasoning, energy, contextTags, recurrence sql.NullString
	var reminderAt, completedAt, prioritizedAt sql.NullString
	var completed int
	var effort, impact, urgency, importance, tier, estimated sql.NullInt64
	var createdAt, updatedAt string

	err := scanner.Scan(&t.ID, &t.ListID, &t.Title, &notes, &dueDate, &dueTime, &reminderAt,
		&completed, &completedAt, &t.Position, &effort, &impact, &urgency, &importance,
		&tier, &reasoning, &estimated, &energy, &contextTags, &recurrence, &prioritizedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Notes = fromNullString(notes)
	t.DueDate = fromNullString(dueDate)
	t.DueTime = fromNullString(dueTime)
	t.Completed = decodeBool(completed)
	t.Effort = fromNullInt(effort)
	t.Impact = fromNullInt(impact)
	t.Urgency = fromNullInt(urgency)
	t.Importance = fromNullInt(importance)
	t.PriorityTier = fromNullInt(tier)
	t.PriorityReasoning = fromNullString(reasoning)
	t.EstimatedMinutes = fromNullInt(estimated)
	t.EnergyLevel = types.EnergyLevel(fromNullString(energy))
	t.RecurrenceRule = fromNullString(recurrence)

	if t.ReminderAt, err = decodeTimePtr(reminderAt); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = decodeTimePtr(completedAt); err != nil {
		return nil, err
	}
	if t.PrioritizedAt, err = decodeTimePtr(prioritizedAt); err != nil {
		return nil, err
	}
	if t.ContextTags, err = decodeStringSlice(contextTags); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}

// taskInsertArgs returns the VALUES arguments matching taskColumns.
func taskInsertArgs(t *types.Task) ([]any, error) {
	contextTags, err := encodeStringSlice(t.ContextTags)
	if err != nil {
		return nil, err
	}
	return []any{
		t.ID, t.ListID, t.Title, nullString(t.Notes), nullString(t.DueDate), nullString(t.DueTime),
		encodeTimePtr(t.ReminderAt), encodeBool(t.Completed), encodeTimePtr(t.CompletedAt),
		t.Position, nullInt(t.Effort), nullInt(t.Impact), nullInt(t.Urgency), nullInt(t.Importance),
		nullInt(t.PriorityTier), nullString(t.PriorityReasoning), nullInt(t.EstimatedMinutes),
		nullString(string(t.EnergyLevel)), contextTags, nullString(t.RecurrenceRule),
		encodeTimePtr(t.PrioritizedAt), encodeTime(t.CreatedAt), encodeTime(t.UpdatedAt),
	}, nil
}

const insertTaskSQL = `INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTask inserts a new task at the end of its list.
func (s *Store) CreateTask(task types.Task) (*types.Task, error) {
	created, err := s.CreateTasks([]types.Task{task})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// CreateTasks inserts a batch of tasks in one transaction. Positions are
// assigned after the current tail of each target list.
func (s *Store) CreateTasks(tasks []types.Task) ([]types.Task, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	nextPos := make(map[string]int)

	created := make([]types.Task, 0, len(tasks))
	for _, task := range tasks {
		pos, ok := nextPos[task.ListID]
		if !ok {
			var exists int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM lists WHERE id = ?`, task.ListID).Scan(&exists); err != nil {
				return nil, fmt.Errorf("check list: %w", err)
			}
			if exists == 0 {
				return nil, notFound("list", task.ListID)
			}
			var maxPos sql.NullInt64
			if err := tx.QueryRow(`SELECT MAX(position) FROM tasks WHERE list_id = ?`, task.ListID).Scan(&maxPos); err != nil {
				return nil, fmt.Errorf("query task positions: %w", err)
			}
			pos = int(maxPos.Int64) + 1
		}
		nextPos[task.ListID] = pos + 1

		task.ID = NewID()
		task.Position = pos
		task.CreatedAt = now
		task.UpdatedAt = now

		args, err := taskInsertArgs(&task)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(insertTaskSQL, args...); err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		created = append(created, task)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	for i := range created {
		s.notify("tasks", created[i].ID, daybooksync.OperationUpsert)
	}
	return created, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (*types.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return task, nil
}

// queryTasks runs a task query and scans all rows.
func (s *Store) queryTasks(query string, args ...any) ([]types.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// TasksByList returns a list's tasks ordered by position.
func (s *Store) TasksByList(listID string, includeCompleted bool) ([]types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE list_id = ?`
	if !includeCompleted {
		query += ` AND completed = 0`
	}
	query += ` ORDER BY position ASC`
	return s.queryTasks(query, listID)
}

// SearchTasks matches the query against titles and notes, newest first.
func (s *Store) SearchTasks(q string) ([]types.Task, error) {
	pattern := "%" + q + "%"
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE title LIKE ? OR notes LIKE ?
		ORDER BY created_at DESC`, pattern, pattern)
}

// TasksDueBetween returns tasks with a due date inside [from, to],
// both "2006-01-02" dates, inclusive.
func (s *Store) TasksDueBetween(from, to string) ([]types.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE due_date IS NOT NULL AND due_date >= ? AND due_date <= ?
		ORDER BY due_date ASC, due_time ASC`, from, to)
}

// TasksForDate returns the date's incomplete tasks ordered by due time
// (tasks without a time sort last, by position).
func (s *Store) TasksForDate(date string) ([]types.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE due_date = ? AND completed = 0
		ORDER BY due_time IS NULL, due_time ASC, position ASC`, date)
}

// TasksDueOn returns every task due on the date, completed or not.
func (s *Store) TasksDueOn(date string) ([]types.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE due_date = ? ORDER BY due_time IS NULL, due_time ASC`, date)
}

// CompletedOn returns tasks whose completion timestamp falls on the date.
func (s *Store) CompletedOn(date string) ([]types.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE completed = 1 AND substr(completed_at, 1, 10) = ?
		ORDER BY completed_at ASC`, date)
}

// CountCompletedOn returns how many tasks were completed on the date.
func (s *Store) CountCompletedOn(date string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks
		WHERE completed = 1 AND substr(completed_at, 1, 10) = ?`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return count, nil
}

// DistinctCompletionDates returns every calendar date with at least one
// completion, ascending.
func (s *Store) DistinctCompletionDates() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT substr(completed_at, 1, 10) FROM tasks
		WHERE completed = 1 AND completed_at IS NOT NULL
		ORDER BY 1 ASC`)
	if err != nil {
		return nil, fmt.Errorf("query completion dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates: %w", err)
	}
	return dates, nil
}

// TaskUpdate carries the fields of a partial task update. Nil fields are
// untouched. Provided string fields clear their column when empty;
// provided numeric fields clear when zero or negative.
type TaskUpdate struct {
	ListID           *string
	Title            *string
	Notes            *string
	DueDate          *string
	DueTime          *string
	ReminderAt       *time.Time
	ClearReminder    bool
	EstimatedMinutes *int
	EnergyLevel      *string
	ContextTags      []string
	SetContextTags   bool
	RecurrenceRule   *string

	Effort     *int
	Impact     *int
	Urgency    *int
	Importance *int
	Tier       *int
	Reasoning  *string
}

// touchesPriority reports whether any priority field is being written,
// which stamps prioritized_at.
func (u *TaskUpdate) touchesPriority() bool {
	return u.Effort != nil || u.Impact != nil || u.Urgency != nil ||
		u.Importance != nil || u.Tier != nil || u.Reasoning != nil
}

// validate rejects out-of-range values before any database access.
func (u *TaskUpdate) validate() error {
	scores := map[string]*int{
		"effort": u.Effort, "impact": u.Impact,
		"urgency": u.Urgency, "importance": u.Importance,
	}
	for name, v := range scores {
		if v != nil && *v > 0 && !types.ValidScore(*v) {
			return invalid("%s must be between 1 and 5, got %d", name, *v)
		}
	}
	if u.Tier != nil && *u.Tier > 0 && !types.ValidTier(*u.Tier) {
		return invalid("priority tier must be between 1 and 3, got %d", *u.Tier)
	}
	if u.EnergyLevel != nil && *u.EnergyLevel != "" && !types.ValidEnergyLevel(*u.EnergyLevel) {
		return invalid("invalid energy level %q", *u.EnergyLevel)
	}
	return nil
}

// buildTaskUpdate produces the SET clause fragments for an update.
func buildTaskUpdate(u *TaskUpdate, now time.Time) ([]string, []any, error) {
	var sets []string
	var args []any

	addStr := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, nullString(*v))
		}
	}
	addScore := func(col string, v *int) {
		if v != nil {
			sets = append(sets, col+" = ?")
			if *v <= 0 {
				args = append(args, nil)
			} else {
				args = append(args, *v)
			}
		}
	}

	if u.ListID != nil {
		sets = append(sets, "list_id = ?")
		args = append(args, *u.ListID)
	}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	addStr("notes", u.Notes)
	addStr("due_date", u.DueDate)
	addStr("due_time", u.DueTime)
	if u.ClearReminder {
		sets = append(sets, "reminder_at = NULL")
	} else if u.ReminderAt != nil {
		sets = append(sets, "reminder_at = ?")
		args = append(args, encodeTime(*u.ReminderAt))
	}
	addScore("estimated_minutes", u.EstimatedMinutes)
	addStr("energy_level", u.EnergyLevel)
	if u.SetContextTags {
		encoded, err := encodeStringSlice(u.ContextTags)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, "context_tags = ?")
		args = append(args, encoded)
	}
	addStr("recurrence_rule", u.RecurrenceRule)

	addScore("effort", u.Effort)
	addScore("impact", u.Impact)
	addScore("urgency", u.Urgency)
	addScore("importance", u.Importance)
	addScore("priority_tier", u.Tier)
	addStr("priority_reasoning", u.Reasoning)
	if u.touchesPriority() {
		sets = append(sets, "prioritized_at = ?")
		args = append(args, encodeTime(now))
	}

	return sets, args, nil
}

// UpdateTask applies a partial update, touching only provided fields.
func (s *Store) UpdateTask(id string, upd TaskUpdate) (*types.Task, error) {
	if err := upd.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sets, args, err := buildTaskUpdate(&upd, now)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return s.GetTask(id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, encodeTime(now), id)

	result, err := s.db.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("task", id)
	}

	s.notify("tasks", id, daybooksync.OperationUpsert)
	return s.GetTask(id)
}

// CompleteTask marks a task completed and stamps the completion time.
// Completion is a first-class transition: the timestamp feeds analytics.
func (s *Store) CompleteTask(id string, at time.Time) (*types.Task, error) {
	result, err := s.db.Exec(`UPDATE tasks SET completed = 1, completed_at = ?, updated_at = ? WHERE id = ?`,
		encodeTime(at), encodeTime(time.Now().UTC()), id)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("task", id)
	}

	s.notify("tasks", id, daybooksync.OperationUpsert)
	return s.GetTask(id)
}

// UncompleteTask reverts a completion, clearing the timestamp.
func (s *Store) UncompleteTask(id string) (*types.Task, error) {
	result, err := s.db.Exec(`UPDATE tasks SET completed = 0, completed_at = NULL, updated_at = ? WHERE id = ?`,
		encodeTime(time.Now().UTC()), id)
	if err != nil {
		return nil, fmt.Errorf("uncomplete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("task", id)
	}

	s.notify("tasks", id, daybooksync.OperationUpsert)
	return s.GetTask(id)
}

// DeleteTask removes a task; subtasks, tag links, goal links, and focus
// sessions cascade.
func (s *Store) DeleteTask(id string) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("task", id)
	}

	s.notify("tasks", id, daybooksync.OperationDelete)
	return nil
}

// ReorderTasks rewrites positions within a list to match the given full
// ordering, in one transaction.
func (s *Store) ReorderTasks(listID string, ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for pos, id := range ids {
		result, err := tx.Exec(`UPDATE tasks SET position = ? WHERE id = ? AND list_id = ?`, pos, id, listID)
		if err != nil {
			return fmt.Errorf("reorder task %s: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return notFound("task", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, id := range ids {
		s.notify("tasks", id, daybooksync.OperationUpsert)
	}
	return nil
}

// EvaluateSmartFilter runs a smart list's saved rule set against the
// tasks table at query time.
func (s *Store) EvaluateSmartFilter(f *types.SmartFilter, today string) ([]types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if f.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, encodeBool(*f.Completed))
	}
	if f.Overdue {
		query += ` AND completed = 0 AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, today)
	}
	if f.DueWithin != nil {
		end, err := time.Parse(DateLayout, today)
		if err != nil {
			return nil, fmt.Errorf("parse today %q: %w", today, err)
		}
		query += ` AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ?`
		args = append(args, today, end.AddDate(0, 0, *f.DueWithin).Format(DateLayout))
	}
	if f.PriorityTier != nil {
		query += ` AND priority_tier = ?`
		args = append(args, *f.PriorityTier)
	}
	if len(f.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Tags)), ",")
		query += ` AND id IN (SELECT task_id FROM task_tags JOIN tags ON tags.id = task_tags.tag_id
			WHERE tags.name IN (` + placeholders + `))`
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}

	query += ` ORDER BY due_date IS NULL, due_date ASC, position ASC`
	return s.queryTasks(query, args...)
}
