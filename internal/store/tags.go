package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	"github.com/daybookapp/daybook/internal/types"
)

// FindOrCreateTag returns the tag with the given name, creating it if
// absent. Names are matched case-insensitively and stored lowercase.
func (s *Store) FindOrCreateTag(name string) (*types.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, invalid("tag name is empty")
	}

	tag, err := s.tagByName(name)
	if err == nil {
		return tag, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("lookup tag: %w", err)
	}

	created := types.Tag{
		ID:        NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.Exec(`INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, NULL, ?)`,
		created.ID, created.Name, encodeTime(created.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("tag %q: %w", name, ErrDuplicateTag)
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	s.notify("tags", created.ID, daybooksync.OperationUpsert)
	return &created, nil
}

func (s *Store) tagByName(name string) (*types.Tag, error) {
	row := s.db.QueryRow(`SELECT id, name, color, created_at FROM tags WHERE name = ?`, name)
	return scanTag(row)
}

func scanTag(scanner interface{ Scan(...any) error }) (*types.Tag, error) {
	var t types.Tag
	var color sql.NullString
	var createdAt string
	if err := scanner.Scan(&t.ID, &t.Name, &color, &createdAt); err != nil {
		return nil, err
	}
	t.Color = fromNullString(color)
	var err error
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Tags returns all tags ordered by name.
func (s *Store) Tags() ([]types.Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, color, created_at FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []types.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// SetTagColor updates a tag's display color.
func (s *Store) SetTagColor(id, color string) error {
	result, err := s.db.Exec(`UPDATE tags SET color = ? WHERE id = ?`, nullString(color), id)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("tag", id)
	}
	s.notify("tags", id, daybooksync.OperationUpsert)
	return nil
}

// DeleteTag removes a tag and its task associations.
func (s *Store) DeleteTag(id string) error {
	result, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("tag", id)
	}
	s.notify("tags", id, daybooksync.OperationDelete)
	return nil
}

// TagTask associates a tag with a task by name, creating the tag if
// needed. Repeat assignments are a no-op.
func (s *Store) TagTask(taskID, name string) (*types.Tag, error) {
	if _, err := s.GetTask(taskID); err != nil {
		return nil, err
	}
	tag, err := s.FindOrCreateTag(name)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("tag task: %w", err)
	}
	s.notify("tasks", taskID, daybooksync.OperationUpsert)
	return tag, nil
}

// UntagTask removes a tag association from a task.
func (s *Store) UntagTask(taskID, tagID string) error {
	result, err := s.db.Exec(`DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?`, taskID, tagID)
	if err != nil {
		return fmt.Errorf("untag task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("task tag", taskID+"/"+tagID)
	}
	s.notify("tasks", taskID, daybooksync.OperationUpsert)
	return nil
}

// TaskTags returns the tags assigned to a task.
func (s *Store) TaskTags(taskID string) ([]types.Tag, error) {
	rows, err := s.db.Query(`SELECT t.id, t.name, t.color, t.created_at FROM tags t
		JOIN task_tags tt ON tt.tag_id = t.id
		WHERE tt.task_id = ? ORDER BY t.name ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query task tags: %w", err)
	}
	defer rows.Close()

	var tags []types.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task tags: %w", err)
	}
	return tags, nil
}

// TasksByTag returns incomplete tasks carrying the named tag.
func (s *Store) TasksByTag(name string) ([]types.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE completed = 0 AND id IN (
			SELECT tt.task_id FROM task_tags tt
			JOIN tags t ON t.id = tt.tag_id WHERE t.name = ?)
		ORDER BY position ASC`, strings.ToLower(name))
}
