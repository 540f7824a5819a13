package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	daybooksync "github.com/daybookapp/daybook/internal/sync"
	"github.com/daybookapp/daybook/internal/types"
)

const listColumns = `id, name, description, icon, color, position, is_default, is_smart, smart_filter, created_at, updated_at`

// CreateList inserts a new list at the end of the ordering.
func (s *Store) CreateList(list types.List) (*types.List, error) {
	now := time.Now().UTC()
	list.ID = NewID()
	list.CreatedAt = now
	list.UpdatedAt = now

	var maxPos sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(position) FROM lists`).Scan(&maxPos); err != nil {
		return nil, fmt.Errorf("query list positions: %w", err)
	}
	list.Position = int(maxPos.Int64) + 1

	filter, err := encodeSmartFilter(list.SmartFilter)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`
		INSERT INTO lists (`+listColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, list.ID, list.Name, nullString(list.Description), nullString(list.Icon), nullString(list.Color),
		list.Position, encodeBool(list.IsDefault), encodeBool(list.IsSmart), filter,
		encodeTime(list.CreatedAt), encodeTime(list.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}

	s.notify("lists", list.ID, daybooksync.OperationUpsert)
	return &list, nil
}

// scanList decodes one list row.
func scanList(scanner interface{ Scan(...any) error }) (*types.List, error) {
	var l types.List
	var description, icon, color, filter sql.NullString
	var isDefault, isSmart int
	var createdAt, updatedAt string

	err := scanner.Scan(&l.ID, &l.Name, &description, &icon, &color, &l.Position,
		&isDefault, &isSmart, &filter, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	l.Description = fromNullString(description)
	l.Icon = fromNullString(icon)
	l.Color = fromNullString(color)
	l.IsDefault = decodeBool(isDefault)
	l.IsSmart = decodeBool(isSmart)

	if l.SmartFilter, err = decodeSmartFilter(filter); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}

	return &l, nil
}

// GetList retrieves a list by ID.
func (s *Store) GetList(id string) (*types.List, error) {
	row := s.db.QueryRow(`SELECT `+listColumns+` FROM lists WHERE id = ?`, id)
	list, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, notFound("list", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}
	return list, nil
}

// DefaultList returns the default (system) list.
func (s *Store) DefaultList() (*types.List, error) {
	row := s.db.QueryRow(`SELECT ` + listColumns + ` FROM lists WHERE is_default = 1 LIMIT 1`)
	list, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, notFound("list", "default")
	}
	if err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}
	return list, nil
}

// Lists returns all lists ordered by position.
func (s *Store) Lists() ([]types.List, error) {
	rows, err := s.db.Query(`SELECT ` + listColumns + ` FROM lists ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	var lists []types.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return lists, nil
}

// ListUpdate carries the fields of a partial list update. Nil fields are
// left untouched; a provided empty string clears the column.
type ListUpdate struct {
	Name        *string
	Description *string
	Icon        *string
	Color       *string
	SmartFilter *types.SmartFilter
}

// UpdateList applies a partial update to a list.
func (s *Store) UpdateList(id string, upd ListUpdate) (*types.List, error) {
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
	if upd.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, nullString(*upd.Icon))
	}
	if upd.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, nullString(*upd.Color))
	}
	if upd.SmartFilter != nil {
		filter, err := encodeSmartFilter(upd.SmartFilter)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "smart_filter = ?")
		args = append(args, filter)
	}

	if len(sets) == 0 {
		return s.GetList(id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, encodeTime(time.Now().UTC()), id)

	result, err := s.db.Exec(`UPDATE lists SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("list", id)
	}

	s.notify("lists", id, daybooksync.OperationUpsert)
	return s.GetList(id)
}

// DeleteList removes a list and, via the foreign key, its tasks.
// The default list is protected.
func (s *Store) DeleteList(id string) error {
	list, err := s.GetList(id)
	if err != nil {
		return err
	}
	if list.IsDefault {
		return ErrProtectedList
	}

	if _, err := s.db.Exec(`DELETE FROM lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	s.notify("lists", id, daybooksync.OperationDelete)
	return nil
}

// ReorderLists rewrites list positions to match the given full ordering.
// The whole rewrite is one transaction.
func (s *Store) ReorderLists(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for pos, id := range ids {
		result, err := tx.Exec(`UPDATE lists SET position = ? WHERE id = ?`, pos, id)
		if err != nil {
			return fmt.Errorf("reorder list %s: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return notFound("list", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, id := range ids {
		s.notify("lists", id, daybooksync.OperationUpsert)
	}
	return nil
}
