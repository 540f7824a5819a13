package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daybookapp/daybook/internal/types"
)

// Column layouts. Timestamps are RFC 3339 UTC at nanosecond precision,
// so a value read back compares equal to the one the write returned;
// calendar dates and clock times are stored as naked text so that no
// timezone conversion happens beyond what the values already encode.
const (
	timestampLayout = time.RFC3339Nano
	// DateLayout is the storage form of a calendar date.
	DateLayout = "2006-01-02"
	// ClockLayout is the storage form of a clock time.
	ClockLayout = "15:04"
)

func encodeBool(b bool) int {
	if b {
		return 1
	}
	return 0
}

func decodeBool(i int) bool { return i != 0 }

func encodeTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := decodeTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString maps "" to NULL so optional text columns stay NULL rather
// than accumulating empty strings.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// encodeStringSlice serializes a string-array column as JSON text.
// Nil and empty slices are stored as NULL.
func encodeStringSlice(v []string) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal string slice: %w", err)
	}
	return string(data), nil
}

func decodeStringSlice(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, fmt.Errorf("parse string slice column: %w", err)
	}
	return v, nil
}

// encodeSmartFilter serializes a smart list's rule set.
func encodeSmartFilter(f *types.SmartFilter) (any, error) {
	if f == nil {
		return nil, nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal smart filter: %w", err)
	}
	return string(data), nil
}

func decodeSmartFilter(s sql.NullString) (*types.SmartFilter, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var f types.SmartFilter
	if err := json.Unmarshal([]byte(s.String), &f); err != nil {
		return nil, fmt.Errorf("parse smart filter column: %w", err)
	}
	return &f, nil
}
