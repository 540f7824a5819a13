// Package sync emits a best-effort append-only change log so that a
// sibling process (desktop app or MCP server) sharing the same database
// file can poll for mutations. Writes never fail the caller: the signal
// is advisory and correctness never depends on it.
package sync

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// Operation constants.
const (
	OperationUpsert = "upsert"
	OperationDelete = "delete"
)

// ChangeLogEntry represents a single entry in the change log file.
type ChangeLogEntry struct {
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Operation string    `json:"operation"` // "upsert" or "delete"
	SourceID  string    `json:"source_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangeLog appends JSON-encoded entries to a shared file.
type ChangeLog struct {
	path     string
	sourceID string
}

// NewChangeLog creates a change log writer for the given file path.
// Each process gets a distinct ULID source identity so pollers can
// ignore their own writes.
func NewChangeLog(path string) *ChangeLog {
	return &ChangeLog{
		path:     path,
		sourceID: ulid.Make().String(),
	}
}

// SourceID returns this process's change-log identity.
func (c *ChangeLog) SourceID() string { return c.sourceID }

// Notify appends one entry. All failures are swallowed: a missing
// directory, a full disk, or a locked file must never surface to the
// mutation that triggered the signal.
func (c *ChangeLog) Notify(entity, entityID, operation string) {
	if c == nil || c.path == "" {
		return
	}

	entry := ChangeLogEntry{
		Entity:    entity,
		EntityID:  entityID,
		Operation: operation,
		SourceID:  c.sourceID,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(data)
}

// ReadSince returns entries appended by other sources after the given
// instant. Used by pollers; read failures return an empty slice.
func ReadSince(path string, since time.Time) []ChangeLogEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entries []ChangeLogEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e ChangeLogEntry
		if err := dec.Decode(&e); err != nil {
			break
		}
		if e.CreatedAt.After(since) {
			entries = append(entries, e)
		}
	}
	return entries
}
