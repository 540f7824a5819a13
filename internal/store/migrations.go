package store

import (
	"database/sql"
	"fmt"

	"github.com/daybookapp/daybook/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations brings the schema up to date from the embedded SQL
// files. It runs on every open, so a fresh database and an existing
// one take the same path.
func RunMigrations(db *sql.DB) error {
	// goose logs to stdout by default, which the MCP adapter cannot
	// tolerate on its protocol stream.
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
