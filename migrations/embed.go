// Package migrations embeds the SQL schema migrations applied by goose.
package migrations

import "embed"

// FS contains the goose migration files, embedded at build time.
//
//go:embed *.sql
var FS embed.FS
