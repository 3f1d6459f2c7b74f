// Package migrations embeds the scheduler SQLite schema.
package migrations

import "embed"

// FS holds the scheduler migration files.
//
//go:embed *.sql
var FS embed.FS
