// Package migrations embeds the SQL migrations of the message archive.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
