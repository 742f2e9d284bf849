// Package migrations embeds the versioned PostgreSQL schema.
package migrations

import "embed"

// FS holds the up and down scripts, named NNNNNN_title.{up,down}.sql
//
//go:embed *.sql
var FS embed.FS
