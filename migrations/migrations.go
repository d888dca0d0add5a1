// Package migrations embeds the schema files for each supported store.
package migrations

import "embed"

// FS holds sqlite/*.sql and postgres/*.sql
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Directories inside FS
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
