package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Migration is one NNN_name.sql schema file
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies schema files to a SQLite store and records them in schema_migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a migrator for db
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
`

// Apply runs every migration under dir in fsys that is not yet recorded, in version
// order, each in its own transaction. It returns how many were applied.
func (m *Migrator) Apply(ctx context.Context, fsys fs.FS, dir string) (int, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending, err := LoadMigrations(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	count := 0
	for _, migration := range pending {
		if applied[migration.Version] {
			continue
		}

		m.logger.Info("Applying migration",
			zap.String("db", m.db.Path()),
			zap.Int("version", migration.Version),
			zap.String("name", migration.Name))

		if err := m.applyOne(ctx, migration); err != nil {
			return count, fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		count++
	}

	m.logger.Info("Schema up to date", zap.String("db", m.db.Path()), zap.Int("applied", count))
	return count, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) applyOne(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// LoadMigrations reads NNN_name.sql files under dir in fsys, ordered by version.
// Other files are ignored; a repeated version is an error.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	var out []Migration

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}

		migration, err := parseMigrationName(path.Base(p))
		if err != nil {
			return err
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", p, err)
		}
		migration.SQL = string(content)
		out = append(out, migration)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].Version)
		}
	}
	return out, nil
}

// "001_create_invoices.sql" -> version 1, name "create_invoices"
func parseMigrationName(filename string) (Migration, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d", &version); err != nil {
		return Migration{}, fmt.Errorf("invalid migration filename format: %s", filename)
	}

	var name string
	if _, rest, ok := strings.Cut(filename, "_"); ok {
		name = strings.TrimSuffix(rest, ".sql")
	}
	return Migration{Version: version, Name: name}, nil
}
