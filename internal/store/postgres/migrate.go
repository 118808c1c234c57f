package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

func loadMigrations(fsys fs.FS) ([]Migration, error) {
	files, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, err
	}
	var migrations []Migration
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, "migrations/"+f.Name())
		if err != nil {
			return nil, err
		}
		var v int
		if _, err := fmt.Sscanf(f.Name(), "%d_", &v); err != nil {
			return nil, fmt.Errorf("invalid migration filename %s: %w", f.Name(), err)
		}
		migrations = append(migrations, Migration{Version: v, Name: f.Name(), UpSQL: string(data)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Migrations lists the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	return loadMigrations(migrationsFS)
}

// Migrate applies pending embedded migrations in one transaction and returns
// the resulting schema version.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	migrations, err := Migrations()
	if err != nil {
		return 0, fmt.Errorf("postgres.Migrate: load: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres.Migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Concurrent migrators wait for each other.
	if err := advisoryLock(ctx, tx, "crewhub:migrate"); err != nil {
		return 0, fmt.Errorf("postgres.Migrate: %w", err)
	}

	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("postgres.Migrate: create schema_version: %w", err)
	}

	var current int
	err = tx.QueryRow(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return 0, fmt.Errorf("postgres.Migrate: init schema_version: %w", err)
		}
		current = 0
	} else if err != nil {
		return 0, fmt.Errorf("postgres.Migrate: read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return 0, fmt.Errorf("postgres.Migrate: %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx, `UPDATE schema_version SET version = $1`, m.Version); err != nil {
			return 0, fmt.Errorf("postgres.Migrate: update schema_version: %w", err)
		}
		log.Info().Str("migration", m.Name).Msg("postgres.Migrate: applied")
		current = m.Version
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres.Migrate: commit: %w", err)
	}
	return current, nil
}
