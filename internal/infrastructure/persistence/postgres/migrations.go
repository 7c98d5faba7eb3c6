package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns applied versions with their timestamps.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			_, err := tx.Exec(ctx,
				fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName),
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// Rollback reverts the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	lastVersion := 0
	for v := range applied {
		lastVersion = max(lastVersion, v)
	}
	if lastVersion == 0 {
		return nil
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == lastVersion {
			migration = &m.migrations[i]
			break
		}
	}
	if migration == nil || migration.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, lastVersion)
	}

	return m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", lastVersion, err)
		}
		_, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName), lastVersion)
		return err
	})
}

// Status returns every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)
	for i := range result {
		if appliedAt, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = appliedAt
		}
	}
	return result, nil
}

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_snapshots",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

// Entity ids are the platform's own integer ids and are unique only within a
// snapshot. position keeps registry and enrollment order.
const migration001Up = `
CREATE TABLE IF NOT EXISTS platform_snapshots (
    id UUID PRIMARY KEY,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    students INTEGER NOT NULL,
    instructors INTEGER NOT NULL,
    courses INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_platform_snapshots_created_at ON platform_snapshots(created_at DESC);

CREATE TABLE IF NOT EXISTS snapshot_instructors (
    snapshot_id UUID NOT NULL REFERENCES platform_snapshots(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    id INTEGER NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, id)
);

CREATE TABLE IF NOT EXISTS snapshot_students (
    snapshot_id UUID NOT NULL REFERENCES platform_snapshots(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    id INTEGER NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, id)
);

CREATE TABLE IF NOT EXISTS snapshot_courses (
    snapshot_id UUID NOT NULL REFERENCES platform_snapshots(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    id INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    instructor_id INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, id)
);

-- Student-side course lists; this is the side a restore rebuilds enrollment from.
CREATE TABLE IF NOT EXISTS snapshot_enrollments (
    snapshot_id UUID NOT NULL REFERENCES platform_snapshots(id) ON DELETE CASCADE,
    student_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    course_id INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, student_id, position)
);

-- Course-side rosters, kept so that a loaded document matches the saved one.
CREATE TABLE IF NOT EXISTS snapshot_rosters (
    snapshot_id UUID NOT NULL REFERENCES platform_snapshots(id) ON DELETE CASCADE,
    course_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    student_id INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, course_id, position)
);

CREATE TABLE IF NOT EXISTS snapshot_grades (
    snapshot_id UUID NOT NULL REFERENCES platform_snapshots(id) ON DELETE CASCADE,
    course_id INTEGER NOT NULL,
    student_id INTEGER NOT NULL,
    grade INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, course_id, student_id)
);
`

const migration001Down = `
DROP TABLE IF EXISTS snapshot_grades;
DROP TABLE IF EXISTS snapshot_rosters;
DROP TABLE IF EXISTS snapshot_enrollments;
DROP TABLE IF EXISTS snapshot_courses;
DROP TABLE IF EXISTS snapshot_students;
DROP TABLE IF EXISTS snapshot_instructors;
DROP TABLE IF EXISTS platform_snapshots;
`
