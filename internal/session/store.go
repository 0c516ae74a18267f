package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - initial schema
// 1 - history index for newest-first listing
const currentSchemaVersion = 1

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned for records missing required fields.
	ErrInvalid = errors.New("invalid record")
)

// NotFoundError names the missing resource. Sessions owned by another
// principal are reported as missing.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(resource string) error { return &NotFoundError{Resource: resource} }

// Store is the SQLite session store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path, applying pragmas and
// migrations. Opening an existing database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_session_created
		ON history(session_id, created_at DESC, id DESC)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// ownSession returns nil when session id exists and belongs to owner.
func (s *Store) ownSession(ctx context.Context, owner string, id int64) error {
	var found int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE id = ? AND owner = ?`, id, owner,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("Session")
	}
	if err != nil {
		return fmt.Errorf("failed to check session ownership: %w", err)
	}
	return nil
}

// childSession returns the session of a row in table after checking it
// exists and that its session belongs to owner.
func (s *Store) childSession(ctx context.Context, owner, table, resource string, id int64) (int64, error) {
	var sessionID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM `+table+` WHERE id = ?`, id,
	).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound(resource)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", table, err)
	}
	if err := s.ownSession(ctx, owner, sessionID); err != nil {
		return 0, err
	}
	return sessionID, nil
}

// touch bumps updated_at on a session.
func (s *Store) touch(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, s.now(), id,
	); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func pageBounds(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = 100
	case limit > 1000:
		limit = 1000
	}
	return skip, limit
}
