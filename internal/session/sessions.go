package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultTitle = "Untitled Session"

// Session is a workspace owned by a principal.
type Session struct {
	ID        int64      `json:"id"`
	Owner     string     `json:"user_id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Full is a session with all its rows.
type Full struct {
	Session
	Variables []Variable `json:"variables"`
	Programs  []Program  `json:"programs"`
	Graphs    []Graph    `json:"graphs"`
	History   []History  `json:"history_items"`
}

// Variable is a named JSON value stored in a session.
type Variable struct {
	ID        int64           `json:"id"`
	SessionID int64           `json:"session_id"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value_json"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at"`
}

// Program is a source snippet stored in a session.
type Program struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	Name      string     `json:"name"`
	Language  string     `json:"language"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Graph is a saved plot.
type Graph struct {
	ID         int64           `json:"id"`
	SessionID  int64           `json:"session_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Expression string          `json:"expression"`
	Parameters json.RawMessage `json:"parameters"`
	ImageData  *string         `json:"image_data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at"`
}

// History is one evaluation recorded in a session.
type History struct {
	ID        int64           `json:"id"`
	SessionID int64           `json:"session_id"`
	Input     string          `json:"input"`
	Output    json.RawMessage `json:"output_json"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateSession creates a session for owner. An empty title takes the
// default.
func (s *Store) CreateSession(ctx context.Context, owner, title string) (*Session, error) {
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (owner, title, created_at) VALUES (?, ?, ?)`,
		owner, title, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Session{ID: id, Owner: owner, Title: title, CreatedAt: now}, nil
}

// ListSessions returns the sessions of owner in creation order.
func (s *Store) ListSessions(ctx context.Context, owner string, skip, limit int) ([]Session, error) {
	skip, limit = pageBounds(skip, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, title, created_at, updated_at
		FROM sessions
		WHERE owner = ?
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, owner, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess    Session
		updated sql.NullTime
	)
	if err := row.Scan(&sess.ID, &sess.Owner, &sess.Title, &sess.CreatedAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Session")
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	sess.UpdatedAt = nullTime(updated)
	return &sess, nil
}

func (s *Store) getSession(ctx context.Context, owner string, id int64) (*Session, error) {
	return scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, owner, title, created_at, updated_at
		FROM sessions
		WHERE id = ? AND owner = ?
	`, id, owner))
}

// GetSession returns a session with its variables, programs, graphs and
// history, newest history first.
func (s *Store) GetSession(ctx context.Context, owner string, id int64) (*Full, error) {
	sess, err := s.getSession(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	full := &Full{Session: *sess}

	if full.Variables, err = s.listVariables(ctx, id); err != nil {
		return nil, err
	}
	if full.Programs, err = s.listPrograms(ctx, id); err != nil {
		return nil, err
	}
	if full.Graphs, err = s.listGraphs(ctx, id); err != nil {
		return nil, err
	}
	if full.History, err = s.listHistory(ctx, id, 0, -1); err != nil {
		return nil, err
	}
	return full, nil
}

// UpdateSession renames a session.
func (s *Store) UpdateSession(ctx context.Context, owner string, id int64, title string) (*Session, error) {
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ? AND owner = ?`,
		title, s.now(), id, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, notFound("Session")
	}
	return s.getSession(ctx, owner, id)
}

// DeleteSession deletes a session and everything in it.
func (s *Store) DeleteSession(ctx context.Context, owner string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ? AND owner = ?`, id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return notFound("Session")
	}
	return nil
}
