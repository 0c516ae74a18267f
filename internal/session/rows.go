package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func jsonText(v json.RawMessage) (string, error) {
	if len(v) == 0 {
		return "null", nil
	}
	if !json.Valid(v) {
		return "", fmt.Errorf("%w: value is not valid JSON", ErrInvalid)
	}
	return string(v), nil
}

// CreateVariable stores v in its session.
func (s *Store) CreateVariable(ctx context.Context, owner string, v Variable) (*Variable, error) {
	if strings.TrimSpace(v.Name) == "" {
		return nil, fmt.Errorf("%w: variable name is required", ErrInvalid)
	}
	value, err := jsonText(v.Value)
	if err != nil {
		return nil, err
	}
	if err := s.ownSession(ctx, owner, v.SessionID); err != nil {
		return nil, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO variables (session_id, name, value_json, created_at) VALUES (?, ?, ?, ?)`,
		v.SessionID, v.Name, value, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create variable: %w", err)
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to create variable: %w", err)
	}
	v.Value = json.RawMessage(value)
	v.CreatedAt = now
	v.UpdatedAt = nil
	if err := s.touch(ctx, v.SessionID); err != nil {
		return nil, err
	}
	return &v, nil
}

const variableColumns = `id, session_id, name, value_json, created_at, updated_at`

func scanVariable(row scanner) (*Variable, error) {
	var (
		v       Variable
		value   string
		updated sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.SessionID, &v.Name, &value, &v.CreatedAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Variable")
		}
		return nil, fmt.Errorf("failed to scan variable: %w", err)
	}
	v.Value = json.RawMessage(value)
	v.UpdatedAt = nullTime(updated)
	return &v, nil
}

// GetVariable returns a variable from a session owned by owner.
func (s *Store) GetVariable(ctx context.Context, owner string, id int64) (*Variable, error) {
	if _, err := s.childSession(ctx, owner, "variables", "Variable", id); err != nil {
		return nil, err
	}
	return scanVariable(s.db.QueryRowContext(ctx,
		`SELECT `+variableColumns+` FROM variables WHERE id = ?`, id))
}

// UpdateVariable replaces the name and value of a variable.
func (s *Store) UpdateVariable(ctx context.Context, owner string, id int64, name string, value json.RawMessage) (*Variable, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: variable name is required", ErrInvalid)
	}
	text, err := jsonText(value)
	if err != nil {
		return nil, err
	}
	sessionID, err := s.childSession(ctx, owner, "variables", "Variable", id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE variables SET name = ?, value_json = ?, updated_at = ? WHERE id = ?`,
		name, text, s.now(), id,
	); err != nil {
		return nil, fmt.Errorf("failed to update variable: %w", err)
	}
	if err := s.touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.GetVariable(ctx, owner, id)
}

// DeleteVariable removes a variable.
func (s *Store) DeleteVariable(ctx context.Context, owner string, id int64) error {
	return s.deleteChild(ctx, owner, "variables", "Variable", id)
}

func (s *Store) deleteChild(ctx context.Context, owner, table, resource string, id int64) error {
	sessionID, err := s.childSession(ctx, owner, table, resource, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return s.touch(ctx, sessionID)
}

func (s *Store) listVariables(ctx context.Context, sessionID int64) ([]Variable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+variableColumns+` FROM variables WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	defer rows.Close()

	out := []Variable{}
	for rows.Next() {
		v, err := scanVariable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variables: %w", err)
	}
	return out, nil
}

// CreateProgram stores p in its session.
func (s *Store) CreateProgram(ctx context.Context, owner string, p Program) (*Program, error) {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Untitled Program"
	}
	if strings.TrimSpace(p.Language) == "" {
		return nil, fmt.Errorf("%w: program language is required", ErrInvalid)
	}
	if err := s.ownSession(ctx, owner, p.SessionID); err != nil {
		return nil, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO programs (session_id, name, language, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.SessionID, p.Name, p.Language, p.Source, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = nil
	if err := s.touch(ctx, p.SessionID); err != nil {
		return nil, err
	}
	return &p, nil
}

const programColumns = `id, session_id, name, language, source, created_at, updated_at`

func scanProgram(row scanner) (*Program, error) {
	var (
		p       Program
		updated sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.SessionID, &p.Name, &p.Language, &p.Source, &p.CreatedAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Program")
		}
		return nil, fmt.Errorf("failed to scan program: %w", err)
	}
	p.UpdatedAt = nullTime(updated)
	return &p, nil
}

// GetProgram returns a program from a session owned by owner.
func (s *Store) GetProgram(ctx context.Context, owner string, id int64) (*Program, error) {
	if _, err := s.childSession(ctx, owner, "programs", "Program", id); err != nil {
		return nil, err
	}
	return scanProgram(s.db.QueryRowContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = ?`, id))
}

// UpdateProgram replaces the name, language and source of a program.
func (s *Store) UpdateProgram(ctx context.Context, owner string, id int64, p Program) (*Program, error) {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Untitled Program"
	}
	if strings.TrimSpace(p.Language) == "" {
		return nil, fmt.Errorf("%w: program language is required", ErrInvalid)
	}
	sessionID, err := s.childSession(ctx, owner, "programs", "Program", id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE programs SET name = ?, language = ?, source = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Language, p.Source, s.now(), id,
	); err != nil {
		return nil, fmt.Errorf("failed to update program: %w", err)
	}
	if err := s.touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.GetProgram(ctx, owner, id)
}

// DeleteProgram removes a program.
func (s *Store) DeleteProgram(ctx context.Context, owner string, id int64) error {
	return s.deleteChild(ctx, owner, "programs", "Program", id)
}

func (s *Store) listPrograms(ctx context.Context, sessionID int64) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+programColumns+` FROM programs WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	out := []Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate programs: %w", err)
	}
	return out, nil
}

// SaveGraph stores g in its session.
func (s *Store) SaveGraph(ctx context.Context, owner string, g Graph) (*Graph, error) {
	if strings.TrimSpace(g.Name) == "" {
		g.Name = "Untitled Graph"
	}
	if g.Type == "" || g.Expression == "" {
		return nil, fmt.Errorf("%w: graph type and expression are required", ErrInvalid)
	}
	params, err := jsonText(g.Parameters)
	if err != nil {
		return nil, err
	}
	if err := s.ownSession(ctx, owner, g.SessionID); err != nil {
		return nil, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO graphs (session_id, name, type, expression, parameters, image_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, g.SessionID, g.Name, g.Type, g.Expression, params, g.ImageData, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}
	g.Parameters = json.RawMessage(params)
	g.CreatedAt = now
	g.UpdatedAt = nil
	if err := s.touch(ctx, g.SessionID); err != nil {
		return nil, err
	}
	return &g, nil
}

const graphColumns = `id, session_id, name, type, expression, parameters, image_data, created_at, updated_at`

func scanGraph(row scanner) (*Graph, error) {
	var (
		g       Graph
		params  string
		image   sql.NullString
		updated sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.SessionID, &g.Name, &g.Type, &g.Expression, &params, &image, &g.CreatedAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Graph")
		}
		return nil, fmt.Errorf("failed to scan graph: %w", err)
	}
	g.Parameters = json.RawMessage(params)
	if image.Valid {
		g.ImageData = &image.String
	}
	g.UpdatedAt = nullTime(updated)
	return &g, nil
}

// GetGraph returns a saved graph from a session owned by owner.
func (s *Store) GetGraph(ctx context.Context, owner string, id int64) (*Graph, error) {
	if _, err := s.childSession(ctx, owner, "graphs", "Graph", id); err != nil {
		return nil, err
	}
	return scanGraph(s.db.QueryRowContext(ctx,
		`SELECT `+graphColumns+` FROM graphs WHERE id = ?`, id))
}

// DeleteGraph removes a saved graph.
func (s *Store) DeleteGraph(ctx context.Context, owner string, id int64) error {
	return s.deleteChild(ctx, owner, "graphs", "Graph", id)
}

func (s *Store) listGraphs(ctx context.Context, sessionID int64) ([]Graph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+graphColumns+` FROM graphs WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}
	defer rows.Close()

	out := []Graph{}
	for rows.Next() {
		g, err := scanGraph(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate graphs: %w", err)
	}
	return out, nil
}

// AddHistory records an evaluation. output is encoded as JSON.
func (s *Store) AddHistory(ctx context.Context, owner string, sessionID int64, input string, output any) (*History, error) {
	raw, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history output: %w", err)
	}
	if err := s.ownSession(ctx, owner, sessionID); err != nil {
		return nil, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO history (session_id, input, output_json, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, input, string(raw), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to add history: %w", err)
	}
	return &History{ID: id, SessionID: sessionID, Input: input, Output: raw, CreatedAt: now}, nil
}

// ListHistory returns the history of a session, newest first.
func (s *Store) ListHistory(ctx context.Context, owner string, sessionID int64, skip, limit int) ([]History, error) {
	if err := s.ownSession(ctx, owner, sessionID); err != nil {
		return nil, err
	}
	skip, limit = pageBounds(skip, limit)
	return s.listHistory(ctx, sessionID, skip, limit)
}

// listHistory lists newest first. A negative limit lists everything.
func (s *Store) listHistory(ctx context.Context, sessionID int64, skip, limit int) ([]History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, input, output_json, created_at
		FROM history
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, sessionID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	out := []History{}
	for rows.Next() {
		var (
			h      History
			output string
		)
		if err := rows.Scan(&h.ID, &h.SessionID, &h.Input, &output, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		h.Output = json.RawMessage(output)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}
