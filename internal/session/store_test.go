package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)

		var version int
		require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
		assert.Equal(t, currentSchemaVersion, version)

		var mode string
		require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
		require.NoError(t, s.Close())
	}
}

func TestSessions_CRUD(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled Session", sess.Title)
	assert.Equal(t, "alice", sess.Owner)
	assert.Nil(t, sess.UpdatedAt)

	_, err = s.CreateSession(ctx, "alice", "Second")
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, "bob", "Bob's")
	require.NoError(t, err)

	list, err := s.ListSessions(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[1].Title)

	list, err = s.ListSessions(ctx, "alice", 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = s.ListSessions(ctx, "carol", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	updated, err := s.UpdateSession(ctx, "alice", sess.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.NotNil(t, updated.UpdatedAt)
	assert.WithinDuration(t, sess.CreatedAt, updated.CreatedAt, time.Millisecond)

	full, err := s.GetSession(ctx, "alice", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", full.Title)
	assert.Empty(t, full.Variables)
	assert.Empty(t, full.History)

	require.NoError(t, s.DeleteSession(ctx, "alice", sess.ID))
	_, err = s.GetSession(ctx, "alice", sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Session not found")
}

func TestSessions_Ownership(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "Private")
	require.NoError(t, err)

	_, err = s.GetSession(ctx, "bob", sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateSession(ctx, "bob", sess.ID, "Mine")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteSession(ctx, "bob", sess.ID), ErrNotFound)

	_, err = s.CreateVariable(ctx, "bob", Variable{SessionID: sess.ID, Name: "x", Value: json.RawMessage(`1`)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddHistory(ctx, "bob", sess.ID, "1+1", map[string]any{"result": 2})
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := s.CreateVariable(ctx, "alice", Variable{SessionID: sess.ID, Name: "x", Value: json.RawMessage(`1`)})
	require.NoError(t, err)
	_, err = s.GetVariable(ctx, "bob", v.ID)
	assert.EqualError(t, err, "Session not found")

	_, err = s.GetVariable(ctx, "alice", v.ID+100)
	assert.EqualError(t, err, "Variable not found")

	// the session still exists for its owner
	_, err = s.GetSession(ctx, "alice", sess.ID)
	assert.NoError(t, err)
}

func TestVariablesAndPrograms(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "Work")
	require.NoError(t, err)

	v, err := s.CreateVariable(ctx, "alice", Variable{SessionID: sess.ID, Name: "a", Value: json.RawMessage(`{"value": 3}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 3}`, string(v.Value))

	_, err = s.CreateVariable(ctx, "alice", Variable{SessionID: sess.ID, Name: "b", Value: json.RawMessage(`{bad`)})
	assert.ErrorIs(t, err, ErrInvalid)

	v, err = s.UpdateVariable(ctx, "alice", v.ID, "a2", json.RawMessage(`[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, "a2", v.Name)
	assert.JSONEq(t, `[1, 2]`, string(v.Value))
	assert.NotNil(t, v.UpdatedAt)

	p, err := s.CreateProgram(ctx, "alice", Program{SessionID: sess.ID, Language: "python", Source: "print(1)"})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Program", p.Name)

	_, err = s.CreateProgram(ctx, "alice", Program{SessionID: sess.ID, Source: "x"})
	assert.ErrorIs(t, err, ErrInvalid)

	p, err = s.UpdateProgram(ctx, "alice", p.ID, Program{Name: "hello", Language: "python", Source: "print(2)"})
	require.NoError(t, err)
	assert.Equal(t, "print(2)", p.Source)

	got, err := s.GetProgram(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Name)

	full, err := s.GetSession(ctx, "alice", sess.ID)
	require.NoError(t, err)
	assert.Len(t, full.Variables, 1)
	assert.Len(t, full.Programs, 1)
	assert.NotNil(t, full.UpdatedAt)

	require.NoError(t, s.DeleteVariable(ctx, "alice", v.ID))
	require.NoError(t, s.DeleteProgram(ctx, "alice", p.ID))
	_, err = s.GetProgram(ctx, "alice", p.ID)
	assert.EqualError(t, err, "Program not found")
}

func TestHistoryAndGraphs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "alice", "Work")
	require.NoError(t, err)

	for _, in := range []string{"1+1", "2+2", "3+3"} {
		_, err := s.AddHistory(ctx, "alice", sess.ID, in, map[string]any{"type": "number"})
		require.NoError(t, err)
	}

	hist, err := s.ListHistory(ctx, "alice", sess.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "3+3", hist[0].Input)
	assert.Equal(t, "2+2", hist[1].Input)
	assert.JSONEq(t, `{"type": "number"}`, string(hist[0].Output))

	hist, err = s.ListHistory(ctx, "alice", sess.ID, 2, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "1+1", hist[0].Input)

	_, err = s.ListHistory(ctx, "bob", sess.ID, 0, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	image := "data:image/png;base64,AAAA"
	g, err := s.SaveGraph(ctx, "alice", Graph{
		SessionID:  sess.ID,
		Type:       "2d",
		Expression: "sin(x)",
		Parameters: json.RawMessage(`{"domain": {"x_min": -1}}`),
		ImageData:  &image,
	})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Graph", g.Name)

	got, err := s.GetGraph(ctx, "alice", g.ID)
	require.NoError(t, err)
	assert.Equal(t, "sin(x)", got.Expression)
	require.NotNil(t, got.ImageData)
	assert.Equal(t, image, *got.ImageData)

	_, err = s.GetGraph(ctx, "bob", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	full, err := s.GetSession(ctx, "alice", sess.ID)
	require.NoError(t, err)
	assert.Len(t, full.History, 3)
	assert.Len(t, full.Graphs, 1)

	// rows go with their session
	require.NoError(t, s.DeleteSession(ctx, "alice", sess.ID))
	_, err = s.GetGraph(ctx, "alice", g.ID)
	assert.EqualError(t, err, "Graph not found")

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&n))
	assert.Zero(t, n)
}
