package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	inputs  []string
	graphs  []string
	block   chan struct{}
	failing bool
}

func (w *fakeWriter) AddHistory(_ context.Context, _ string, _ int64, input string, _ any) (*History, error) {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failing {
		return nil, errors.New("disk full")
	}
	w.inputs = append(w.inputs, input)
	return &History{Input: input}, nil
}

func (w *fakeWriter) SaveGraph(_ context.Context, _ string, g Graph) (*Graph, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.graphs = append(w.graphs, g.Expression)
	return &g, nil
}

func TestRecorder_DrainsOnClose(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(w, 16, nil)

	assert.True(t, r.RecordHistory("alice", 1, "1+1", 2.0))
	assert.True(t, r.RecordHistory("alice", 1, "2+2", 4.0))
	assert.True(t, r.RecordGraph("alice", Graph{SessionID: 1, Expression: "sin(x)"}))

	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, []string{"1+1", "2+2"}, w.inputs)
	assert.Equal(t, []string{"sin(x)"}, w.graphs)

	// closed recorders drop records
	assert.False(t, r.RecordHistory("alice", 1, "3+3", 6.0))
	require.NoError(t, r.Close(context.Background()))
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	r := NewRecorder(w, 1, nil)

	// the first record is taken by the writer goroutine and blocks it
	require.True(t, r.RecordHistory("alice", 1, "a", nil))
	require.Eventually(t, func() bool { return len(r.queue) == 0 }, time.Second, time.Millisecond)

	assert.True(t, r.RecordHistory("alice", 1, "b", nil))
	assert.False(t, r.RecordHistory("alice", 1, "c", nil))

	close(w.block)
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, []string{"a", "b"}, w.inputs)
}

func TestRecorder_FailuresAreNotRetried(t *testing.T) {
	w := &fakeWriter{failing: true}
	r := NewRecorder(w, 4, nil)

	assert.True(t, r.RecordHistory("alice", 1, "1/0", nil))
	require.NoError(t, r.Close(context.Background()))
	assert.Empty(t, w.inputs)
}

func TestRecorder_WithStore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, "alice", "")
	require.NoError(t, err)

	r := NewRecorder(s, 4, nil)
	r.RecordHistory("alice", sess.ID, "sin(pi/2)", map[string]any{"result": 1.0, "type": "number"})
	// not alice's session: logged and dropped
	r.RecordHistory("bob", sess.ID, "1+1", nil)
	require.NoError(t, r.Close(ctx))

	hist, err := s.ListHistory(ctx, "alice", sess.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.JSONEq(t, `{"result": 1.0, "type": "number"}`, string(hist[0].Output))
}
