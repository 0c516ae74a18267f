package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Writer is the subset of Store used by Recorder.
type Writer interface {
	AddHistory(ctx context.Context, owner string, sessionID int64, input string, output any) (*History, error)
	SaveGraph(ctx context.Context, owner string, g Graph) (*Graph, error)
}

const writeTimeout = 5 * time.Second

type record struct {
	owner   string
	history *History
	output  any
	graph   *Graph
}

// Recorder persists history and graph rows in the background. A single
// goroutine drains a bounded queue; failed writes are logged and not retried.
type Recorder struct {
	writer Writer
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan record
	done   chan struct{}
}

// NewRecorder starts a Recorder with room for size pending records.
func NewRecorder(writer Writer, size int, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = 1
	}
	r := &Recorder{
		writer: writer,
		logger: logger,
		queue:  make(chan record, size),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// RecordHistory queues an evaluation for session sessionID. It reports
// whether the record was accepted.
func (r *Recorder) RecordHistory(owner string, sessionID int64, input string, output any) bool {
	return r.enqueue(record{
		owner:   owner,
		history: &History{SessionID: sessionID, Input: input},
		output:  output,
	})
}

// RecordGraph queues a saved graph. It reports whether the record was
// accepted.
func (r *Recorder) RecordGraph(owner string, g Graph) bool {
	return r.enqueue(record{owner: owner, graph: &g})
}

func (r *Recorder) enqueue(rec record) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}
	select {
	case r.queue <- rec:
		return true
	default:
		r.logger.Warn("recorder queue full, dropping record",
			zap.String("owner", rec.owner),
			zap.Int("capacity", cap(r.queue)))
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		r.write(rec)
	}
}

func (r *Recorder) write(rec record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	switch {
	case rec.history != nil:
		if _, err := r.writer.AddHistory(ctx, rec.owner, rec.history.SessionID, rec.history.Input, rec.output); err != nil {
			r.logger.Error("failed to record history",
				zap.Int64("session_id", rec.history.SessionID),
				zap.Error(err))
		}
	case rec.graph != nil:
		if _, err := r.writer.SaveGraph(ctx, rec.owner, *rec.graph); err != nil {
			r.logger.Error("failed to save graph",
				zap.Int64("session_id", rec.graph.SessionID),
				zap.Error(err))
		}
	}
}

// Close stops accepting records and waits until the queue is drained or ctx
// ends.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
