package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("job not found")

// Job states
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const jobKeyPrefix = "calc:job:"

// Job is an evaluation request queued for a worker
type Job struct {
	ID          string       `json:"job_id"`
	Request     calc.Request `json:"request"`
	SessionID   *int64       `json:"session_id,omitempty"`
	Principal   string       `json:"principal,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// JobStatus is the stored state of a job
type JobStatus struct {
	JobID       string       `json:"job_id"`
	Status      string       `json:"status"`
	Result      *calc.Result `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	WorkerID    string       `json:"worker_id,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Queue submits jobs to the work stream and reads their status
type Queue struct {
	redisClient *redis.Client
	streamKey   string
	ttl         time.Duration
}

// NewQueue creates a job queue
func NewQueue(redisClient *redis.Client, streamKey string, ttl time.Duration) *Queue {
	return &Queue{
		redisClient: redisClient,
		streamKey:   streamKey,
		ttl:         ttl,
	}
}

// Submit stores a queued status for the job and adds it to the work stream
func (q *Queue) Submit(ctx context.Context, req calc.Request, sessionID *int64, principal string) (*JobStatus, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}

	job := Job{
		ID:          id.String(),
		Request:     req,
		SessionID:   sessionID,
		Principal:   principal,
		SubmittedAt: time.Now().UTC(),
	}
	status := &JobStatus{
		JobID:       job.ID,
		Status:      StatusQueued,
		SubmittedAt: job.SubmittedAt,
	}

	if err := storeStatus(ctx, q.redisClient, status, q.ttl); err != nil {
		return nil, err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to publish to stream: %w", err)
	}

	return status, nil
}

// Status returns the stored status of a job
func (q *Queue) Status(ctx context.Context, id string) (*JobStatus, error) {
	data, err := q.redisClient.Get(ctx, jobKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job status: %w", err)
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}
	return &status, nil
}

// Ping checks the Redis connection
func (q *Queue) Ping(ctx context.Context) error {
	return q.redisClient.Ping(ctx).Err()
}

func storeStatus(ctx context.Context, client *redis.Client, status *JobStatus, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}
	if err := client.Set(ctx, jobKeyPrefix+status.JobID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job status: %w", err)
	}
	return nil
}

// parseJob parses a job from a Redis message
func parseJob(values map[string]interface{}) (*Job, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var job Job
	if err := json.Unmarshal([]byte(dataStr), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("job without id")
	}

	return &job, nil
}
