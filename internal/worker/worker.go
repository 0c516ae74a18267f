package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-node-calculator/internal/calc"
	"github.com/aescanero/dago-node-calculator/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Evaluator evaluates a calculator request
type Evaluator interface {
	Evaluate(ctx context.Context, req calc.Request) calc.Result
}

// HistoryRecorder persists evaluations of jobs bound to a session
type HistoryRecorder interface {
	RecordHistory(owner string, sessionID int64, input string, output any) bool
}

// Worker consumes evaluation jobs from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	evaluator     Evaluator
	recorder      HistoryRecorder
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker. recorder may be nil.
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	evaluator Evaluator,
	recorder HistoryRecorder,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		evaluator:     evaluator,
		recorder:      recorder,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting calculation worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	go w.processWork()

	w.logger.Info("calculation worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight job until ctx expires
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping calculation worker", zap.String("worker_id", w.id))

	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("failed to stop worker: %w", ctx.Err())
	}

	w.logger.Info("calculation worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork reads jobs from the stream until the worker is stopped
func (w *Worker) processWork() {
	defer close(w.done)
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single job message. The message is always
// acknowledged.
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	defer w.acknowledgeMessage(messageID)

	job, err := parseJob(message.Values)
	if err != nil {
		w.logger.Error("failed to parse job",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(messageID, "", err)
		return
	}

	w.logger.Info("processing job",
		zap.String("message_id", messageID),
		zap.String("job_id", job.ID),
	)

	status := w.process(w.ctx, job)

	if err := storeStatus(w.ctx, w.redisClient, status, w.config.JobResultTTL); err != nil {
		w.logger.Error("failed to store job status",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		w.publishError(messageID, job.ID, err)
		return
	}

	if err := w.publishResult(status); err != nil {
		w.logger.Error("failed to publish job result",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		w.publishError(messageID, job.ID, err)
	}
}

// process evaluates a job and records it in its session
func (w *Worker) process(ctx context.Context, job *Job) *JobStatus {
	result := w.evaluator.Evaluate(ctx, job.Request)
	now := time.Now().UTC()

	status := &JobStatus{
		JobID:       job.ID,
		Status:      StatusCompleted,
		Result:      &result,
		WorkerID:    w.id,
		SubmittedAt: job.SubmittedAt,
		CompletedAt: &now,
	}
	if result.Failed() {
		status.Status = StatusFailed
		status.Error = fmt.Sprint(result.Result)
	}

	if job.SessionID != nil && w.recorder != nil {
		if !w.recorder.RecordHistory(job.Principal, *job.SessionID, job.Request.Expr, result) {
			w.logger.Warn("job history not recorded",
				zap.String("job_id", job.ID),
				zap.Int64("session_id", *job.SessionID),
			)
		}
	}

	return status
}

// publishResult publishes a finished job to the result stream
func (w *Worker) publishResult(status *JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}

	_, err = w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published job result",
		zap.String("job_id", status.JobID),
		zap.String("status", status.Status),
	)
	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(messageID, jobID string, err error) {
	errorEvent := map[string]interface{}{
		"message_id": messageID,
		"job_id":     jobID,
		"worker_id":  w.id,
		"error":      err.Error(),
		"timestamp":  time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(errorEvent)
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	_, publishErr := w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.resultStream + ".errors",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(context.Background(), w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
