package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultQueue is the Redis list key for background jobs.
	DefaultQueue = "photomap:jobs"
	// DefaultMaxRetries is the number of attempts before a job moves to the DLQ.
	DefaultMaxRetries = 3
	// DefaultRetryBackoff is the delay between retries.
	DefaultRetryBackoff = 10 * time.Second

	dequeueTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	// JobTypePhotoReconcile finishes a photo delete whose object is gone but whose row is not yet soft-deleted.
	JobTypePhotoReconcile JobType = "photo.reconcile"
)

// PhotoReconcilePayload is the payload for photo reconcile jobs.
type PhotoReconcilePayload struct {
	PhotoID uuid.UUID `json:"photo_id"`
	FileKey string    `json:"file_key"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Options configures queue names and the retry policy.
type Options struct {
	Name         string
	MaxRetries   int
	RetryBackoff time.Duration
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	opts   Options
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, opts Options, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = DefaultQueue
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	return &Queue{client: client, opts: opts, logger: logger}
}

// DLQ returns the dead-letter list key.
func (q *Queue) DLQ() string { return q.opts.Name + ":dlq" }

// Backoff returns the configured delay between retries.
func (q *Queue) Backoff() time.Duration { return q.opts.RetryBackoff }

// Enqueue wraps payload in a job envelope and pushes it.
func (q *Queue) Enqueue(ctx context.Context, jobType JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   body,
		CreatedAt: time.Now(),
	}
	if err := q.push(ctx, q.opts.Name, job); err != nil {
		return nil, err
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(jobType)))
	return job, nil
}

// EnqueuePhotoReconcile schedules a retry of the soft-delete of photoID.
func (q *Queue) EnqueuePhotoReconcile(ctx context.Context, photoID uuid.UUID, fileKey string) error {
	_, err := q.Enqueue(ctx, JobTypePhotoReconcile, PhotoReconcilePayload{PhotoID: photoID, FileKey: fileKey})
	return err
}

// Dequeue waits briefly for a job. It returns nil, nil when none arrived.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, dequeueTimeout, q.opts.Name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. Once attempts reach MaxRetries it goes to the DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= q.opts.MaxRetries {
		if err := q.push(ctx, q.DLQ(), job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, q.opts.Name, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}
