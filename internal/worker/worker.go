// Package worker drains the background job queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codezero/photomap/pkg/queue"
)

// PhotoRows soft-deletes photo rows.
type PhotoRows interface {
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// JobQueue is the part of queue.Queue the processor needs.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
	Backoff() time.Duration
}

// PhotoReconcileProcessor finishes photo deletes whose object was removed but whose row was not.
type PhotoReconcileProcessor struct {
	photos PhotoRows
	queue  JobQueue
	logger *zap.Logger
}

// NewPhotoReconcileProcessor creates a reconcile processor.
func NewPhotoReconcileProcessor(photos PhotoRows, q JobQueue, logger *zap.Logger) *PhotoReconcileProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoReconcileProcessor{photos: photos, queue: q, logger: logger}
}

// Process executes one job.
func (p *PhotoReconcileProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypePhotoReconcile {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.PhotoReconcilePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.photos.SoftDelete(ctx, payload.PhotoID); err != nil {
		return fmt.Errorf("soft-delete photo %s: %w", payload.PhotoID, err)
	}
	p.logger.Info("photo delete reconciled", zap.String("photo_id", payload.PhotoID.String()), zap.String("file_key", payload.FileKey))
	return nil
}

// Run dequeues and processes jobs until ctx is done. Failed jobs are retried after the queue backoff.
func (p *PhotoReconcileProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reconcile worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, p.queue.Backoff())
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, p.queue.Backoff())
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
