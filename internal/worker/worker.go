// Package worker moves meetings through their persisted statuses as their
// schedules play out. A Scanner enqueues transitions and a StatusProcessor
// applies them.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/pkg/apperror"
	"github.com/aura-meetings/backend/pkg/queue"
)

// JobSource is the queue side the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Transitioner applies a status transition to a stored meeting.
type Transitioner interface {
	ApplyTransition(ctx context.Context, id string, from, to models.Status) (bool, error)
}

// StatusProcessor processes status transition jobs.
type StatusProcessor struct {
	meetings Transitioner
	queue    JobSource
	logger   *zap.Logger
	// Backoff is the pause after a failed dequeue or job.
	Backoff time.Duration
}

// NewStatusProcessor creates a status transition processor.
func NewStatusProcessor(meetings Transitioner, q JobSource, logger *zap.Logger) *StatusProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusProcessor{meetings: meetings, queue: q, logger: logger, Backoff: queue.RetryBackoff}
}

// Process executes one status transition job. Jobs for deleted meetings and
// transitions that are no longer valid are dropped without error.
func (p *StatusProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeStatusTransition {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.StatusTransitionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	from, to := models.Status(payload.From), models.Status(payload.To)
	applied, err := p.meetings.ApplyTransition(ctx, payload.MeetingID, from, to)
	switch {
	case errors.Is(err, apperror.ErrMeetingNotFound):
		p.logger.Info("meeting gone, dropping transition", zap.String("meeting_id", payload.MeetingID))
		return nil
	case errors.Is(err, apperror.ErrInvalidStatusTransition):
		p.logger.Warn("dropping invalid transition", zap.String("meeting_id", payload.MeetingID), zap.String("from", payload.From), zap.String("to", payload.To))
		return nil
	case err != nil:
		return fmt.Errorf("apply transition: %w", err)
	}
	if !applied {
		p.logger.Debug("meeting already moved on", zap.String("meeting_id", payload.MeetingID), zap.String("from", payload.From))
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *StatusProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("status worker stopping")
			return nil
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *StatusProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.Backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
