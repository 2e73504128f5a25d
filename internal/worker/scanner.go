package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aura-meetings/backend/internal/lifecycle"
	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/pkg/queue"
)

const defaultBatchSize = 100

// Lister finds meetings whose start or scheduled end has passed.
type Lister interface {
	ListByStatus(ctx context.Context, status models.Status, startsBefore time.Time, limit int) ([]models.Meeting, error)
	ListEnded(ctx context.Context, status models.Status, endedBefore time.Time, limit int) ([]models.Meeting, error)
}

// Enqueuer accepts status transition jobs.
type Enqueuer interface {
	EnqueueStatusTransition(ctx context.Context, payload queue.StatusTransitionPayload) error
}

// ScannerOptions configures a Scanner. Zero values fall back to defaults.
type ScannerOptions struct {
	Interval  time.Duration
	BatchSize int
	Location  *time.Location
	Now       func() time.Time
}

// Scanner periodically compares stored statuses with each meeting's schedule.
type Scanner struct {
	meetings Lister
	jobs     Enqueuer
	opts     ScannerOptions
	logger   *zap.Logger
}

// NewScanner creates a scanner over meetings that enqueues onto jobs.
func NewScanner(meetings Lister, jobs Enqueuer, opts ScannerOptions, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scanner{meetings: meetings, jobs: jobs, opts: opts, logger: logger}
}

// Target returns the status a meeting in current should move to given its
// derived status, and whether a move is due.
func Target(current models.Status, derived models.DerivedStatus) (models.Status, bool) {
	switch {
	case derived == models.DerivedEnded && (current == models.StatusScheduled || current == models.StatusInProgress):
		return models.StatusCompleted, true
	case derived == models.DerivedLive && current == models.StatusScheduled:
		return models.StatusInProgress, true
	}
	return "", false
}

// Scan enqueues every due transition once and returns how many were enqueued.
// A scheduled meeting whose start has passed is always due; in-progress
// meetings are only listed once their scheduled end has passed, so long
// running meetings never crowd ended ones out of the batch.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	now := s.opts.Now().In(s.opts.Location)
	enqueued := 0
	batches := []func() ([]models.Meeting, error){
		func() ([]models.Meeting, error) {
			return s.meetings.ListByStatus(ctx, models.StatusScheduled, now, s.opts.BatchSize)
		},
		func() ([]models.Meeting, error) {
			return s.meetings.ListEnded(ctx, models.StatusInProgress, now, s.opts.BatchSize)
		},
	}
	for _, batch := range batches {
		list, err := batch()
		if err != nil {
			return enqueued, err
		}
		for _, m := range list {
			to, due := Target(m.Status, lifecycle.Resolve(m.StartsAt, m.Duration, now))
			if !due {
				continue
			}
			err := s.jobs.EnqueueStatusTransition(ctx, queue.StatusTransitionPayload{
				MeetingID: m.ID,
				From:      string(m.Status),
				To:        string(to),
			})
			if err != nil {
				return enqueued, err
			}
			enqueued++
		}
	}
	return enqueued, nil
}

// Run scans immediately and then on every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		n, err := s.Scan(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.Warn("status scan failed", zap.Error(err))
		case n > 0:
			s.logger.Info("status transitions enqueued", zap.Int("count", n))
		}
		select {
		case <-ctx.Done():
			s.logger.Info("status scanner stopping")
			return nil
		case <-ticker.C:
		}
	}
}
