package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openpostbud/postbud/config"
	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/observability/metrics"
	"github.com/openpostbud/postbud/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository
	Config  config.ReaperConfig
	Logger  *slog.Logger // optional
	Metrics statsd.Sink  // optional
}

// ReaperService periodically requeues work items abandoned by crashed workers
// and, when a retention window is configured, prunes old terminal rows.
// It is opt-in; without it stuck items wait for operator intervention.
type ReaperService struct {
	repo    core.ReaperRepository
	cfg     config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("reaper repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReaperService{
		repo:    opts.Repo,
		cfg:     opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run executes reap cycles on the configured interval until the context is
// cancelled. One cycle runs immediately on start.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper",
		"interval", s.cfg.Interval,
		"stuck_max_age", s.cfg.StuckMaxAge,
		"retention_max_age", s.cfg.RetentionMaxAge,
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce performs a single reap cycle. Individual operations fail
// independently; one broken table never blocks requeueing the other.
func (s *ReaperService) runOnce(ctx context.Context) {
	if n, err := s.repo.RequeueStuckTasks(ctx, s.cfg.StuckMaxAge); err != nil {
		s.logger.ErrorContext(ctx, "requeue stuck tasks failed", "error", err)
	} else {
		metrics.EmitRequeued(s.metrics, "registration_task", n)
	}

	if n, err := s.repo.RequeueStuckLetters(ctx, s.cfg.StuckMaxAge); err != nil {
		s.logger.ErrorContext(ctx, "requeue stuck letters failed", "error", err)
	} else {
		metrics.EmitRequeued(s.metrics, "letter", n)
	}

	if s.cfg.RetentionMaxAge <= 0 {
		return
	}

	if n, err := s.repo.PruneTerminalTasks(ctx, s.cfg.RetentionMaxAge); err != nil {
		s.logger.ErrorContext(ctx, "prune terminal tasks failed", "error", err)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "pruned terminal tasks", "count", n)
	}

	if n, err := s.repo.PruneTerminalLetters(ctx, s.cfg.RetentionMaxAge); err != nil {
		s.logger.ErrorContext(ctx, "prune terminal letters failed", "error", err)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "pruned terminal letters", "count", n)
	}
}
