// Package reaper provides the adapter for running the stuck-item reaper.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openpostbud/postbud/config"
	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/data"
	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/observability/statsd"
	"github.com/openpostbud/postbud/internal/service"
)

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB        *sql.DB
	Config    config.ReaperConfig
	Logger    *slog.Logger
	Encryptor cryptoutil.Encryptor

	// Optional dependency injection for testing/decoupling
	Repo    core.ReaperRepository
	Metrics statsd.Sink
}

// Runner provides a simple adapter to run the reaper loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && opts.Repo == nil {
		return nil, errors.New("either DB or reaper repository must be provided")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repo := opts.Repo
	if repo == nil {
		if opts.Encryptor == nil {
			return nil, errors.New("encryptor is required to build the reaper repositories")
		}
		repo = &reaperRepoAdapter{
			tasks:   data.NewRegistrationTaskRepo(opts.DB, opts.Encryptor, data.RepoConfig{Logger: logger}),
			letters: data.NewLetterRepo(opts.DB, opts.Encryptor, data.RepoConfig{Logger: logger}),
		}
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:    repo,
		Config:  opts.Config,
		Logger:  logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}

// reaperRepoAdapter adapts the task and letter repos to the ReaperRepository interface.
type reaperRepoAdapter struct {
	tasks   *data.RegistrationTaskRepo
	letters *data.LetterRepo
}

func (a *reaperRepoAdapter) RequeueStuckTasks(ctx context.Context, maxAge time.Duration) (int64, error) {
	return a.tasks.RequeueStuck(ctx, maxAge)
}

func (a *reaperRepoAdapter) RequeueStuckLetters(ctx context.Context, maxAge time.Duration) (int64, error) {
	return a.letters.RequeueStuck(ctx, maxAge)
}

func (a *reaperRepoAdapter) PruneTerminalTasks(ctx context.Context, maxAge time.Duration) (int64, error) {
	return a.tasks.PruneTerminal(ctx, maxAge)
}

func (a *reaperRepoAdapter) PruneTerminalLetters(ctx context.Context, maxAge time.Duration) (int64, error) {
	return a.letters.PruneTerminal(ctx, maxAge)
}
