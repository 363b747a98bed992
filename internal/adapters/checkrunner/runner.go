// Package checkrunner runs the registration check worker: it claims waiting
// registration tasks, asks the lookup API whether each registrant is signed
// up for the job's service, and records the answer.
package checkrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/data"
	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/domain/model"
	"github.com/openpostbud/postbud/internal/observability/metrics"
	"github.com/openpostbud/postbud/internal/observability/statsd"
	"github.com/openpostbud/postbud/internal/ports"
)

// RunnerOptions configures the registration check runner.
type RunnerOptions struct {
	DB     *sql.DB
	Logger *slog.Logger

	// Lookup answers registration status questions. Required.
	Lookup ports.RegistrationLookup

	// Encryptor protects registrant ids at rest. Required when repos are
	// built from DB.
	Encryptor cryptoutil.Encryptor

	Concurrency  int           // number of worker goroutines; defaults to 1
	PollInterval time.Duration // sleep between claims on an empty queue; defaults to 5s

	// Optional dependency injections (useful for tests/decoupling)
	Tasks   core.RegistrationTaskRepository
	Jobs    core.RegistrationJobRepository
	Metrics statsd.Sink
}

// Runner pulls registration tasks and resolves them against the lookup API.
type Runner struct {
	tasks   core.RegistrationTaskRepository
	jobs    core.RegistrationJobRepository
	lookup  ports.RegistrationLookup
	logger  *slog.Logger
	workers int
	poll    time.Duration
	metrics statsd.Sink
}

// NewRunner wires repositories and constructs a registration check runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Lookup == nil {
		return nil, errors.New("registration lookup is required")
	}
	if opts.DB == nil && (opts.Tasks == nil || opts.Jobs == nil) {
		return nil, errors.New("either DB or task and job repositories must be provided")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}

	tasks := opts.Tasks
	if tasks == nil {
		if opts.Encryptor == nil {
			return nil, errors.New("encryptor is required to build the task repository")
		}
		tasks = data.NewRegistrationTaskRepo(opts.DB, opts.Encryptor, data.RepoConfig{Logger: logger})
	}
	jobs := opts.Jobs
	if jobs == nil {
		jobs = data.NewRegistrationJobRepo(opts.DB, data.RepoConfig{Logger: logger})
	}

	return &Runner{
		tasks:   tasks,
		jobs:    jobs,
		lookup:  opts.Lookup,
		logger:  logger,
		workers: workers,
		poll:    poll,
		metrics: opts.Metrics,
	}, nil
}

// Run starts worker goroutines and processes tasks until the context is
// cancelled or a handler fails. A handler error stops the whole runner; there
// is no in-process retry, the item is marked failed and the process restarts.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting check runner", "workers", r.workers, "poll_interval", r.poll)

	g, ctx := errgroup.WithContext(ctx)
	for range r.workers {
		g.Go(func() error {
			return r.workerLoop(ctx)
		})
	}
	return g.Wait()
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		task, err := r.tasks.ClaimNext(ctx)
		switch {
		case err == nil:
			if handleErr := r.processTask(ctx, task); handleErr != nil {
				return handleErr
			}
		case errors.Is(err, model.ErrNoItemsAvailable):
			if !r.sleep(ctx) {
				return ctx.Err()
			}
		default:
			return fmt.Errorf("claim task: %w", err)
		}
	}
	return ctx.Err()
}

// sleep waits one poll interval. Returns false when the context ended first.
func (r *Runner) sleep(ctx context.Context) bool {
	timer := time.NewTimer(r.poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Runner) processTask(ctx context.Context, task *model.RegistrationTask) error {
	start := time.Now()

	job, err := r.jobs.GetByID(ctx, task.JobID)
	if err != nil {
		return r.failTask(ctx, task.ID, start, fmt.Errorf("load job %d: %w", task.JobID, err))
	}

	registered, err := r.lookup.IsRegistered(ctx, task.RegistrantID, job.JobType)
	if err != nil {
		return r.failTask(ctx, task.ID, start, fmt.Errorf("lookup registration: %w", err))
	}

	completed, err := r.tasks.Complete(ctx, task.ID, registered)
	if err != nil {
		return r.failTask(ctx, task.ID, start, fmt.Errorf("complete task: %w", err))
	}

	result := metrics.ResultNoop
	if completed {
		result = metrics.ResultSuccess
	}
	metrics.EmitWorkItem(r.metrics, metrics.WorkItemMetric{
		Queue:      "registration_task",
		Transition: string(model.TaskStatusChecked),
		Result:     result,
		Duration:   time.Since(start),
	})
	return nil
}

// failTask marks the task failed (best effort) and returns the handler error
// so the runner stops. The claimed item never silently stays in checking.
func (r *Runner) failTask(ctx context.Context, id int64, start time.Time, cause error) error {
	if _, failErr := r.tasks.Fail(ctx, id); failErr != nil {
		r.logger.ErrorContext(ctx, "mark task failed error", "task_id", id, "error", failErr, "original_error", cause)
	}
	metrics.EmitWorkItem(r.metrics, metrics.WorkItemMetric{
		Queue:      "registration_task",
		Transition: string(model.TaskStatusFailed),
		Result:     metrics.ResultError,
		Duration:   time.Since(start),
	})
	return fmt.Errorf("task %d: %w", id, cause)
}
