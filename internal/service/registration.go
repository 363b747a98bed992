package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpostbud/postbud/internal/core"
	"github.com/openpostbud/postbud/internal/data/pgxutil"
	"github.com/openpostbud/postbud/internal/domain/model"
	"github.com/openpostbud/postbud/internal/domain/obfuscate"
	"github.com/openpostbud/postbud/internal/ingest"
)

// RegistrationJobPrefix salts the obfuscated public ids of registration jobs.
const RegistrationJobPrefix = "R"

// RegistrationServiceOptions groups dependencies for RegistrationService.
type RegistrationServiceOptions struct {
	DB     *sql.DB
	Jobs   core.RegistrationJobRepository
	Tasks  core.RegistrationTaskRepository
	Logger *slog.Logger
}

// RegistrationService orchestrates registration job creation and task access.
// A job and all of its tasks are created in one transaction, so a job can
// never be observed partially ingested.
type RegistrationService struct {
	db     *sql.DB
	jobs   core.RegistrationJobRepository
	tasks  core.RegistrationTaskRepository
	codec  obfuscate.Codec
	logger *slog.Logger
}

// NewRegistrationService constructs a new RegistrationService.
func NewRegistrationService(opts RegistrationServiceOptions) (*RegistrationService, error) {
	if opts.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Jobs == nil || opts.Tasks == nil {
		return nil, errors.New("job and task repositories are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		db:     opts.DB,
		jobs:   opts.Jobs,
		tasks:  opts.Tasks,
		codec:  obfuscate.New(RegistrationJobPrefix),
		logger: logger,
	}, nil
}

// CreateWithTasks validates the registrant list, then creates the job and one
// waiting task per registrant in a single transaction. Any bad input rejects
// the whole list before the first insert.
func (s *RegistrationService) CreateWithTasks(
	ctx context.Context,
	req *model.CreateRegistrationJobRequest,
	registrantList []byte,
) (*model.RegistrationJob, error) {
	registrants, err := ingest.Registrants(registrantList)
	if err != nil {
		return nil, fmt.Errorf("parse registrant list: %w", err)
	}
	req.Registrants = registrants

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate job request: %w", err)
	}

	var job *model.RegistrationJob
	err = pgxutil.WithSQLTx(ctx, s.db, func(tx *sql.Tx) error {
		created, txErr := s.jobs.CreateInTx(ctx, tx, req)
		if txErr != nil {
			return txErr
		}
		job = created
		return s.tasks.BulkInsertInTx(ctx, tx, job.ID, req.Registrants)
	})
	if err != nil {
		return nil, fmt.Errorf("create registration job: %w", err)
	}

	s.logger.InfoContext(ctx, "registration job created",
		"job_id", job.ID,
		"public_id", s.codec.Format(job.ID),
		"job_type", job.JobType,
		"tasks", len(registrants),
	)
	return job, nil
}

// Get returns one registration job by internal id.
func (s *RegistrationService) Get(ctx context.Context, id int64) (*model.RegistrationJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// List returns all registration jobs.
func (s *RegistrationService) List(ctx context.Context) ([]*model.RegistrationJob, error) {
	return s.jobs.List(ctx)
}

// Tasks returns the tasks of one job with registrant ids decrypted.
func (s *RegistrationService) Tasks(ctx context.Context, jobID int64) ([]*model.RegistrationTask, error) {
	return s.tasks.ListByJob(ctx, jobID)
}

// Stats returns per-status task counts for one job.
func (s *RegistrationService) Stats(ctx context.Context, jobID int64) (model.TaskStats, error) {
	return s.tasks.StatsByJob(ctx, jobID)
}

// RequeueTask moves one failed task back to waiting. Returns false when the
// task was not in the failed status.
func (s *RegistrationService) RequeueTask(ctx context.Context, taskID int64) (bool, error) {
	requeued, err := s.tasks.Requeue(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("requeue task: %w", err)
	}
	if requeued {
		s.logger.InfoContext(ctx, "registration task requeued", "task_id", taskID)
	}
	return requeued, nil
}

// PublicID returns the obfuscated identifier shown outside the system.
func (s *RegistrationService) PublicID(id int64) string {
	return s.codec.Format(id)
}

// ResolveID maps an obfuscated identifier back to the internal job id.
func (s *RegistrationService) ResolveID(public string) (int64, error) {
	return s.codec.Parse(public)
}
