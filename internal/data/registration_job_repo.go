package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openpostbud/postbud/internal/domain/model"
)

// RegistrationJobRepo provides database operations for registration jobs.
// Jobs are immutable after creation; there are no update operations.
type RegistrationJobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRegistrationJobRepo creates a new RegistrationJobRepo.
func NewRegistrationJobRepo(db *sql.DB, cfg RepoConfig) *RegistrationJobRepo {
	return &RegistrationJobRepo{DB: db, timeProvider: cfg.timeProvider()}
}

const registrationJobColumns = `id, name, description, job_type, created_at, created_by`

// CreateInTx inserts a registration job within an existing transaction and
// returns the created row. Tasks are inserted in the same transaction so a
// job can never appear without its work items.
func (r *RegistrationJobRepo) CreateInTx(
	ctx context.Context,
	tx *sql.Tx,
	req *model.CreateRegistrationJobRequest,
) (*model.RegistrationJob, error) {
	if tx == nil {
		return nil, errors.New("transaction is required")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO registration_jobs (name, description, job_type, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+registrationJobColumns,
		req.Name, req.Description, req.JobType, r.timeProvider.Now().UTC(), req.CreatedBy)

	job, err := scanRegistrationJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert registration job: %w", err)
	}
	return job, nil
}

// GetByID returns a single registration job.
func (r *RegistrationJobRepo) GetByID(ctx context.Context, id int64) (*model.RegistrationJob, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+registrationJobColumns+`
		FROM registration_jobs
		WHERE id = $1
	`, id)
	job, err := scanRegistrationJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("registration job %d: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get registration job: %w", err)
	}
	return job, nil
}

// List returns all registration jobs in creation order.
func (r *RegistrationJobRepo) List(ctx context.Context) ([]*model.RegistrationJob, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+registrationJobColumns+`
		FROM registration_jobs
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query registration jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.RegistrationJob
	for rows.Next() {
		job, scanErr := scanRegistrationJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan registration job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return jobs, nil
}

func scanRegistrationJob(scanner rowScanner) (*model.RegistrationJob, error) {
	job := &model.RegistrationJob{}
	if err := scanner.Scan(&job.ID, &job.Name, &job.Description, &job.JobType, &job.CreatedAt, &job.CreatedBy); err != nil {
		return nil, err
	}
	job.CreatedAt = job.CreatedAt.UTC()
	return job, nil
}
