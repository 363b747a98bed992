package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/data/pgxutil"
	"github.com/openpostbud/postbud/internal/domain/model"
)

// RegistrationTaskRepo provides database operations for registration tasks,
// including the atomic claim used by the check worker.
type RegistrationTaskRepo struct {
	DB           *sql.DB
	enc          cryptoutil.Encryptor
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewRegistrationTaskRepo creates a new RegistrationTaskRepo.
func NewRegistrationTaskRepo(db *sql.DB, enc cryptoutil.Encryptor, cfg RepoConfig) *RegistrationTaskRepo {
	return &RegistrationTaskRepo{
		DB:           db,
		enc:          enc,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const taskColumns = `id, job_id, registrant_id, status, result, updated_at`

// SQL used by ClaimNext to atomically move the oldest waiting task to checking.
// The select-and-update is a single statement so two workers can never claim
// the same row; SKIP LOCKED turns contention into "queue empty" instead of waits.
const claimTaskSQL = `
  WITH next AS (
    SELECT id FROM registration_tasks
    WHERE status = 'waiting'
    ORDER BY id
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE registration_tasks t
  SET status = 'checking', updated_at = $1
  FROM next
  WHERE t.id = next.id
  RETURNING t.id, t.job_id, t.registrant_id, t.status, t.result, t.updated_at`

// BulkInsertInTx inserts one waiting task per registrant within an existing
// transaction. Insertion is all-or-nothing; registrant ids are encrypted
// before they reach the database.
func (r *RegistrationTaskRepo) BulkInsertInTx(ctx context.Context, tx *sql.Tx, jobID int64, registrants []string) error {
	if tx == nil {
		return errors.New("transaction is required")
	}
	if len(registrants) == 0 {
		return errors.New("at least one registrant is required")
	}

	now := r.timeProvider.Now().UTC()
	for _, registrant := range registrants {
		ct, err := r.enc.Encrypt([]byte(registrant))
		if err != nil {
			return fmt.Errorf("encrypt registrant: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO registration_tasks (job_id, registrant_id, status, updated_at)
			VALUES ($1, $2, 'waiting', $3)
		`, jobID, ct, now); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("insert task: %w", ErrMissingOwner)
			}
			return fmt.Errorf("insert task: %w", err)
		}
	}
	return nil
}

// ClaimNext atomically claims the oldest waiting task and returns it with
// status checking. Returns model.ErrNoItemsAvailable when the queue is empty.
func (r *RegistrationTaskRepo) ClaimNext(ctx context.Context) (*model.RegistrationTask, error) {
	var task *model.RegistrationTask
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		rows, qerr := tx.Query(ctx, claimTaskSQL, r.timeProvider.Now().UTC())
		if qerr != nil {
			return fmt.Errorf("claim task: %w", qerr)
		}
		defer rows.Close()

		t, cerr := r.collectTaskFromRows(rows)
		if errors.Is(cerr, pgx.ErrNoRows) {
			return model.ErrNoItemsAvailable
		}
		if cerr != nil {
			return fmt.Errorf("claim task: %w", cerr)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Complete records the lookup result and moves a claimed task to checked.
// Returns false if the task was not in the checking state.
func (r *RegistrationTaskRepo) Complete(ctx context.Context, id int64, result bool) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE registration_tasks
		SET status = 'checked', result = $2, updated_at = $3
		WHERE id = $1 AND status = 'checking'
	`, id, result, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	return oneRowAffected(res)
}

// Fail moves a claimed task to failed. Returns false if the task was not
// in the checking state.
func (r *RegistrationTaskRepo) Fail(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE registration_tasks
		SET status = 'failed', updated_at = $2
		WHERE id = $1 AND status = 'checking'
	`, id, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("fail task: %w", err)
	}
	return oneRowAffected(res)
}

// Requeue moves a failed task back to waiting. This is the manual-intervention
// path; workers never call it.
func (r *RegistrationTaskRepo) Requeue(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE registration_tasks
		SET status = 'waiting', result = NULL, updated_at = $2
		WHERE id = $1 AND status = 'failed'
	`, id, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("requeue task: %w", err)
	}
	return oneRowAffected(res)
}

// RequeueStuck returns tasks abandoned mid-claim to the waiting state. A task
// counts as stuck when it has sat in checking longer than maxAge, which only
// happens when the owning worker died before reaching a terminal state.
func (r *RegistrationTaskRepo) RequeueStuck(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.timeProvider.Now().Add(-maxAge).UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE registration_tasks
		SET status = 'waiting', updated_at = $2
		WHERE status = 'checking' AND updated_at < $1
	`, cutoff, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("requeue stuck tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 && r.logger != nil {
		r.logger.WarnContext(ctx, "requeued stuck registration tasks", "count", n, "max_age", maxAge)
	}
	return n, nil
}

// PruneTerminal deletes checked and failed tasks older than maxAge. Retention
// is opt-in; callers pass the configured window.
func (r *RegistrationTaskRepo) PruneTerminal(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.timeProvider.Now().Add(-maxAge).UTC()
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM registration_tasks
		WHERE status IN ('checked', 'failed') AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune terminal tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// GetByID returns a single task with its registrant id decrypted.
func (r *RegistrationTaskRepo) GetByID(ctx context.Context, id int64) (*model.RegistrationTask, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM registration_tasks
		WHERE id = $1
	`, id)
	task, err := r.scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListByJob returns all tasks belonging to a registration job, in insertion order.
func (r *RegistrationTaskRepo) ListByJob(ctx context.Context, jobID int64) ([]*model.RegistrationTask, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM registration_tasks
		WHERE job_id = $1
		ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query tasks by job: %w", err)
	}
	defer rows.Close()

	var tasks []*model.RegistrationTask
	for rows.Next() {
		task, scanErr := r.scanTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan task: %w", scanErr)
		}
		tasks = append(tasks, task)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return tasks, nil
}

// StatsByJob returns per-status counts for a registration job's tasks.
func (r *RegistrationTaskRepo) StatsByJob(ctx context.Context, jobID int64) (model.TaskStats, error) {
	var stats model.TaskStats
	row := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'waiting'),
			COUNT(*) FILTER (WHERE status = 'checking'),
			COUNT(*) FILTER (WHERE status = 'checked'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM registration_tasks
		WHERE job_id = $1
	`, jobID)
	if err := row.Scan(&stats.Waiting, &stats.Checking, &stats.Checked, &stats.Failed); err != nil {
		return model.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RegistrationTaskRepo) scanTask(scanner rowScanner) (*model.RegistrationTask, error) {
	task := &model.RegistrationTask{}
	var (
		registrantCT string
		result       sql.NullBool
	)
	if err := scanner.Scan(&task.ID, &task.JobID, &registrantCT, &task.Status, &result, &task.UpdatedAt); err != nil {
		return nil, err
	}

	plain, err := r.enc.Decrypt(registrantCT)
	if err != nil {
		return nil, fmt.Errorf("decrypt registrant for task %d: %w", task.ID, err)
	}
	task.RegistrantID = string(plain)

	if result.Valid {
		v := result.Bool
		task.Result = &v
	}
	task.UpdatedAt = task.UpdatedAt.UTC()
	return task, nil
}

func (r *RegistrationTaskRepo) collectTaskFromRows(rows pgx.Rows) (*model.RegistrationTask, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	task, err := r.scanTask(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return task, nil
}

func oneRowAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
