package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/data/pgxutil"
	"github.com/openpostbud/postbud/internal/domain/model"
)

// LetterRepo provides database operations for letters, including the atomic
// claim used by the dispatch worker. Recipient ids and merge-field data are
// encrypted before insert and decrypted on read.
type LetterRepo struct {
	DB           *sql.DB
	enc          cryptoutil.Encryptor
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewLetterRepo creates a new LetterRepo.
func NewLetterRepo(db *sql.DB, enc cryptoutil.Encryptor, cfg RepoConfig) *LetterRepo {
	return &LetterRepo{
		DB:           db,
		enc:          enc,
		timeProvider: cfg.timeProvider(),
		logger:       cfg.Logger,
	}
}

const letterColumns = `id, shipment_id, recipient_id, field_data, status, transaction_id, updated_at`

// SQL used by ClaimNext to atomically move the oldest waiting letter to sending.
const claimLetterSQL = `
  WITH next AS (
    SELECT id FROM letters
    WHERE status = 'waiting'
    ORDER BY id
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE letters l
  SET status = 'sending', updated_at = $1
  FROM next
  WHERE l.id = next.id
  RETURNING l.id, l.shipment_id, l.recipient_id, l.field_data, l.status, l.transaction_id, l.updated_at`

// BulkInsertInTx inserts one waiting letter per row within an existing
// transaction. Insertion is all-or-nothing.
func (r *LetterRepo) BulkInsertInTx(ctx context.Context, tx *sql.Tx, shipmentID int64, rows []model.LetterRow) error {
	if tx == nil {
		return errors.New("transaction is required")
	}
	if len(rows) == 0 {
		return errors.New("at least one letter is required")
	}

	now := r.timeProvider.Now().UTC()
	for i := range rows {
		recipientCT, err := r.enc.Encrypt([]byte(rows[i].RecipientID))
		if err != nil {
			return fmt.Errorf("encrypt recipient: %w", err)
		}

		fields := rows[i].Fields
		if fields == nil {
			fields = map[string]string{}
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshal field data: %w", err)
		}
		fieldsCT, err := r.enc.Encrypt(raw)
		if err != nil {
			return fmt.Errorf("encrypt field data: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO letters (shipment_id, recipient_id, field_data, status, updated_at)
			VALUES ($1, $2, $3, 'waiting', $4)
		`, shipmentID, recipientCT, fieldsCT, now); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("insert letter: %w", ErrMissingOwner)
			}
			return fmt.Errorf("insert letter: %w", err)
		}
	}
	return nil
}

// ClaimNext atomically claims the oldest waiting letter and returns it with
// status sending. Returns model.ErrNoItemsAvailable when the queue is empty.
func (r *LetterRepo) ClaimNext(ctx context.Context) (*model.Letter, error) {
	var letter *model.Letter
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		rows, qerr := tx.Query(ctx, claimLetterSQL, r.timeProvider.Now().UTC())
		if qerr != nil {
			return fmt.Errorf("claim letter: %w", qerr)
		}
		defer rows.Close()

		l, cerr := r.collectLetterFromRows(rows)
		if errors.Is(cerr, pgx.ErrNoRows) {
			return model.ErrNoItemsAvailable
		}
		if cerr != nil {
			return fmt.Errorf("claim letter: %w", cerr)
		}
		letter = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return letter, nil
}

// MarkSent records the delivery transaction id and moves a claimed letter to
// sent. Returns false if the letter was not in the sending state.
func (r *LetterRepo) MarkSent(ctx context.Context, id int64, transactionID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE letters
		SET status = 'sent', transaction_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'sending'
	`, id, transactionID, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark letter sent: %w", err)
	}
	return oneRowAffected(res)
}

// MarkReceived records a delivery receipt on a sent letter. Receipt handling
// is external to the workers.
func (r *LetterRepo) MarkReceived(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE letters
		SET status = 'received', updated_at = $2
		WHERE id = $1 AND status = 'sent'
	`, id, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark letter received: %w", err)
	}
	return oneRowAffected(res)
}

// Fail moves a claimed letter to failed. Returns false if the letter was not
// in the sending state.
func (r *LetterRepo) Fail(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE letters
		SET status = 'failed', updated_at = $2
		WHERE id = $1 AND status = 'sending'
	`, id, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("fail letter: %w", err)
	}
	return oneRowAffected(res)
}

// Requeue moves a failed letter back to waiting. This is the manual-intervention
// path; workers never call it.
func (r *LetterRepo) Requeue(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE letters
		SET status = 'waiting', transaction_id = NULL, updated_at = $2
		WHERE id = $1 AND status = 'failed'
	`, id, r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("requeue letter: %w", err)
	}
	return oneRowAffected(res)
}

// RequeueStuck returns letters abandoned mid-claim to the waiting state.
func (r *LetterRepo) RequeueStuck(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.timeProvider.Now().Add(-maxAge).UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE letters
		SET status = 'waiting', updated_at = $2
		WHERE status = 'sending' AND updated_at < $1
	`, cutoff, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("requeue stuck letters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 && r.logger != nil {
		r.logger.WarnContext(ctx, "requeued stuck letters", "count", n, "max_age", maxAge)
	}
	return n, nil
}

// PruneTerminal deletes sent, received, and failed letters older than maxAge.
func (r *LetterRepo) PruneTerminal(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := r.timeProvider.Now().Add(-maxAge).UTC()
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM letters
		WHERE status IN ('sent', 'received', 'failed') AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune terminal letters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// GetByID returns a single letter with its sensitive fields decrypted.
func (r *LetterRepo) GetByID(ctx context.Context, id int64) (*model.Letter, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+letterColumns+`
		FROM letters
		WHERE id = $1
	`, id)
	letter, err := r.scanLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("letter %d: %w", id, ErrLetterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get letter: %w", err)
	}
	return letter, nil
}

// ListByShipment returns all letters belonging to a shipment, in insertion order.
func (r *LetterRepo) ListByShipment(ctx context.Context, shipmentID int64) ([]*model.Letter, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+letterColumns+`
		FROM letters
		WHERE shipment_id = $1
		ORDER BY id
	`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("query letters by shipment: %w", err)
	}
	defer rows.Close()

	var letters []*model.Letter
	for rows.Next() {
		letter, scanErr := r.scanLetter(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan letter: %w", scanErr)
		}
		letters = append(letters, letter)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return letters, nil
}

// StatsByShipment returns per-status counts for a shipment's letters.
func (r *LetterRepo) StatsByShipment(ctx context.Context, shipmentID int64) (model.LetterStats, error) {
	var stats model.LetterStats
	row := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'waiting'),
			COUNT(*) FILTER (WHERE status = 'sending'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'received'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM letters
		WHERE shipment_id = $1
	`, shipmentID)
	if err := row.Scan(&stats.Waiting, &stats.Sending, &stats.Sent, &stats.Received, &stats.Failed); err != nil {
		return model.LetterStats{}, fmt.Errorf("letter stats: %w", err)
	}
	return stats, nil
}

func (r *LetterRepo) scanLetter(scanner rowScanner) (*model.Letter, error) {
	letter := &model.Letter{}
	var (
		recipientCT   string
		fieldsCT      string
		transactionID sql.NullString
	)
	if err := scanner.Scan(
		&letter.ID,
		&letter.ShipmentID,
		&recipientCT,
		&fieldsCT,
		&letter.Status,
		&transactionID,
		&letter.UpdatedAt,
	); err != nil {
		return nil, err
	}

	recipient, err := r.enc.Decrypt(recipientCT)
	if err != nil {
		return nil, fmt.Errorf("decrypt recipient for letter %d: %w", letter.ID, err)
	}
	letter.RecipientID = string(recipient)

	raw, err := r.enc.Decrypt(fieldsCT)
	if err != nil {
		return nil, fmt.Errorf("decrypt field data for letter %d: %w", letter.ID, err)
	}
	if err := json.Unmarshal(raw, &letter.FieldData); err != nil {
		return nil, fmt.Errorf("unmarshal field data for letter %d: %w", letter.ID, err)
	}

	if transactionID.Valid {
		v := transactionID.String
		letter.TransactionID = &v
	}
	letter.UpdatedAt = letter.UpdatedAt.UTC()
	return letter, nil
}

func (r *LetterRepo) collectLetterFromRows(rows pgx.Rows) (*model.Letter, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	letter, err := r.scanLetter(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return letter, nil
}
