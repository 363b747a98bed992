package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openpostbud/postbud/internal/domain/model"
)

// ShipmentRepo provides database operations for shipments.
// Shipments are immutable after creation; there are no update operations.
type ShipmentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewShipmentRepo creates a new ShipmentRepo.
func NewShipmentRepo(db *sql.DB, cfg RepoConfig) *ShipmentRepo {
	return &ShipmentRepo{DB: db, timeProvider: cfg.timeProvider()}
}

const shipmentColumns = `id, name, description, template_id, created_at, created_by`

// CreateInTx inserts a shipment within an existing transaction and returns the
// created row. Letters are inserted in the same transaction so a shipment can
// never appear without its work items.
func (r *ShipmentRepo) CreateInTx(
	ctx context.Context,
	tx *sql.Tx,
	req *model.CreateShipmentRequest,
) (*model.Shipment, error) {
	if tx == nil {
		return nil, errors.New("transaction is required")
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO shipments (name, description, template_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+shipmentColumns,
		req.Name, req.Description, req.TemplateID, r.timeProvider.Now().UTC(), req.CreatedBy)

	shipment, err := scanShipment(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("insert shipment: %w", ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("insert shipment: %w", err)
	}
	return shipment, nil
}

// GetByID returns a single shipment.
func (r *ShipmentRepo) GetByID(ctx context.Context, id int64) (*model.Shipment, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE id = $1
	`, id)
	shipment, err := scanShipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shipment %d: %w", id, ErrShipmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

// List returns all shipments, newest first.
func (r *ShipmentRepo) List(ctx context.Context) ([]*model.Shipment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*model.Shipment
	for rows.Next() {
		shipment, scanErr := scanShipment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan shipment: %w", scanErr)
		}
		shipments = append(shipments, shipment)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return shipments, nil
}

func scanShipment(scanner rowScanner) (*model.Shipment, error) {
	shipment := &model.Shipment{}
	if err := scanner.Scan(
		&shipment.ID,
		&shipment.Name,
		&shipment.Description,
		&shipment.TemplateID,
		&shipment.CreatedAt,
		&shipment.CreatedBy,
	); err != nil {
		return nil, err
	}
	shipment.CreatedAt = shipment.CreatedAt.UTC()
	return shipment, nil
}
