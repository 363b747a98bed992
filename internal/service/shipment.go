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

// ShipmentPrefix salts the obfuscated public ids of shipments.
const ShipmentPrefix = "S"

// ShipmentServiceOptions groups dependencies for ShipmentService.
type ShipmentServiceOptions struct {
	DB        *sql.DB
	Shipments core.ShipmentRepository
	Letters   core.LetterRepository
	Logger    *slog.Logger
}

// ShipmentService orchestrates shipment creation from mail-merge CSV input
// and letter access. A shipment and all of its letters are created in one
// transaction.
type ShipmentService struct {
	db        *sql.DB
	shipments core.ShipmentRepository
	letters   core.LetterRepository
	codec     obfuscate.Codec
	logger    *slog.Logger
}

// NewShipmentService constructs a new ShipmentService.
func NewShipmentService(opts ShipmentServiceOptions) (*ShipmentService, error) {
	if opts.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Shipments == nil || opts.Letters == nil {
		return nil, errors.New("shipment and letter repositories are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ShipmentService{
		db:        opts.DB,
		shipments: opts.Shipments,
		letters:   opts.Letters,
		codec:     obfuscate.New(ShipmentPrefix),
		logger:    logger,
	}, nil
}

// CreateWithLetters parses and validates the whole CSV first, then creates the
// shipment and one waiting letter per data row in a single transaction. A
// missing recipient column or an empty recipient value rejects the entire
// file; no letters are created.
func (s *ShipmentService) CreateWithLetters(
	ctx context.Context,
	req *model.CreateShipmentRequest,
	csvFile []byte,
	recipientColumn string,
) (*model.Shipment, error) {
	rows, err := ingest.LetterRows(csvFile, recipientColumn)
	if err != nil {
		return nil, fmt.Errorf("parse recipient csv: %w", err)
	}
	req.Letters = rows

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate shipment request: %w", err)
	}

	var shipment *model.Shipment
	err = pgxutil.WithSQLTx(ctx, s.db, func(tx *sql.Tx) error {
		created, txErr := s.shipments.CreateInTx(ctx, tx, req)
		if txErr != nil {
			return txErr
		}
		shipment = created
		return s.letters.BulkInsertInTx(ctx, tx, shipment.ID, req.Letters)
	})
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	s.logger.InfoContext(ctx, "shipment created",
		"shipment_id", shipment.ID,
		"public_id", s.codec.Format(shipment.ID),
		"letters", len(rows),
	)
	return shipment, nil
}

// Get returns one shipment by internal id.
func (s *ShipmentService) Get(ctx context.Context, id int64) (*model.Shipment, error) {
	return s.shipments.GetByID(ctx, id)
}

// List returns all shipments, newest first.
func (s *ShipmentService) List(ctx context.Context) ([]*model.Shipment, error) {
	return s.shipments.List(ctx)
}

// Letters returns the letters of one shipment with recipient and field data decrypted.
func (s *ShipmentService) Letters(ctx context.Context, shipmentID int64) ([]*model.Letter, error) {
	return s.letters.ListByShipment(ctx, shipmentID)
}

// Stats returns per-status letter counts for one shipment.
func (s *ShipmentService) Stats(ctx context.Context, shipmentID int64) (model.LetterStats, error) {
	return s.letters.StatsByShipment(ctx, shipmentID)
}

// MarkLetterReceived records an external receipt for a sent letter. Only the
// delivery platform's receipt callback path uses this transition.
func (s *ShipmentService) MarkLetterReceived(ctx context.Context, letterID int64) (bool, error) {
	received, err := s.letters.MarkReceived(ctx, letterID)
	if err != nil {
		return false, fmt.Errorf("mark letter received: %w", err)
	}
	return received, nil
}

// RequeueLetter moves one failed letter back to waiting. Returns false when
// the letter was not in the failed status.
func (s *ShipmentService) RequeueLetter(ctx context.Context, letterID int64) (bool, error) {
	requeued, err := s.letters.Requeue(ctx, letterID)
	if err != nil {
		return false, fmt.Errorf("requeue letter: %w", err)
	}
	if requeued {
		s.logger.InfoContext(ctx, "letter requeued", "letter_id", letterID)
	}
	return requeued, nil
}

// PublicID returns the obfuscated identifier shown outside the system.
func (s *ShipmentService) PublicID(id int64) string {
	return s.codec.Format(id)
}

// ResolveID maps an obfuscated identifier back to the internal shipment id.
func (s *ShipmentService) ResolveID(public string) (int64, error) {
	return s.codec.Parse(public)
}
