package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/openpostbud/postbud/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// RegistrationJobRepository defines the interface for registration job data operations.
type RegistrationJobRepository interface {
	CreateInTx(ctx context.Context, tx *sql.Tx, req *model.CreateRegistrationJobRequest) (*model.RegistrationJob, error)
	GetByID(ctx context.Context, id int64) (*model.RegistrationJob, error)
	List(ctx context.Context) ([]*model.RegistrationJob, error)
}

// RegistrationTaskRepository defines the interface for registration task data operations.
// ClaimNext atomically moves one waiting task to checking; no two callers ever
// receive the same task.
type RegistrationTaskRepository interface {
	BulkInsertInTx(ctx context.Context, tx *sql.Tx, jobID int64, registrants []string) error
	ClaimNext(ctx context.Context) (*model.RegistrationTask, error)
	Complete(ctx context.Context, id int64, result bool) (bool, error)
	Fail(ctx context.Context, id int64) (bool, error)
	Requeue(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.RegistrationTask, error)
	ListByJob(ctx context.Context, jobID int64) ([]*model.RegistrationTask, error)
	StatsByJob(ctx context.Context, jobID int64) (model.TaskStats, error)
}

// ShipmentRepository defines the interface for shipment data operations.
type ShipmentRepository interface {
	CreateInTx(ctx context.Context, tx *sql.Tx, req *model.CreateShipmentRequest) (*model.Shipment, error)
	GetByID(ctx context.Context, id int64) (*model.Shipment, error)
	List(ctx context.Context) ([]*model.Shipment, error)
}

// LetterRepository defines the interface for letter data operations.
type LetterRepository interface {
	BulkInsertInTx(ctx context.Context, tx *sql.Tx, shipmentID int64, rows []model.LetterRow) error
	ClaimNext(ctx context.Context) (*model.Letter, error)
	MarkSent(ctx context.Context, id int64, transactionID string) (bool, error)
	MarkReceived(ctx context.Context, id int64) (bool, error)
	Fail(ctx context.Context, id int64) (bool, error)
	Requeue(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Letter, error)
	ListByShipment(ctx context.Context, shipmentID int64) ([]*model.Letter, error)
	StatsByShipment(ctx context.Context, shipmentID int64) (model.LetterStats, error)
}

// TemplateRepository defines the interface for letter template data operations.
type TemplateRepository interface {
	Create(ctx context.Context, fileName string, fileData []byte, fieldNames []string) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Template, error)
	GetBytes(ctx context.Context, id int64) ([]byte, error)
}

// TemplateCache defines the interface for caching template bytes between
// dispatch iterations. Get returns (nil, nil) on a miss.
type TemplateCache interface {
	Get(ctx context.Context, id int64) ([]byte, error)
	Set(ctx context.Context, id int64, data []byte) error
}

// ReaperRepository defines the interface for requeueing work items that were
// claimed by a worker that died before reaching a terminal status.
type ReaperRepository interface {
	// RequeueStuckTasks moves checking tasks older than maxAge back to waiting.
	// Returns the number of tasks requeued.
	RequeueStuckTasks(ctx context.Context, maxAge time.Duration) (int64, error)

	// RequeueStuckLetters moves sending letters older than maxAge back to waiting.
	// Returns the number of letters requeued.
	RequeueStuckLetters(ctx context.Context, maxAge time.Duration) (int64, error)

	// PruneTerminalTasks deletes terminal tasks older than maxAge.
	PruneTerminalTasks(ctx context.Context, maxAge time.Duration) (int64, error)

	// PruneTerminalLetters deletes terminal letters older than maxAge.
	PruneTerminalLetters(ctx context.Context, maxAge time.Duration) (int64, error)
}
