// Package data provides PostgreSQL-backed repositories for jobs, shipments,
// work items, and templates. Sensitive fields are encrypted and decrypted here
// so callers above the persistence boundary only ever see plaintext.
package data

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrJobNotFound is returned when a registration job is not found.
	ErrJobNotFound = errors.New("registration job not found")
	// ErrTaskNotFound is returned when a registration task is not found.
	ErrTaskNotFound = errors.New("registration task not found")
	// ErrLetterNotFound is returned when a letter is not found.
	ErrLetterNotFound = errors.New("letter not found")
	// ErrShipmentNotFound is returned when a shipment is not found.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrTemplateNotFound is returned when a template is not found.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrMissingOwner is returned when work items are inserted for a job or
	// shipment that does not exist.
	ErrMissingOwner = errors.New("owning job or shipment does not exist")
)

// RepoConfig holds shared configuration options for repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (c RepoConfig) timeProvider() TimeProvider {
	if c.TimeProvider != nil {
		return c.TimeProvider
	}
	return &RealTimeProvider{}
}

// TimeProvider provides time-related functionality that can be mocked for testing.
type TimeProvider interface {
	// Now returns the current time
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using real system time.
type RealTimeProvider struct{}

// Now returns the current system time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// FixedTimeProvider implements TimeProvider with a fixed time for testing.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a new FixedTimeProvider with the given time.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	return f.fixedTime
}

// AddTime adds a duration to the current fixed time.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.fixedTime = f.fixedTime.Add(d)
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key violation,
// e.g. a bulk insert referencing a job that was never created.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
