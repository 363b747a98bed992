// Package model defines the core data types and structures used throughout the postbud work-queue system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType is the registration service a job checks against.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// TaskStatus represents the current status of a registration task.
type TaskStatus string

const (
	// JobTypeNemSMS represents a NemSMS registration lookup job.
	JobTypeNemSMS JobType = "nemsms"
	// JobTypeDigitalPost represents a Digital Post registration lookup job.
	JobTypeDigitalPost JobType = "digitalpost"

	// TaskStatusWaiting indicates a task is waiting to be claimed.
	TaskStatusWaiting TaskStatus = "waiting"
	// TaskStatusChecking indicates a task has been claimed by a worker.
	TaskStatusChecking TaskStatus = "checking"
	// TaskStatusChecked indicates a task's registration lookup succeeded.
	TaskStatusChecked TaskStatus = "checked"
	// TaskStatusFailed indicates a task's registration lookup failed.
	TaskStatusFailed TaskStatus = "failed"
)

// ErrNoItemsAvailable is returned by claim operations when no waiting items exist.
var ErrNoItemsAvailable = errors.New("no items available")

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeNemSMS || t == JobTypeDigitalPost
}

// Valid returns true if the TaskStatus is valid.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusWaiting || s == TaskStatusChecking || s == TaskStatusChecked ||
		s == TaskStatusFailed
}

// Terminal returns true if no worker will touch a task in this status again.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusChecked || s == TaskStatusFailed
}

// RegistrationJob is a named batch of registration tasks created together.
// Jobs are immutable after creation.
type RegistrationJob struct {
	ID          int64     `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	JobType     JobType   `json:"job_type"    db:"job_type"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	CreatedBy   string    `json:"created_by"  db:"created_by"`
}

// RegistrationTask is one registrant to look up within a registration job.
// RegistrantID is sensitive and stored encrypted; the repository decrypts it on read.
type RegistrationTask struct {
	ID           int64      `json:"id"               db:"id"`
	JobID        int64      `json:"job_id"           db:"job_id"`
	RegistrantID string     `json:"registrant_id"    db:"registrant_id"`
	Status       TaskStatus `json:"status"           db:"status"`
	Result       *bool      `json:"result,omitempty" db:"result"`
	UpdatedAt    time.Time  `json:"updated_at"       db:"updated_at"`
}

// CreateRegistrationJobRequest represents a request to create a registration job
// together with one task per registrant.
type CreateRegistrationJobRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	JobType     JobType  `json:"job_type"`
	CreatedBy   string   `json:"created_by"`
	Registrants []string `json:"registrants"`
}

// Validate validates the CreateRegistrationJobRequest fields.
func (r *CreateRegistrationJobRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if !r.JobType.Valid() {
		return fmt.Errorf("invalid job type: %q", r.JobType)
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		return errors.New("created_by is required")
	}
	if len(r.Registrants) == 0 {
		return errors.New("at least one registrant is required")
	}
	for i, reg := range r.Registrants {
		if strings.TrimSpace(reg) == "" {
			return fmt.Errorf("registrant %d is empty", i+1)
		}
	}
	return nil
}

// TaskStats represents per-status counts for a registration job's tasks.
type TaskStats struct {
	Waiting  int `json:"waiting"`
	Checking int `json:"checking"`
	Checked  int `json:"checked"`
	Failed   int `json:"failed"`
}
