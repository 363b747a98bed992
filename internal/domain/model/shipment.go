package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LetterStatus represents the current status of a letter.
type LetterStatus string

const (
	// LetterStatusWaiting indicates a letter is waiting to be claimed.
	LetterStatusWaiting LetterStatus = "waiting"
	// LetterStatusSending indicates a letter has been claimed by a dispatch worker.
	LetterStatusSending LetterStatus = "sending"
	// LetterStatusSent indicates a letter was accepted by the delivery API.
	LetterStatusSent LetterStatus = "sent"
	// LetterStatusReceived indicates a delivery receipt confirmed the letter reached the recipient.
	// Set by external receipt handling, never by the dispatch worker.
	LetterStatusReceived LetterStatus = "received"
	// LetterStatusFailed indicates delivery failed.
	LetterStatusFailed LetterStatus = "failed"
)

// Valid returns true if the LetterStatus is valid.
func (s LetterStatus) Valid() bool {
	return s == LetterStatusWaiting || s == LetterStatusSending || s == LetterStatusSent ||
		s == LetterStatusReceived || s == LetterStatusFailed
}

// Terminal returns true if no worker will touch a letter in this status again.
func (s LetterStatus) Terminal() bool {
	return s == LetterStatusSent || s == LetterStatusReceived || s == LetterStatusFailed
}

// Shipment is a named batch of letters sharing one template.
// Shipments are immutable after creation.
type Shipment struct {
	ID          int64     `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	TemplateID  int64     `json:"template_id" db:"template_id"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	CreatedBy   string    `json:"created_by"  db:"created_by"`
}

// Letter is one document to merge and deliver within a shipment.
// RecipientID and FieldData are sensitive and stored encrypted; the repository
// decrypts them on read.
type Letter struct {
	ID            int64             `json:"id"                       db:"id"`
	ShipmentID    int64             `json:"shipment_id"              db:"shipment_id"`
	RecipientID   string            `json:"recipient_id"             db:"recipient_id"`
	FieldData     map[string]string `json:"field_data"               db:"field_data"`
	Status        LetterStatus      `json:"status"                   db:"status"`
	TransactionID *string           `json:"transaction_id,omitempty" db:"transaction_id"`
	UpdatedAt     time.Time         `json:"updated_at"               db:"updated_at"`
}

// Template is a stored letter template with its declared merge-field names.
type Template struct {
	ID         int64    `json:"id"          db:"id"`
	FileName   string   `json:"file_name"   db:"file_name"`
	FileData   []byte   `json:"file_data"   db:"file_data"`
	FieldNames []string `json:"field_names" db:"field_names"`
}

// LetterRow is one validated row of bulk-ingestion input: a recipient plus
// the merge fields for that recipient's letter.
type LetterRow struct {
	RecipientID string
	Fields      map[string]string
}

// CreateShipmentRequest represents a request to create a shipment together
// with one letter per ingested row.
type CreateShipmentRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	TemplateID  int64       `json:"template_id"`
	CreatedBy   string      `json:"created_by"`
	Letters     []LetterRow `json:"letters"`
}

// Validate validates the CreateShipmentRequest fields.
func (r *CreateShipmentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.TemplateID <= 0 {
		return errors.New("template id is required")
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		return errors.New("created_by is required")
	}
	if len(r.Letters) == 0 {
		return errors.New("at least one letter is required")
	}
	for i := range r.Letters {
		if strings.TrimSpace(r.Letters[i].RecipientID) == "" {
			return fmt.Errorf("letter %d has no recipient", i+1)
		}
	}
	return nil
}

// LetterStats represents per-status counts for a shipment's letters.
type LetterStats struct {
	Waiting  int `json:"waiting"`
	Sending  int `json:"sending"`
	Sent     int `json:"sent"`
	Received int `json:"received"`
	Failed   int `json:"failed"`
}
