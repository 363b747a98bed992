// Package ports defines interfaces (hexagonal ports) for the external
// registration-lookup and Digital Post delivery boundary. Implementations
// live in internal/serviceplatform; orchestration in the worker adapters.
package ports

import (
	"context"

	"github.com/openpostbud/postbud/internal/domain/model"
	"github.com/openpostbud/postbud/internal/serviceplatform"
)

// RegistrationLookup answers whether a registrant is signed up for a service.
type RegistrationLookup interface {
	// IsRegistered reports the registration status for one registrant.
	// The error return is for transport or API failures only; false with a
	// nil error is a definitive negative answer.
	IsRegistered(ctx context.Context, registrantID string, service model.JobType) (bool, error)
}

// PostSender delivers one finished letter and returns the platform's
// transaction identifier for it.
type PostSender interface {
	NewMessage(label, recipientCPR string, files []serviceplatform.File) serviceplatform.Message
	Send(ctx context.Context, msg serviceplatform.Message) (string, error)
}
