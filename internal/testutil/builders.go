package testutil

import (
	"github.com/openpostbud/postbud/internal/domain/model"
)

// RegistrationJobRequestBuilder provides a fluent interface for building
// CreateRegistrationJobRequest objects for testing.
type RegistrationJobRequestBuilder struct {
	req *model.CreateRegistrationJobRequest
}

// NewRegistrationJobRequest creates a builder with sensible defaults.
func NewRegistrationJobRequest() *RegistrationJobRequestBuilder {
	return &RegistrationJobRequestBuilder{
		req: &model.CreateRegistrationJobRequest{
			Name:        "test job",
			Description: "created by tests",
			JobType:     model.JobTypeDigitalPost,
			CreatedBy:   "tester",
		},
	}
}

// WithName sets the job name.
func (b *RegistrationJobRequestBuilder) WithName(name string) *RegistrationJobRequestBuilder {
	b.req.Name = name
	return b
}

// WithJobType sets the job type.
func (b *RegistrationJobRequestBuilder) WithJobType(jt model.JobType) *RegistrationJobRequestBuilder {
	b.req.JobType = jt
	return b
}

// Build returns the request.
func (b *RegistrationJobRequestBuilder) Build() *model.CreateRegistrationJobRequest {
	return b.req
}

// ShipmentRequestBuilder provides a fluent interface for building
// CreateShipmentRequest objects for testing.
type ShipmentRequestBuilder struct {
	req *model.CreateShipmentRequest
}

// NewShipmentRequest creates a builder with sensible defaults. TemplateID
// must be set to a stored template before use.
func NewShipmentRequest() *ShipmentRequestBuilder {
	return &ShipmentRequestBuilder{
		req: &model.CreateShipmentRequest{
			Name:        "test shipment",
			Description: "created by tests",
			CreatedBy:   "tester",
		},
	}
}

// WithName sets the shipment name.
func (b *ShipmentRequestBuilder) WithName(name string) *ShipmentRequestBuilder {
	b.req.Name = name
	return b
}

// WithTemplateID sets the template the shipment's letters merge against.
func (b *ShipmentRequestBuilder) WithTemplateID(id int64) *ShipmentRequestBuilder {
	b.req.TemplateID = id
	return b
}

// Build returns the request.
func (b *ShipmentRequestBuilder) Build() *model.CreateShipmentRequest {
	return b.req
}
