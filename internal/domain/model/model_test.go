package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTypeUnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    JobType
		wantErr bool
	}{
		{input: "nemsms", want: JobTypeNemSMS},
		{input: "digitalpost", want: JobTypeDigitalPost},
		{input: " DigitalPost ", want: JobTypeDigitalPost},
		{input: "email", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var jt JobType
			err := jt.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, jt)
		})
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.False(t, TaskStatusWaiting.Terminal())
	assert.False(t, TaskStatusChecking.Terminal())
	assert.True(t, TaskStatusChecked.Terminal())
	assert.True(t, TaskStatusFailed.Terminal())
}

func TestLetterStatusTerminal(t *testing.T) {
	assert.False(t, LetterStatusWaiting.Terminal())
	assert.False(t, LetterStatusSending.Terminal())
	assert.True(t, LetterStatusSent.Terminal())
	assert.True(t, LetterStatusReceived.Terminal())
	assert.True(t, LetterStatusFailed.Terminal())
}

func TestCreateRegistrationJobRequestValidate(t *testing.T) {
	valid := func() *CreateRegistrationJobRequest {
		return &CreateRegistrationJobRequest{
			Name:        "februar",
			JobType:     JobTypeDigitalPost,
			CreatedBy:   "sagsbehandler",
			Registrants: []string{"0101011234"},
		}
	}
	assert.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*CreateRegistrationJobRequest)
		wantErr string
	}{
		{name: "blank name", mutate: func(r *CreateRegistrationJobRequest) { r.Name = "  " }, wantErr: "name is required"},
		{name: "bad job type", mutate: func(r *CreateRegistrationJobRequest) { r.JobType = "fax" }, wantErr: "invalid job type"},
		{name: "no creator", mutate: func(r *CreateRegistrationJobRequest) { r.CreatedBy = "" }, wantErr: "created_by is required"},
		{name: "no registrants", mutate: func(r *CreateRegistrationJobRequest) { r.Registrants = nil }, wantErr: "at least one registrant"},
		{name: "blank registrant", mutate: func(r *CreateRegistrationJobRequest) { r.Registrants = []string{"0101011234", " "} }, wantErr: "registrant 2 is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			assert.ErrorContains(t, req.Validate(), tt.wantErr)
		})
	}
}

func TestCreateShipmentRequestValidate(t *testing.T) {
	valid := func() *CreateShipmentRequest {
		return &CreateShipmentRequest{
			Name:       "aftalebreve",
			TemplateID: 1,
			CreatedBy:  "sagsbehandler",
			Letters:    []LetterRow{{RecipientID: "0101011234"}},
		}
	}
	assert.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*CreateShipmentRequest)
		wantErr string
	}{
		{name: "blank name", mutate: func(r *CreateShipmentRequest) { r.Name = "" }, wantErr: "name is required"},
		{name: "no template", mutate: func(r *CreateShipmentRequest) { r.TemplateID = 0 }, wantErr: "template id is required"},
		{name: "no creator", mutate: func(r *CreateShipmentRequest) { r.CreatedBy = " " }, wantErr: "created_by is required"},
		{name: "no letters", mutate: func(r *CreateShipmentRequest) { r.Letters = nil }, wantErr: "at least one letter"},
		{name: "blank recipient", mutate: func(r *CreateShipmentRequest) { r.Letters = []LetterRow{{RecipientID: ""}} }, wantErr: "letter 1 has no recipient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			assert.ErrorContains(t, req.Validate(), tt.wantErr)
		})
	}
}
