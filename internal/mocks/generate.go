// Package mocks provides mock implementations for testing the postbud work-queue system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// external delivery ports. The mocks are generated using go:generate directives and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	lookup := mocks.NewMockRegistrationLookup(ctrl)
//	lookup.EXPECT().IsRegistered(gomock.Any(), "0101011234", model.JobTypeDigitalPost).Return(true, nil)
package mocks

// Generate mock for RegistrationLookup interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=registration_lookup_mock.go github.com/openpostbud/postbud/internal/ports RegistrationLookup

// Generate mock for PostSender interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=post_sender_mock.go github.com/openpostbud/postbud/internal/ports PostSender
