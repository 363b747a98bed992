package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openpostbud/postbud/config"
)

func TestValidateServiceConfig(t *testing.T) {
	assert.Error(t, ValidateServiceConfig(nil))

	cfg := &config.AppConfig{Services: "check-worker,dispatch-worker"}
	assert.NoError(t, ValidateServiceConfig(cfg))

	cfg = &config.AppConfig{Services: "not-a-service"}
	assert.ErrorContains(t, ValidateServiceConfig(cfg), "invalid service configuration")

	cfg = &config.AppConfig{Services: ""}
	assert.Error(t, ValidateServiceConfig(cfg))
}

func TestGetEnabledServices(t *testing.T) {
	assert.Empty(t, GetEnabledServices(nil))

	cfg := &config.AppConfig{Services: "reaper,check-worker"}
	// Names come back in a stable order regardless of input order.
	assert.Equal(t, []string{"check-worker", "reaper"}, GetEnabledServices(cfg))

	cfg = &config.AppConfig{Services: "bogus"}
	assert.Empty(t, GetEnabledServices(cfg))
}
