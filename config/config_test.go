package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{
			name:  "single service",
			input: "check-worker",
			want:  map[ServiceMode]bool{ServiceModeCheckWorker: true},
		},
		{
			name:  "all services",
			input: "check-worker,dispatch-worker,reaper",
			want: map[ServiceMode]bool{
				ServiceModeCheckWorker:    true,
				ServiceModeDispatchWorker: true,
				ServiceModeReaper:         true,
			},
		},
		{
			name:  "whitespace tolerated",
			input: " check-worker , reaper ",
			want: map[ServiceMode]bool{
				ServiceModeCheckWorker: true,
				ServiceModeReaper:      true,
			},
		},
		{
			name:  "duplicates collapse",
			input: "reaper,reaper",
			want:  map[ServiceMode]bool{ServiceModeReaper: true},
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only commas",
			input:   ",,,",
			wantErr: true,
		},
		{
			name:    "unknown service",
			input:   "check-worker,api",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkerConfigSanitize(t *testing.T) {
	cfg := WorkerConfig{Concurrency: 0, PollInterval: time.Millisecond}
	cfg.Sanitize()
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)

	cfg = WorkerConfig{Concurrency: 8, PollInterval: time.Second}
	cfg.Sanitize()
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, time.Second, cfg.PollInterval)
}

func TestReaperConfigSanitize(t *testing.T) {
	cfg := ReaperConfig{Interval: time.Second, StuckMaxAge: time.Second, RetentionMaxAge: -time.Hour}
	cfg.Sanitize()
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, time.Minute, cfg.StuckMaxAge)
	assert.Equal(t, time.Duration(0), cfg.RetentionMaxAge)

	// A tiny retention window is raised to the floor, not disabled.
	cfg = ReaperConfig{Interval: time.Minute, StuckMaxAge: 30 * time.Minute, RetentionMaxAge: time.Minute}
	cfg.Sanitize()
	assert.Equal(t, time.Hour, cfg.RetentionMaxAge)

	cfg = ReaperConfig{Interval: 5 * time.Minute, StuckMaxAge: 30 * time.Minute, RetentionMaxAge: 48 * time.Hour}
	cfg.Sanitize()
	assert.Equal(t, 48*time.Hour, cfg.RetentionMaxAge)
}

func TestConverterConfigSanitize(t *testing.T) {
	cfg := ConverterConfig{}
	cfg.Sanitize()
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "pdf", cfg.TargetFormat)

	cfg = ConverterConfig{TargetFormat: "html", Timeout: time.Minute}
	cfg.Sanitize()
	assert.Equal(t, "html", cfg.TargetFormat)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

func TestServiceToggles(t *testing.T) {
	cfg := AppConfig{Services: "check-worker,dispatch-worker"}
	assert.True(t, cfg.IsCheckWorkerEnabled())
	assert.True(t, cfg.IsDispatchWorkerEnabled())
	assert.False(t, cfg.IsReaperEnabled())

	cfg = AppConfig{Services: "reaper"}
	assert.False(t, cfg.IsCheckWorkerEnabled())
	assert.True(t, cfg.IsReaperEnabled())

	cfg = AppConfig{Services: "bogus"}
	assert.False(t, cfg.IsCheckWorkerEnabled())
	assert.False(t, cfg.IsDispatchWorkerEnabled())
	assert.False(t, cfg.IsReaperEnabled())
}
