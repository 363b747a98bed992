package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeCheckWorker runs the registration check worker.
	ServiceModeCheckWorker ServiceMode = "check-worker"
	// ServiceModeDispatchWorker runs the letter dispatch worker.
	ServiceModeDispatchWorker ServiceMode = "dispatch-worker"
	// ServiceModeReaper runs the stuck-item reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeCheckWorker,
		ServiceModeDispatchWorker,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeCheckWorker, ServiceModeDispatchWorker, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: check-worker, dispatch-worker, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains configuration shared by the check and dispatch workers.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"CONCURRENCY" envDefault:"1"`

	// PollInterval is how long a worker sleeps when the queue is empty.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.PollInterval < 100*time.Millisecond {
		w.PollInterval = 100 * time.Millisecond
	}
}

// ReaperConfig contains stuck-item reaper configuration.
//
// The reaper is opt-in: without it, items claimed by a crashed worker stay in
// their in-progress status until operator intervention.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// StuckMaxAge is how long an item may sit in checking/sending before it is
	// considered abandoned and moved back to waiting.
	StuckMaxAge time.Duration `env:"REAPER_STUCK_MAX_AGE" envDefault:"30m"`

	// RetentionMaxAge prunes terminal items older than this age. Zero disables
	// pruning; finished work then persists indefinitely.
	RetentionMaxAge time.Duration `env:"REAPER_RETENTION_MAX_AGE" envDefault:"0"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < 30*time.Second {
		r.Interval = 30 * time.Second
	}
	if r.StuckMaxAge < time.Minute {
		r.StuckMaxAge = time.Minute
	}
	if r.RetentionMaxAge < 0 {
		r.RetentionMaxAge = 0
	}
	if r.RetentionMaxAge > 0 && r.RetentionMaxAge < time.Hour {
		r.RetentionMaxAge = time.Hour
	}
}
