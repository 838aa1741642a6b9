package resilience

import (
	"time"

	"github.com/richxcame/ride-sharing/pkg/config"
)

// Settings configures a CircuitBreaker
type Settings struct {
	Name             string
	Interval         time.Duration // closed-state window after which counts reset
	Timeout          time.Duration // how long the breaker stays open
	FailureThreshold uint32        // consecutive failures that open the breaker
	SuccessThreshold uint32        // requests allowed through while half-open

	// IsFailure decides which errors count against the breaker. Nil means
	// every non-nil error does.
	IsFailure func(err error) bool
}

// BuildSettings produces Settings from the breaker section of the config,
// filling zero values with defaults.
func BuildSettings(name string, cfg config.BreakerConfig) Settings {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	failureThreshold := cfg.FailureThreshold
	if failureThreshold <= 0 {
		failureThreshold = 5
	}

	successThreshold := cfg.SuccessThreshold
	if successThreshold <= 0 {
		successThreshold = 1
	}

	return Settings{
		Name:             name,
		Interval:         interval,
		Timeout:          timeout,
		FailureThreshold: uint32(failureThreshold),
		SuccessThreshold: uint32(successThreshold),
	}
}
