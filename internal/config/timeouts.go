package config

import (
	"os"
	"strconv"
	"time"
)

// MaxDrainBatchSize is the provider's objects-per-delete-call limit.
const MaxDrainBatchSize = 1000

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	InstanceRunning time.Duration // Default wait for an instance to reach running
	PollInterval    time.Duration // Interval between instance status polls
	ThrottleDelay   time.Duration // Fixed delay before the single throttling retry
	Clone           time.Duration // Timeout for a repository clone
	Delete          time.Duration // Timeout for bucket drain + delete
	Request         time.Duration // Timeout applied to HTTP adapter requests
	DrainBatchSize  int           // Objects per delete call, capped at MaxDrainBatchSize
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - STRATUS_TIMEOUT_INSTANCE_RUNNING (default: 5m)
//   - STRATUS_POLL_INTERVAL (default: 5s)
//   - STRATUS_RETRY_THROTTLE_DELAY (default: 2s)
//   - STRATUS_TIMEOUT_CLONE (default: 5m)
//   - STRATUS_TIMEOUT_DELETE (default: 10m)
//   - STRATUS_TIMEOUT_REQUEST (default: 60s)
//   - STRATUS_DRAIN_BATCH_SIZE (default: 1000)
func LoadTimeouts() *Timeouts {
	batch := parseInt("STRATUS_DRAIN_BATCH_SIZE", MaxDrainBatchSize)
	if batch <= 0 || batch > MaxDrainBatchSize {
		batch = MaxDrainBatchSize
	}
	return &Timeouts{
		InstanceRunning: parseDuration("STRATUS_TIMEOUT_INSTANCE_RUNNING", 5*time.Minute),
		PollInterval:    parseDuration("STRATUS_POLL_INTERVAL", 5*time.Second),
		ThrottleDelay:   parseDuration("STRATUS_RETRY_THROTTLE_DELAY", 2*time.Second),
		Clone:           parseDuration("STRATUS_TIMEOUT_CLONE", 5*time.Minute),
		Delete:          parseDuration("STRATUS_TIMEOUT_DELETE", 10*time.Minute),
		Request:         parseDuration("STRATUS_TIMEOUT_REQUEST", 60*time.Second),
		DrainBatchSize:  batch,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
