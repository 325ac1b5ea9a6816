// Package config defines the stratus configuration model.
//
// [Config] is loaded from an optional YAML file, completed with defaults, and
// then overridden by environment variables so container deployments can be
// configured without a file. [Timeouts] holds the env-tunable durations used
// by the orchestrators.
package config
