package config

import (
	"fmt"
	"regexp"
)

var regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-[0-9]+$`)

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if !regionPattern.MatchString(c.Region) {
		return fmt.Errorf("invalid region %q", c.Region)
	}
	if c.Workspace == "" {
		return fmt.Errorf("workspace is required")
	}
	if c.UploadDir == "" || c.ReposDir == "" {
		return fmt.Errorf("upload_dir and repos_dir are required")
	}
	if c.Compute.InstanceType == "" {
		return fmt.Errorf("compute.instance_type is required")
	}
	if c.Compute.WebPort < 1 || c.Compute.WebPort > 65535 {
		return fmt.Errorf("compute.web_port must be between 1 and 65535, got %d", c.Compute.WebPort)
	}
	switch c.Compute.KeyType {
	case "", KeyTypeEd25519, KeyTypeRSA:
	default:
		return fmt.Errorf("compute.key_type must be ed25519 or rsa, got %q", c.Compute.KeyType)
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return fmt.Errorf("aws.access_key_id and aws.secret_access_key must be set together")
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("log.format must be one of auto, json, text, got %q", c.Log.Format)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative")
	}
	return nil
}
