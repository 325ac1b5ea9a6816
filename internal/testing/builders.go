package testing

import (
	"path/filepath"
	"time"

	"github.com/imamik/stratus/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with every default applied.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{cfg: *config.Default()}
}

// WithRegion sets the operating region.
func (b *ConfigBuilder) WithRegion(region string) *ConfigBuilder {
	next := b.clone()
	next.cfg.Region = region
	return next
}

// WithWorkspace sets the workspace and the directories derived from it.
func (b *ConfigBuilder) WithWorkspace(dir string) *ConfigBuilder {
	next := b.clone()
	next.cfg.Workspace = dir
	next.cfg.UploadDir = filepath.Join(dir, "uploads")
	next.cfg.ReposDir = filepath.Join(dir, "repos")
	return next
}

// WithEndpoint points storage at an S3-compatible endpoint using path-style addressing.
func (b *ConfigBuilder) WithEndpoint(endpoint string) *ConfigBuilder {
	next := b.clone()
	next.cfg.AWS.Endpoint = endpoint
	next.cfg.AWS.UsePathStyle = true
	return next
}

// WithCredentials sets static credentials.
func (b *ConfigBuilder) WithCredentials(accessKeyID, secretAccessKey string) *ConfigBuilder {
	next := b.clone()
	next.cfg.AWS.AccessKeyID = accessKeyID
	next.cfg.AWS.SecretAccessKey = secretAccessKey
	return next
}

// WithSecurityGroup sets the security group name and VPC.
func (b *ConfigBuilder) WithSecurityGroup(name, vpcID string) *ConfigBuilder {
	next := b.clone()
	next.cfg.Compute.SecurityGroup = name
	next.cfg.Compute.VpcID = vpcID
	return next
}

// WithWebServer sets the web server package and port.
func (b *ConfigBuilder) WithWebServer(pkg string, port int) *ConfigBuilder {
	next := b.clone()
	next.cfg.Compute.WebServerPackage = pkg
	next.cfg.Compute.WebPort = port
	return next
}

// Build returns the constructed config.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.cfg // copy
	return &cfg
}

// Config holds only values, so a struct copy is a deep copy.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	return &ConfigBuilder{cfg: b.cfg}
}

// MinimalConfig returns a valid config rooted at workspace.
func MinimalConfig(workspace string) *config.Config {
	return NewConfigBuilder().WithWorkspace(workspace).Build()
}

// FastTimeouts returns timeouts suited to unit tests.
func FastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		InstanceRunning: 2 * time.Second,
		PollInterval:    time.Millisecond,
		ThrottleDelay:   time.Millisecond,
		Clone:           10 * time.Second,
		Delete:          10 * time.Second,
		Request:         10 * time.Second,
		DrainBatchSize:  config.MaxDrainBatchSize,
	}
}
