package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	// Region is the operating region for both storage and compute.
	Region string `yaml:"region"`

	// Workspace is the root for local artifacts (upload cache, repository mirrors).
	Workspace string `yaml:"workspace"`
	UploadDir string `yaml:"upload_dir"`
	ReposDir  string `yaml:"repos_dir"`

	AWS     AWSConfig     `yaml:"aws"`
	Compute ComputeConfig `yaml:"compute"`
	Serve   ServeConfig   `yaml:"serve"`
	Log     LogConfig     `yaml:"log"`
}

// AWSConfig holds optional credential and endpoint overrides. When credentials
// are empty the SDK default chain is used.
type AWSConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	// Endpoint overrides the storage endpoint (S3-compatible stores, local emulators).
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// ComputeConfig holds instance launch defaults.
type ComputeConfig struct {
	ImageID      string `yaml:"image_id"`
	InstanceType string `yaml:"instance_type"`
	KeyName      string `yaml:"key_name"`
	// KeyType is the algorithm of generated key pairs: ed25519 or rsa.
	KeyType          string `yaml:"key_type"`
	SecurityGroup    string `yaml:"security_group"`
	VpcID            string `yaml:"vpc_id"`
	WebServerPackage string `yaml:"web_server_package"`
	WebPort          int    `yaml:"web_port"`
}

// ServeConfig configures the HTTP adapter.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Format is auto, json or text. auto selects json when stderr is not a terminal.
	Format    string `yaml:"format"`
	Verbosity int    `yaml:"verbosity"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values. Directory defaults derive from Workspace.
func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Workspace == "" {
		c.Workspace = DefaultWorkspace
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.Workspace, "uploads")
	}
	if c.ReposDir == "" {
		c.ReposDir = filepath.Join(c.Workspace, "repos")
	}
	if c.Compute.ImageID == "" {
		c.Compute.ImageID = DefaultImageID
	}
	if c.Compute.InstanceType == "" {
		c.Compute.InstanceType = DefaultInstanceType
	}
	if c.Compute.KeyType == "" {
		c.Compute.KeyType = DefaultKeyType
	}
	if c.Compute.SecurityGroup == "" {
		c.Compute.SecurityGroup = DefaultSecurityGroup
	}
	if c.Compute.WebServerPackage == "" {
		c.Compute.WebServerPackage = DefaultWebServerPackage
	}
	if c.Compute.WebPort == 0 {
		c.Compute.WebPort = DefaultWebPort
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// applyEnv overrides fields from environment variables.
//
// Environment Variables:
//   - AWS_REGION, AWS_DEFAULT_REGION (AWS_REGION wins)
//   - STRATUS_WORKSPACE, STRATUS_UPLOAD_DIR, STRATUS_REPOS_DIR
//   - STRATUS_S3_ENDPOINT, STRATUS_S3_PATH_STYLE
//   - STRATUS_IMAGE_ID, STRATUS_INSTANCE_TYPE, STRATUS_KEY_NAME, STRATUS_KEY_TYPE, STRATUS_SECURITY_GROUP, STRATUS_VPC_ID
//   - STRATUS_SERVE_ADDR
//   - STRATUS_LOG_FORMAT, STRATUS_LOG_VERBOSITY
func (c *Config) applyEnv() {
	setString(&c.Region, "AWS_DEFAULT_REGION")
	setString(&c.Region, "AWS_REGION")
	if ws := os.Getenv("STRATUS_WORKSPACE"); ws != "" && ws != c.Workspace {
		c.Workspace = ws
		c.UploadDir = filepath.Join(ws, "uploads")
		c.ReposDir = filepath.Join(ws, "repos")
	}
	setString(&c.UploadDir, "STRATUS_UPLOAD_DIR")
	setString(&c.ReposDir, "STRATUS_REPOS_DIR")
	setString(&c.AWS.Endpoint, "STRATUS_S3_ENDPOINT")
	if v, err := strconv.ParseBool(os.Getenv("STRATUS_S3_PATH_STYLE")); err == nil {
		c.AWS.UsePathStyle = v
	}
	setString(&c.Compute.ImageID, "STRATUS_IMAGE_ID")
	setString(&c.Compute.InstanceType, "STRATUS_INSTANCE_TYPE")
	setString(&c.Compute.KeyName, "STRATUS_KEY_NAME")
	setString(&c.Compute.KeyType, "STRATUS_KEY_TYPE")
	setString(&c.Compute.SecurityGroup, "STRATUS_SECURITY_GROUP")
	setString(&c.Compute.VpcID, "STRATUS_VPC_ID")
	setString(&c.Serve.Addr, "STRATUS_SERVE_ADDR")
	setString(&c.Log.Format, "STRATUS_LOG_FORMAT")
	c.Log.Verbosity = parseInt("STRATUS_LOG_VERBOSITY", c.Log.Verbosity)
}

func setString(dst *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*dst = v
	}
}
