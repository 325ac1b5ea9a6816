package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imamik/stratus/internal/config"
)

// DefaultRegion is the provider region in which bucket creation must omit the
// location constraint.
const DefaultRegion = "us-east-1"

// Factory produces storage and compute clients bound to one region.
type Factory struct {
	awsCfg       aws.Config
	region       string
	endpoint     string
	usePathStyle bool
}

// loadConfig is swapped in tests.
var loadConfig = awsconfig.LoadDefaultConfig

// NewFactory resolves the provider configuration for cfg.
// SDK retries are disabled; callers apply their own retry policy.
func NewFactory(ctx context.Context, cfg *config.Config) (*Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.AWS.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.SessionToken),
		))
	}

	awsCfg, err := loadConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Factory{
		awsCfg:       awsCfg,
		region:       cfg.Region,
		endpoint:     cfg.AWS.Endpoint,
		usePathStyle: cfg.AWS.UsePathStyle,
	}, nil
}

// Region returns the operating region.
func (f *Factory) Region() string {
	return f.region
}

// IsDefaultRegion reports whether the operating region is the provider default.
func (f *Factory) IsDefaultRegion() bool {
	return IsDefaultRegion(f.region)
}

// IsDefaultRegion reports whether region is the provider default region.
func IsDefaultRegion(region string) bool {
	return region == "" || region == DefaultRegion
}

// Storage returns a new object storage client.
func (f *Factory) Storage() *s3.Client {
	return s3.NewFromConfig(f.awsCfg, func(o *s3.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
		o.UsePathStyle = f.usePathStyle
	})
}

// Compute returns a new compute client.
func (f *Factory) Compute() *ec2.Client {
	return ec2.NewFromConfig(f.awsCfg)
}
