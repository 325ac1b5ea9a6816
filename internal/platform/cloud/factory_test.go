package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/config"
)

func TestNewFactory(t *testing.T) {
	cfg := config.Default()
	cfg.Region = "eu-west-3"
	cfg.AWS.AccessKeyID = "AKIDEXAMPLE"
	cfg.AWS.SecretAccessKey = "secret"
	cfg.AWS.Endpoint = "http://localhost:9000"
	cfg.AWS.UsePathStyle = true

	f, err := NewFactory(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-3", f.Region())
	assert.False(t, f.IsDefaultRegion())
	assert.Equal(t, 1, f.awsCfg.RetryMaxAttempts)

	creds, err := f.awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)

	storage := f.Storage()
	require.NotNil(t, storage)
	assert.Equal(t, "http://localhost:9000", aws.ToString(storage.Options().BaseEndpoint))
	assert.True(t, storage.Options().UsePathStyle)
	assert.Equal(t, "eu-west-3", storage.Options().Region)

	compute := f.Compute()
	require.NotNil(t, compute)
	assert.Equal(t, "eu-west-3", compute.Options().Region)
}

func TestNewFactory_Validation(t *testing.T) {
	_, err := NewFactory(context.Background(), nil)
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Region = ""
	_, err = NewFactory(context.Background(), cfg)
	assert.ErrorContains(t, err, "region is required")
}

func TestNewFactory_LoadError(t *testing.T) {
	orig := loadConfig
	t.Cleanup(func() { loadConfig = orig })
	loadConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("broken profile")
	}

	_, err := NewFactory(context.Background(), config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load AWS config")
}

func TestIsDefaultRegion(t *testing.T) {
	assert.True(t, IsDefaultRegion("us-east-1"))
	assert.True(t, IsDefaultRegion(""))
	assert.False(t, IsDefaultRegion("eu-west-3"))
}
