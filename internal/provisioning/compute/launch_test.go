package compute

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	testutil "github.com/imamik/stratus/internal/testing"
	"github.com/imamik/stratus/internal/util/labels"
)

func TestLaunch_ReturnsPendingRecord(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	p := newTestProvisioner(fx,
		WithSuffixFunc(func() string { return "abc123" }),
		WithDefaults(config.ComputeConfig{ImageID: "ami-1", InstanceType: "t3.small", KeyName: "ops"}),
	)
	script, err := BuildBootstrapScript("nginx", "")
	require.NoError(t, err)

	record, err := p.Launch(testutil.TestContext(t), LaunchRequest{SecurityGroupID: "sg-1", Script: script})
	require.NoError(t, err)

	assert.Equal(t, StatePending, record.State)
	assert.Equal(t, "stratus-abc123", record.Name())
	assert.True(t, labels.IsManaged(record.Tags))
	assert.Equal(t, 1, fx.Calls["RunInstances"])
	assert.Zero(t, fx.Calls["DescribeInstances"], "no wait unless requested")

	run := fx.LastRun
	require.NotNil(t, run)
	assert.Equal(t, "ami-1", aws.ToString(run.ImageId))
	assert.Equal(t, "t3.small", string(run.InstanceType))
	assert.Equal(t, "ops", aws.ToString(run.KeyName))
	assert.Equal(t, int32(1), aws.ToInt32(run.MinCount))
	assert.Equal(t, int32(1), aws.ToInt32(run.MaxCount))
	require.Len(t, run.NetworkInterfaces, 1)
	assert.True(t, aws.ToBool(run.NetworkInterfaces[0].AssociatePublicIpAddress))
	assert.Equal(t, []string{"sg-1"}, run.NetworkInterfaces[0].Groups)

	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(run.UserData))
	require.NoError(t, err)
	assert.Equal(t, script, string(decoded))
}

func TestLaunch_ExplicitNameAndTags(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	p := newTestProvisioner(fx)

	record, err := p.Launch(testutil.TestContext(t), LaunchRequest{
		Name: "blog",
		Tags: map[string]string{"team": "web", labels.KeyName: "ignored"},
	})
	require.NoError(t, err)

	assert.Equal(t, "blog", record.Name())
	assert.Equal(t, "web", record.Tags["team"])
	assert.Equal(t, config.DefaultImageID, aws.ToString(fx.LastRun.ImageId))
	assert.Nil(t, fx.LastRun.KeyName)
	assert.Nil(t, fx.LastRun.UserData)
}

func TestLaunch_WaitReturnsRunning(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	fx.NotFoundPolls = 1
	p := newTestProvisioner(fx)

	record, err := p.Launch(testutil.TestContext(t), LaunchRequest{Wait: true, WaitTimeout: 2 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, StateRunning, record.State)
	assert.NotEmpty(t, record.PublicAddress)
	assert.Equal(t, 1, fx.Calls["RunInstances"])
}

func TestLaunch_Throttling(t *testing.T) {
	t.Parallel()

	t.Run("retried once", func(t *testing.T) {
		t.Parallel()
		fx := testutil.NewComputeFixture()
		fx.FailCodes["RunInstances"] = []string{ec2.CodeRequestLimitExceeded}
		obs := &testutil.RecordingObserver{}
		p := newTestProvisioner(fx, WithObserver(obs))

		_, err := p.Launch(testutil.TestContext(t), LaunchRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, fx.Calls["RunInstances"])
		assert.Len(t, obs.OfType(provisioning.EventRetry), 1)
	})

	t.Run("still throttled is transient", func(t *testing.T) {
		t.Parallel()
		fx := testutil.NewComputeFixture()
		fx.FailCodes["RunInstances"] = []string{ec2.CodeThrottling, ec2.CodeRequestLimitExceeded}
		p := newTestProvisioner(fx)

		_, err := p.Launch(testutil.TestContext(t), LaunchRequest{})
		testutil.AssertKind(t, err, provisioning.KindTransient)
		assert.Equal(t, 2, fx.Calls["RunInstances"])
	})
}

func TestLaunch_OtherFailureIsLaunchError(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	fx.FailCodes["RunInstances"] = []string{"InvalidAMIID.NotFound"}
	p := newTestProvisioner(fx)

	_, err := p.Launch(testutil.TestContext(t), LaunchRequest{})

	var launchErr *provisioning.LaunchError
	require.ErrorAs(t, err, &launchErr)
	var remote *provisioning.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "InvalidAMIID.NotFound", remote.Code)
	assert.Equal(t, 1, fx.Calls["RunInstances"], "only throttling is retried")
}

func TestLaunch_Validation(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	p := newTestProvisioner(fx, WithDefaults(config.ComputeConfig{}))

	_, err := p.Launch(testutil.TestContext(t), LaunchRequest{})
	testutil.AssertKind(t, err, provisioning.KindValidation)
	assert.Zero(t, fx.Calls["RunInstances"])
}
