package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/ec2"
	"github.com/imamik/stratus/internal/provisioning"
	testutil "github.com/imamik/stratus/internal/testing"
)

func TestEnsureKeyPair_Creates(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	p := newTestProvisioner(fx)

	result, err := p.EnsureKeyPair(testutil.TestContext(t), "ops")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.NotEmpty(t, result.ID)
	assert.Contains(t, string(result.PrivateKey), "OPENSSH PRIVATE KEY")
	assert.Contains(t, result.Fingerprint, "SHA256:")
	assert.True(t, fx.HasKeyPair("ops"))
}

func TestEnsureKeyPair_Existing(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	fx.AddKeyPair("ops")
	p := newTestProvisioner(fx)

	result, err := p.EnsureKeyPair(testutil.TestContext(t), "ops")
	require.NoError(t, err)

	assert.False(t, result.Created)
	assert.Empty(t, result.PrivateKey)
	assert.Zero(t, fx.Calls["ImportKeyPair"])
}

func TestEnsureKeyPair_RacingImport(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	fx.FailCodes["ImportKeyPair"] = []string{ec2.CodeKeyPairDuplicate}
	p := newTestProvisioner(fx)

	result, err := p.EnsureKeyPair(testutil.TestContext(t), "ops")
	require.NoError(t, err)
	assert.False(t, result.Created)
}

func TestEnsureKeyPair_Errors(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	fx.FailCodes["DescribeKeyPairs"] = []string{"UnauthorizedOperation"}
	p := newTestProvisioner(fx)
	ctx := testutil.TestContext(t)

	_, err := p.EnsureKeyPair(ctx, "ops")
	testutil.AssertKind(t, err, provisioning.KindRemote)

	_, err = p.EnsureKeyPair(ctx, "")
	testutil.AssertKind(t, err, provisioning.KindValidation)
}

func TestEnsureKeyPair_RSA(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	p := newTestProvisioner(fx, WithDefaults(config.ComputeConfig{KeyType: config.KeyTypeRSA}))

	result, err := p.EnsureKeyPair(testutil.TestContext(t), "legacy")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Contains(t, string(result.PrivateKey), "RSA PRIVATE KEY")
	assert.True(t, fx.HasKeyPair("legacy"))
}

func TestEnsureKeyPair_UnknownKeyType(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	p := newTestProvisioner(fx, WithDefaults(config.ComputeConfig{KeyType: "dsa"}))

	_, err := p.EnsureKeyPair(testutil.TestContext(t), "ops")
	testutil.AssertKind(t, err, provisioning.KindValidation)
	assert.Zero(t, fx.Calls["ImportKeyPair"])
}
