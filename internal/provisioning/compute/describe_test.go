package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/provisioning"
	testutil "github.com/imamik/stratus/internal/testing"
	"github.com/imamik/stratus/internal/util/labels"
)

func TestStateOf(t *testing.T) {
	t.Parallel()
	tests := map[string]State{
		"pending":       StatePending,
		"running":       StateRunning,
		"shutting-down": StateTerminated,
		"terminated":    StateTerminated,
		"stopping":      StateUnknown,
		"stopped":       StateUnknown,
		"":              StateUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, stateOf(in), in)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	named := fx.AddInstance("running", map[string]string{labels.KeyName: "blog", "team": "web"})
	unnamed := fx.AddInstance("stopped", nil)
	p := newTestProvisioner(fx)

	records, err := p.Describe(testutil.TestContext(t))
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[string]InstanceRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}
	assert.Equal(t, "blog", byID[named].Name())
	assert.Equal(t, StateRunning, byID[named].State)
	assert.Equal(t, "web", byID[named].Tags["team"])

	name, ok := byID[unnamed].Tags[labels.KeyName]
	assert.True(t, ok, "Name tag is always present")
	assert.Empty(t, name)
	assert.Equal(t, StateUnknown, byID[unnamed].State)
}

func TestDescribe_Empty(t *testing.T) {
	t.Parallel()
	records, err := newTestProvisioner(testutil.NewComputeFixture()).Describe(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetAndTerminate(t *testing.T) {
	t.Parallel()
	fx := testutil.NewComputeFixture()
	id := fx.AddInstance("running", nil)
	p := newTestProvisioner(fx)
	ctx := testutil.TestContext(t)

	record, err := p.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, record.State)

	require.NoError(t, p.Terminate(ctx, id))
	record, err = p.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, record.State)

	_, err = p.Get(ctx, "i-missing")
	testutil.AssertKind(t, err, provisioning.KindNotFound)
	testutil.AssertKind(t, p.Terminate(ctx, "i-missing"), provisioning.KindNotFound)
	testutil.AssertKind(t, p.Terminate(ctx, ""), provisioning.KindValidation)
}
