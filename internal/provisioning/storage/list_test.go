package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/provisioning"
	testutil "github.com/imamik/stratus/internal/testing"
)

func TestList(t *testing.T) {
	t.Parallel()
	store := testutil.NewObjectStore()
	store.AddBucket("alpha", testutil.OwnerSelf, true)
	store.AddBucket("beta", testutil.OwnerSelf, false)
	m := newTestManager(t, store, "eu-west-3")

	records, err := m.List(testutil.TestContext(t))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "eu-west-3", records[0].Region)
	assert.False(t, records[0].VersioningEnabled, "list does not probe versioning")
	assert.Equal(t, "beta", records[1].Name)
}

func TestInspect(t *testing.T) {
	t.Parallel()
	store := testutil.NewObjectStore()
	store.AddBucket("alpha", testutil.OwnerSelf, true)
	m := newTestManager(t, store, "eu-west-3")
	ctx := testutil.TestContext(t)

	record, err := m.Inspect(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, BucketRecord{Name: "alpha", Region: "eu-west-3", VersioningEnabled: true}, record)

	_, err = m.Inspect(ctx, "missing")
	testutil.AssertKind(t, err, provisioning.KindNotFound)

	_, err = m.Inspect(ctx, "")
	testutil.AssertKind(t, err, provisioning.KindValidation)
}
