package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket(t *testing.T) {
	cmd := Bucket()

	require.NotNil(t, cmd)
	assert.Equal(t, "bucket", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
		assert.NotNil(t, sub.RunE, "%s should have RunE", sub.Name())
	}
	assert.ElementsMatch(t, []string{"create", "upload", "drain", "delete", "list", "inspect"}, names)
}

func TestBucketUpload_KeyFlag(t *testing.T) {
	cmd := bucketUpload()

	flag := cmd.Flags().Lookup("key")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestBucketDelete_LongDescription(t *testing.T) {
	cmd := bucketDelete()
	assert.Contains(t, cmd.Long, "WARNING")
}

func TestBucket_JSONFlags(t *testing.T) {
	for _, c := range Bucket().Commands() {
		if c.Name() != "list" && c.Name() != "inspect" {
			continue
		}
		flag := c.Flags().Lookup("json")
		require.NotNil(t, flag, "%s should have --json", c.Name())
		assert.Equal(t, "false", flag.DefValue)
	}
}
