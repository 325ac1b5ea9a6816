package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a local repository with one commit containing files.
func initRepo(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	hash, err := wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestClone_LocalRepository(t *testing.T) {
	src, commit := initRepo(t, map[string]string{
		"index.html":     "<h1>hello</h1>",
		"assets/app.css": "body{}",
	})
	dst := filepath.Join(t.TempDir(), "mirror")
	require.NoError(t, os.Mkdir(dst, 0o755))

	// Full history over the file transport; depth is covered by TestCloneOptions.
	client := &Client{}
	result, err := client.Clone(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, commit, result.Commit)
	assert.NotEmpty(t, result.Branch)

	data, err := os.ReadFile(filepath.Join(dst, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>hello</h1>", string(data))
	assert.FileExists(t, filepath.Join(dst, "assets", "app.css"))
}

func TestClone_MissingRemote(t *testing.T) {
	dst := t.TempDir()

	_, err := NewClient().Clone(context.Background(), filepath.Join(t.TempDir(), "nope"), dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clone")
}

func TestClone_Cancelled(t *testing.T) {
	src, _ := initRepo(t, map[string]string{"index.html": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Client{}).Clone(ctx, src, t.TempDir())
	require.Error(t, err)
}

func TestCloneOptions(t *testing.T) {
	opts := NewClient().cloneOptions("https://example.com/site.git")

	assert.Equal(t, "https://example.com/site.git", opts.URL)
	assert.Equal(t, 1, opts.Depth)
	assert.True(t, opts.SingleBranch)
	assert.Equal(t, gogit.NoTags, opts.Tags)
	require.NoError(t, opts.Validate())
}
