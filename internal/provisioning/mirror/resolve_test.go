package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/provisioning"
)

func cloneSite(t *testing.T, m *Manager, files map[string]string) RepoMirror {
	t.Helper()
	m.cloner = &fakeCloner{files: files}
	mirror, err := m.Clone(context.Background(), "https://example.com/site.git")
	require.NoError(t, err)
	return mirror
}

func TestResolve_InsideTree(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	mirror := cloneSite(t, m, map[string]string{
		"index.html":      "home",
		"docs/index.html": "docs",
		"docs/a.html":     "a",
	})
	root, err := filepath.EvalSymlinks(mirror.LocalRoot)
	require.NoError(t, err)

	tests := map[string]string{
		"":             "index.html",
		"index.html":   "index.html",
		"docs/":        "docs/index.html",
		"docs/a.html":  "docs/a.html",
		"docs/../x.js": "x.js",
		"/index.html":  "index.html",
		"missing/deep": "missing/deep",
	}
	for rel, want := range tests {
		got, err := m.Resolve(mirror.ID, rel)
		require.NoError(t, err, rel)
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(want)), got, rel)
	}
}

func TestResolve_RootNamesIndex(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	mirror := cloneSite(t, m, map[string]string{"index.html": "home", "a/b.html": "b"})
	root, err := filepath.EvalSymlinks(mirror.LocalRoot)
	require.NoError(t, err)

	for _, rel := range []string{".", "./", "a/..", "a/../", "/."} {
		got, err := m.Resolve(mirror.ID, rel)
		require.NoError(t, err, rel)
		assert.Equal(t, filepath.Join(root, IndexFile), got, rel)
		assert.NotEqual(t, root, got, rel)

		f, _, err := m.Open(mirror.ID, rel)
		require.NoError(t, err, rel)
		body, err := io.ReadAll(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, "home", string(body), rel)
	}
}

func TestResolve_Traversal(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	mirror := cloneSite(t, m, map[string]string{"index.html": "home"})

	for _, rel := range []string{
		"../../etc/passwd",
		"a/../../b",
		"..",
		"../" + mirror.ID + "-evil/index.html",
	} {
		_, err := m.Resolve(mirror.ID, rel)
		var traversal *provisioning.PathTraversalError
		require.ErrorAs(t, err, &traversal, rel)
		assert.Equal(t, mirror.ID, traversal.MirrorID)
	}
}

func TestResolve_SymlinkEscape(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	mirror := cloneSite(t, m, map[string]string{"index.html": "home"})

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(mirror.LocalRoot, "link")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(mirror.LocalRoot, "file-link")))
	require.NoError(t, os.Symlink("index.html", filepath.Join(mirror.LocalRoot, "home.html")))

	for _, rel := range []string{"link/secret", "link/missing", "file-link"} {
		_, err := m.Resolve(mirror.ID, rel)
		assert.Equal(t, provisioning.KindPathTraversal, provisioning.Kind(err), rel)
	}

	got, err := m.Resolve(mirror.ID, "home.html")
	require.NoError(t, err, "links inside the tree are allowed")
	assert.Equal(t, "index.html", filepath.Base(got))
}

func TestResolve_UnknownMirror(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	mirror := cloneSite(t, m, map[string]string{"index.html": "home"})

	for _, id := range []string{
		"",
		"repo-00000000-0000-0000-0000-000000000000",
		"../" + mirror.ID,
		mirror.ID + "/..",
		"some-dir",
	} {
		_, err := m.Resolve(id, "index.html")
		assert.Equal(t, provisioning.KindNotFound, provisioning.Kind(err), id)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	mirror := cloneSite(t, m, map[string]string{
		"index.html":      "home",
		"docs/index.html": "docs",
		"empty/.keep":     "",
	})

	read := func(rel string) string {
		f, info, err := m.Open(mirror.ID, rel)
		require.NoError(t, err, rel)
		defer f.Close()
		assert.False(t, info.IsDir())
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, "home", read(""))
	assert.Equal(t, "docs", read("docs"))
	assert.Equal(t, "docs", read("docs/"))

	_, _, err := m.Open(mirror.ID, "nope.html")
	assert.Equal(t, provisioning.KindNotFound, provisioning.Kind(err))
	_, _, err = m.Open(mirror.ID, "empty")
	assert.Equal(t, provisioning.KindNotFound, provisioning.Kind(err), "directory without index")
	_, _, err = m.Open(mirror.ID, "../../etc/passwd")
	assert.Equal(t, provisioning.KindPathTraversal, provisioning.Kind(err))
}

func TestList_RediscoversAfterRestart(t *testing.T) {
	t.Parallel()
	m := newTestManager(t, nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return now }
	first := cloneSite(t, m, map[string]string{"index.html": "1"})
	now = now.Add(time.Minute)
	second := cloneSite(t, m, map[string]string{"index.html": "2"})

	m.cloner = &fakeCloner{block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Clone(ctx, "https://example.com/broken.git")
	require.Error(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "junk"+metadataSuffix), []byte("id: junk"), 0o644))

	restarted := NewManager(m.Dir())
	mirrors, err := restarted.List()
	require.NoError(t, err)
	require.Len(t, mirrors, 2)
	assert.Equal(t, first.ID, mirrors[0].ID)
	assert.Equal(t, second.ID, mirrors[1].ID)
	assert.Equal(t, "https://example.com/site.git", mirrors[0].SourceURL)
	assert.Equal(t, "0123abcd", mirrors[0].Commit)
	assert.True(t, mirrors[0].ClonedAt.Equal(first.ClonedAt))
	assert.Equal(t, first.LocalRoot, mirrors[0].LocalRoot)

	_, err = restarted.Resolve(second.ID, "")
	assert.NoError(t, err)
}

func TestList_MissingDirectory(t *testing.T) {
	t.Parallel()
	mirrors, err := NewManager(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, mirrors)
}
