package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/imamik/stratus/internal/provisioning"
)

// Resolve maps relPath to an absolute path strictly inside the mirror's tree.
// An empty path, one ending in "/" or one naming the root itself resolves to
// the index file. Symlinks are followed before the containment check, so a
// link pointing outside the tree is rejected with PathTraversalError. The
// returned path need not exist.
func (m *Manager) Resolve(mirrorID, relPath string) (resolved string, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opResolve, start, err) }()

	r, err := m.Get(mirrorID)
	if err != nil {
		return "", err
	}
	if relPath == "" || strings.HasSuffix(relPath, "/") {
		relPath += IndexFile
	}

	root, err := filepath.EvalSymlinks(r.LocalRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve mirror root: %w", err)
	}
	candidate := filepath.Join(root, filepath.FromSlash(relPath))
	resolved, err = canonicalize(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", relPath, err)
	}
	if resolved == root {
		// "." and "a/.." name the tree itself.
		resolved, err = canonicalize(filepath.Join(root, IndexFile))
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", relPath, err)
		}
	}
	if !within(root, resolved) {
		return "", &provisioning.PathTraversalError{MirrorID: mirrorID, Path: relPath}
	}
	return resolved, nil
}

// Open resolves relPath and opens the file. A directory is served through its
// index file. Missing files yield NotFoundError.
func (m *Manager) Open(mirrorID, relPath string) (*os.File, fs.FileInfo, error) {
	path, err := m.Resolve(mirrorID, relPath)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path, err = m.Resolve(mirrorID, strings.TrimSuffix(relPath, "/")+"/")
		if err != nil {
			return nil, nil, err
		}
		info, err = os.Stat(path)
		if err == nil && info.IsDir() {
			err = fs.ErrNotExist
		}
	}
	if err != nil {
		return nil, nil, &provisioning.NotFoundError{Resource: "file", Name: relPath, Err: err}
	}

	f, err := os.Open(path) // #nosec G304 -- path is contained in the mirror root
	if err != nil {
		return nil, nil, &provisioning.NotFoundError{Resource: "file", Name: relPath, Err: err}
	}
	return f, info, nil
}

// canonicalize evaluates symlinks in path. For a path that does not exist the
// deepest existing ancestor is evaluated and the remainder appended.
func canonicalize(path string) (string, error) {
	var rest []string
	cur := path
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{real}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// within reports whether path lies strictly below root.
func within(root, path string) bool {
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
