package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/imamik/stratus/internal/platform/git"
	"github.com/imamik/stratus/internal/provisioning"
)

var cloneSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"git":   true,
	"ssh":   true,
	"file":  true,
}

// ValidateSourceURL checks that raw is an absolute URL with a scheme go-git
// can clone from.
func ValidateSourceURL(raw string) error {
	if raw == "" {
		return &provisioning.ValidationError{Field: "source_url", Reason: "source url is required"}
	}
	if strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "contains control characters"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: err.Error()}
	}
	if !cloneSchemes[u.Scheme] {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "scheme must be http, https, git, ssh or file"}
	}
	if u.Scheme == "file" {
		if u.Path == "" {
			return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "file url has no path"}
		}
	} else if u.Host == "" {
		return &provisioning.ValidationError{Field: "source_url", Value: raw, Reason: "host is required"}
	}
	return nil
}

// Clone shallow-clones sourceURL into a new directory named after a fresh
// mirror id. On failure the directory is left in place and the returned
// record still carries its id and root.
func (m *Manager) Clone(ctx context.Context, sourceURL string) (mirror RepoMirror, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opClone, start, err) }()

	if err := ValidateSourceURL(sourceURL); err != nil {
		return RepoMirror{}, err
	}
	if err := os.MkdirAll(m.reposDir, 0o750); err != nil {
		return RepoMirror{}, fmt.Errorf("failed to create repositories directory: %w", err)
	}

	id := m.newID()
	root := filepath.Join(m.reposDir, id)
	// Mkdir, not MkdirAll: an existing directory is never reused.
	if err := os.Mkdir(root, 0o750); err != nil {
		return RepoMirror{}, fmt.Errorf("failed to create mirror directory %s: %w", root, err)
	}
	mirror = RepoMirror{ID: id, SourceURL: sourceURL, LocalRoot: root}

	provisioning.LogResourceCreating(m.observer, phase, "mirror", id)

	cloneCtx, cancel := context.WithTimeout(ctx, m.cloneTimeout)
	defer cancel()

	result, err := m.cloner.Clone(cloneCtx, sourceURL, root)
	if err != nil {
		if ctx.Err() != nil {
			err = &provisioning.CancelledError{Operation: opClone, Err: ctx.Err()}
		} else {
			err = &provisioning.CloneError{URL: sourceURL, Diagnostic: m.diagnostic(cloneCtx, err), Err: err}
		}
		provisioning.LogResourceFailed(m.observer, phase, "mirror", id, err)
		return mirror, err
	}

	mirror.Commit = result.Commit
	mirror.Branch = result.Branch
	mirror.ClonedAt = m.now().UTC()
	if err := m.writeMetadata(mirror); err != nil {
		provisioning.LogResourceFailed(m.observer, phase, "mirror", id, err)
		return mirror, err
	}

	provisioning.LogResourceCreated(m.observer, phase, "mirror", sourceURL, id)
	return mirror, nil
}

func (m *Manager) diagnostic(cloneCtx context.Context, err error) string {
	switch {
	case errors.Is(cloneCtx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("clone did not finish within %s", m.cloneTimeout)
	case git.IsRemoteMissing(err):
		return "repository not found, empty or not accessible: " + err.Error()
	default:
		return err.Error()
	}
}
