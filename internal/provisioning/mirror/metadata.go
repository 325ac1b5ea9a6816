package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/naming"
)

// metadataSuffix names the file written next to each mirror directory.
const metadataSuffix = ".stratus-mirror.yaml"

type metadata struct {
	ID        string    `yaml:"id"`
	SourceURL string    `yaml:"source_url"`
	Commit    string    `yaml:"commit,omitempty"`
	Branch    string    `yaml:"branch,omitempty"`
	ClonedAt  time.Time `yaml:"cloned_at"`
}

func (m *Manager) metadataPath(id string) string {
	return filepath.Join(m.reposDir, id+metadataSuffix)
}

func (m *Manager) writeMetadata(r RepoMirror) error {
	data, err := yaml.Marshal(metadata{
		ID:        r.ID,
		SourceURL: r.SourceURL,
		Commit:    r.Commit,
		Branch:    r.Branch,
		ClonedAt:  r.ClonedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode mirror metadata: %w", err)
	}
	// #nosec G306
	if err := os.WriteFile(m.metadataPath(r.ID), data, 0o640); err != nil {
		return fmt.Errorf("failed to write mirror metadata: %w", err)
	}
	return nil
}

func (m *Manager) readMetadata(id string) (RepoMirror, error) {
	data, err := os.ReadFile(m.metadataPath(id))
	if err != nil {
		return RepoMirror{}, err
	}
	var md metadata
	if err := yaml.Unmarshal(data, &md); err != nil {
		return RepoMirror{}, fmt.Errorf("failed to parse metadata of mirror %s: %w", id, err)
	}
	if md.ID != id {
		return RepoMirror{}, fmt.Errorf("metadata of mirror %s names %q", id, md.ID)
	}
	return RepoMirror{
		ID:        id,
		SourceURL: md.SourceURL,
		LocalRoot: filepath.Join(m.reposDir, id),
		Commit:    md.Commit,
		Branch:    md.Branch,
		ClonedAt:  md.ClonedAt,
	}, nil
}

// Get returns the mirror with id. Invalid or unknown ids, including
// directories of failed clones, yield NotFoundError.
func (m *Manager) Get(id string) (RepoMirror, error) {
	if !naming.ValidMirrorID(id) {
		return RepoMirror{}, &provisioning.NotFoundError{Resource: "mirror", Name: id}
	}
	r, err := m.readMetadata(id)
	if errors.Is(err, fs.ErrNotExist) {
		return RepoMirror{}, &provisioning.NotFoundError{Resource: "mirror", Name: id, Err: err}
	}
	if err != nil {
		return RepoMirror{}, err
	}
	if info, err := os.Stat(r.LocalRoot); err != nil || !info.IsDir() {
		return RepoMirror{}, &provisioning.NotFoundError{Resource: "mirror", Name: id, Err: err}
	}
	return r, nil
}

// List returns every completed mirror, oldest first. A missing repositories
// directory yields an empty list. Unreadable metadata is skipped.
func (m *Manager) List() (mirrors []RepoMirror, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opList, start, err) }()

	entries, err := os.ReadDir(m.reposDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read repositories directory: %w", err)
	}

	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), metadataSuffix)
		if !ok || e.IsDir() {
			continue
		}
		r, err := m.Get(id)
		if err != nil {
			m.observer.Logger().Info("skipping mirror", "id", id, "error", err.Error())
			continue
		}
		mirrors = append(mirrors, r)
	}

	sort.Slice(mirrors, func(i, j int) bool {
		if !mirrors[i].ClonedAt.Equal(mirrors[j].ClonedAt) {
			return mirrors[i].ClonedAt.Before(mirrors[j].ClonedAt)
		}
		return mirrors[i].ID < mirrors[j].ID
	})
	return mirrors, nil
}
