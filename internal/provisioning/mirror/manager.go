package mirror

import (
	"time"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/git"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/naming"
)

const phase = "mirror"

// Operation names used for events and metrics.
const (
	opClone   = "repo_clone"
	opResolve = "repo_resolve"
	opList    = "repo_list"
)

// IndexFile is served for an empty path or a directory.
const IndexFile = "index.html"

// RepoMirror describes one cloned repository.
type RepoMirror struct {
	ID        string
	SourceURL string
	LocalRoot string
	Commit    string
	Branch    string
	ClonedAt  time.Time
}

// Manager owns the mirrors under one repositories directory.
type Manager struct {
	reposDir     string
	cloner       git.Cloner
	observer     provisioning.Observer
	cloneTimeout time.Duration
	newID        func() string
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithCloner replaces the go-git cloner.
func WithCloner(c git.Cloner) Option {
	return func(m *Manager) { m.cloner = c }
}

// WithTimeouts applies the clone timeout.
func WithTimeouts(t *config.Timeouts) Option {
	return func(m *Manager) {
		if t.Clone > 0 {
			m.cloneTimeout = t.Clone
		}
	}
}

// WithIDFunc replaces the mirror id generator.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a Manager storing mirrors under reposDir.
func NewManager(reposDir string, opts ...Option) *Manager {
	m := &Manager{
		reposDir:     reposDir,
		cloner:       git.NewClient(),
		observer:     provisioning.NopObserver(),
		cloneTimeout: 5 * time.Minute,
		newID:        naming.NewMirrorID,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the repositories directory.
func (m *Manager) Dir() string {
	return m.reposDir
}
