package storage

import (
	"time"

	"github.com/imamik/stratus/internal/config"
	"github.com/imamik/stratus/internal/platform/cloud"
	"github.com/imamik/stratus/internal/platform/s3"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/namelock"
	"github.com/imamik/stratus/internal/util/naming"
)

const phase = "storage"

// Operation names used for events and metrics.
const (
	opCreate  = "bucket_create"
	opUpload  = "bucket_upload"
	opDrain   = "bucket_drain"
	opDelete  = "bucket_delete"
	opList    = "bucket_list"
	opInspect = "bucket_inspect"
)

// BucketRecord describes a bucket. VersioningEnabled is discovered, never set.
type BucketRecord struct {
	Name              string
	Region            string
	VersioningEnabled bool
	CreatedAt         time.Time
}

// Manager orchestrates bucket lifecycle operations.
type Manager struct {
	client        *s3.Client
	observer      provisioning.Observer
	locker        namelock.Locker
	cacheDir      string
	throttleDelay time.Duration
	deleteTimeout time.Duration
	batchSize     int
	suffix        func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithLocker serializes Create calls per requested name.
func WithLocker(l namelock.Locker) Option {
	return func(m *Manager) { m.locker = l }
}

// WithCacheDir enables the local upload cache under dir.
func WithCacheDir(dir string) Option {
	return func(m *Manager) { m.cacheDir = dir }
}

// WithTimeouts applies the throttle delay, delete timeout and drain batch size.
func WithTimeouts(t *config.Timeouts) Option {
	return func(m *Manager) {
		m.throttleDelay = t.ThrottleDelay
		m.deleteTimeout = t.Delete
		if t.DrainBatchSize > 0 && t.DrainBatchSize <= s3.MaxDeleteBatch {
			m.batchSize = t.DrainBatchSize
		}
	}
}

// WithSuffixFunc replaces the random collision suffix generator.
func WithSuffixFunc(fn func() string) Option {
	return func(m *Manager) { m.suffix = fn }
}

// NewManager creates a Manager over client.
func NewManager(client *s3.Client, opts ...Option) *Manager {
	m := &Manager{
		client:        client,
		observer:      provisioning.NopObserver(),
		throttleDelay: 2 * time.Second,
		batchSize:     s3.MaxDeleteBatch,
		suffix:        func() string { return naming.RandomSuffix(naming.SuffixLength) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerFromFactory wires a Manager to the factory's storage client.
func NewManagerFromFactory(f *cloud.Factory, opts ...Option) *Manager {
	return NewManager(s3.NewClient(f.Storage(), f.Region()), opts...)
}

// Region returns the operating region.
func (m *Manager) Region() string {
	return m.client.Region()
}
