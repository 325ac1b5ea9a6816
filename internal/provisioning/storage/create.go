package storage

import (
	"context"
	"strings"
	"time"

	"github.com/imamik/stratus/internal/platform/cloud"
	"github.com/imamik/stratus/internal/platform/s3"
	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/util/namelock"
	"github.com/imamik/stratus/internal/util/naming"
)

// Create creates a bucket and returns the name actually bound.
//
// A bucket already owned by the caller is success under the requested name. A
// name taken by another owner, or rejected by the provider, is retried exactly
// once as {name}-{6 random [a-z0-9]}.
func (m *Manager) Create(ctx context.Context, requestedName string) (bound string, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opCreate, start, err) }()

	if err := validateBucketName(requestedName); err != nil {
		return "", err
	}

	err = namelock.With(m.locker, requestedName, func() error {
		bound, err = m.create(ctx, requestedName)
		return err
	})
	if err != nil {
		provisioning.LogResourceFailed(m.observer, phase, "bucket", requestedName, err)
		return "", err
	}
	return bound, nil
}

func (m *Manager) create(ctx context.Context, name string) (string, error) {
	provisioning.LogResourceCreating(m.observer, phase, "bucket", name)

	err := m.createOnce(ctx, name)
	switch {
	case err == nil:
		provisioning.LogResourceCreated(m.observer, phase, "bucket", name, name)
		return name, nil
	case s3.IsBucketAlreadyOwnedByYou(err):
		provisioning.LogResourceExists(m.observer, phase, "bucket", name, name)
		return name, nil
	case !s3.IsNameUnavailable(err):
		return "", &provisioning.CreateError{Bucket: name, Err: classifyRemote(ctx, "CreateBucket", name, err)}
	}

	conflict := newConflict(name, err)
	candidate := naming.BucketWithSuffix(name, m.suffix())
	provisioning.LogRetry(m.observer, phase, opCreate, "name_unavailable", conflict)
	provisioning.RecordRetry(opCreate, "name_unavailable")

	err = m.createOnce(ctx, candidate)
	switch {
	case err == nil:
		provisioning.LogResourceCreated(m.observer, phase, "bucket", candidate, candidate)
		return candidate, nil
	case s3.IsBucketAlreadyOwnedByYou(err):
		provisioning.LogResourceExists(m.observer, phase, "bucket", candidate, candidate)
		return candidate, nil
	case s3.IsNameUnavailable(err):
		return "", &provisioning.CreateError{Bucket: candidate, Err: newConflict(candidate, err)}
	default:
		return "", &provisioning.CreateError{Bucket: candidate, Err: classifyRemote(ctx, "CreateBucket", candidate, err)}
	}
}

// createOnce issues one create call, plus the throttling retry.
func (m *Manager) createOnce(ctx context.Context, name string) error {
	withLocation := !cloud.IsDefaultRegion(m.client.Region())
	return provisioning.CallThrottled(ctx, m.observer, phase, opCreate, m.throttleDelay, s3.IsThrottled, func() error {
		return m.client.CreateBucket(ctx, name, withLocation)
	})
}

func newConflict(name string, err error) *provisioning.ConflictError {
	code, _ := s3.ErrorCode(err)
	if code == "" {
		code = s3.CodeBucketAlreadyExists
	}
	return &provisioning.ConflictError{Name: name, Code: code, Err: err}
}

// validateBucketName rejects names the provider would refuse. Upper-case input
// is rejected, not folded.
func validateBucketName(name string) error {
	switch {
	case name == "":
		return &provisioning.ValidationError{Field: "bucket", Value: name, Reason: "name is required"}
	case name != strings.ToLower(name):
		return &provisioning.ValidationError{Field: "bucket", Value: name, Reason: "must be lower-case"}
	case len(name) < 3 || len(name) > naming.MaxBucketNameLength:
		return &provisioning.ValidationError{Field: "bucket", Value: name, Reason: "must be 3-63 characters"}
	case !naming.ValidBucketName(name):
		return &provisioning.ValidationError{Field: "bucket", Value: name, Reason: "only letters, digits and inner hyphens are allowed"}
	}
	return nil
}
