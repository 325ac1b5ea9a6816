package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/smithy-go"
)

// Error kinds returned by Kind. They are stable and used as metric labels and
// for HTTP status mapping.
const (
	KindValidation     = "validation"
	KindConflict       = "conflict"
	KindNotFound       = "not_found"
	KindTransient      = "transient"
	KindPartialFailure = "partial_failure"
	KindNotEmpty       = "not_empty"
	KindTimeout        = "timeout"
	KindLaunchFailed   = "launch_failed"
	KindClone          = "clone"
	KindPathTraversal  = "path_traversal"
	KindCancelled      = "cancelled"
	KindRemote         = "remote"
	KindInternal       = "internal"
)

// ValidationError reports caller input rejected before any remote call.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConflictError reports a name that is taken by another owner or rejected by the provider.
type ConflictError struct {
	Name string
	Code string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("name %s unavailable (%s)", e.Name, e.Code)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// NotFoundError reports a missing bucket, instance, mirror or file.
type NotFoundError struct {
	Resource string
	Name     string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TransientError reports a throttled call that still failed after its retry.
type TransientError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s throttled after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FailedObject is one object a batch delete could not remove.
type FailedObject struct {
	Key       string
	VersionID string
	Code      string
	Message   string
}

// PartialFailureError reports a drain that removed some objects but not all.
type PartialFailureError struct {
	Bucket  string
	Removed int
	Failed  []FailedObject
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("drain of bucket %s removed %d objects, %d failed", e.Bucket, e.Removed, len(e.Failed))
}

// NotEmptyError reports a bucket delete refused because objects remain.
type NotEmptyError struct {
	Bucket string
	Err    error
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("bucket %s is not empty", e.Bucket)
}

func (e *NotEmptyError) Unwrap() error { return e.Err }

// ProvisionTimeoutError reports an instance that did not reach running in time.
type ProvisionTimeoutError struct {
	InstanceID string
	Timeout    time.Duration
	LastState  string
}

func (e *ProvisionTimeoutError) Error() string {
	return fmt.Sprintf("instance %s not running after %s (last state %q)", e.InstanceID, e.Timeout, e.LastState)
}

// LaunchFailedError reports an instance that terminated while being awaited.
type LaunchFailedError struct {
	InstanceID string
	State      string
}

func (e *LaunchFailedError) Error() string {
	return fmt.Sprintf("instance %s entered state %s before running", e.InstanceID, e.State)
}

// CloneError reports a failed repository clone. Diagnostic is the clone tool's message.
type CloneError struct {
	URL        string
	Diagnostic string
	Err        error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("clone of %s failed: %s", e.URL, e.Diagnostic)
}

func (e *CloneError) Unwrap() error { return e.Err }

// PathTraversalError reports a mirror path resolving outside its root.
type PathTraversalError struct {
	MirrorID string
	Path     string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path %q escapes mirror %s", e.Path, e.MirrorID)
}

// RemoteError is an unclassified control-plane failure.
type RemoteError struct {
	Operation string
	Code      string
	Message   string
	Err       error
}

// NewRemoteError builds a RemoteError, extracting the API code when present.
func NewRemoteError(operation string, err error) *RemoteError {
	re := &RemoteError{Operation: operation, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		re.Code = apiErr.ErrorCode()
		re.Message = apiErr.ErrorMessage()
	}
	return re
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s failed: %s: %s", e.Operation, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// CancelledError reports an operation stopped by its caller's context.
type CancelledError struct {
	Operation string
	Err       error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s cancelled: %v", e.Operation, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// CreateError wraps a failed bucket create.
type CreateError struct {
	Bucket string
	Err    error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create bucket %s: %v", e.Bucket, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// UploadError wraps a failed upload. CacheOnly is set when the remote put
// succeeded and only the local cache write failed.
type UploadError struct {
	Bucket    string
	Key       string
	CacheOnly bool
	Err       error
}

func (e *UploadError) Error() string {
	if e.CacheOnly {
		return fmt.Sprintf("upload %s/%s: stored remotely, cache write failed: %v", e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("upload %s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DeleteError wraps a failed bucket delete.
type DeleteError struct {
	Bucket string
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete bucket %s: %v", e.Bucket, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// LaunchError wraps a failed instance launch.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch instance: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Cancelled wraps err as a CancelledError when ctx is done, and returns err
// unchanged otherwise.
func Cancelled(ctx context.Context, operation string, err error) error {
	if ctx.Err() == nil {
		return err
	}
	var ce *CancelledError
	if errors.As(err, &ce) {
		return err
	}
	return &CancelledError{Operation: operation, Err: errors.Join(ctx.Err(), err)}
}

// Kind classifies err. Nil errors have an empty kind.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation *ValidationError
		conflict   *ConflictError
		notFound   *NotFoundError
		transient  *TransientError
		partial    *PartialFailureError
		notEmpty   *NotEmptyError
		timeout    *ProvisionTimeoutError
		failed     *LaunchFailedError
		clone      *CloneError
		traversal  *PathTraversalError
		cancelled  *CancelledError
		remote     *RemoteError
	)

	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &traversal):
		return KindPathTraversal
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &notEmpty):
		return KindNotEmpty
	case errors.As(err, &partial):
		return KindPartialFailure
	case errors.As(err, &transient):
		return KindTransient
	case errors.As(err, &timeout):
		return KindTimeout
	case errors.As(err, &failed):
		return KindLaunchFailed
	case errors.As(err, &cancelled):
		return KindCancelled
	case errors.As(err, &clone):
		return KindClone
	case errors.As(err, &remote):
		return KindRemote
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	}
	return KindInternal
}

// FormatFailures renders failed objects as "key@version: code" pairs.
func FormatFailures(failed []FailedObject) string {
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		id := f.Key
		if f.VersionID != "" {
			id += "@" + f.VersionID
		}
		parts = append(parts, fmt.Sprintf("%s: %s", id, f.Code))
	}
	return strings.Join(parts, ", ")
}
