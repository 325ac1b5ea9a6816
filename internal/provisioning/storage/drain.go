package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/stratus/internal/platform/s3"
	"github.com/imamik/stratus/internal/provisioning"
)

// Drain listing modes, also used as metric labels.
const (
	modeVersions = "versions"
	modeObjects  = "objects"
)

// listingError marks a failure of a listing call, as opposed to a delete call.
type listingError struct {
	err error
}

func (e *listingError) Error() string { return e.err.Error() }
func (e *listingError) Unwrap() error { return e.err }

// drainTally accumulates the outcome of one drain.
type drainTally struct {
	removed int
	failed  []provisioning.FailedObject
}

// Drain removes every object, version and delete marker from bucket and
// returns the number removed. An empty bucket drains to 0 without error.
//
// The versioned listing is tried first. If the store does not implement it,
// the drain continues with plain key listing; any other listing failure is
// returned. Objects the provider refused to delete are
// reported as PartialFailureError after every page has been processed.
func (m *Manager) Drain(ctx context.Context, bucket string) (removed int, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opDrain, start, err) }()

	if bucket == "" {
		return 0, &provisioning.ValidationError{Field: "bucket", Value: bucket, Reason: "name is required"}
	}

	tally := &drainTally{}
	err = m.drainVersions(ctx, bucket, tally)

	var listErr *listingError
	if errors.As(err, &listErr) {
		switch {
		case s3.IsNotFound(listErr.err):
			return tally.removed, &provisioning.NotFoundError{Resource: "bucket", Name: bucket, Err: listErr.err}
		case ctx.Err() != nil:
			return tally.removed, provisioning.Cancelled(ctx, opDrain, listErr.err)
		case !s3.IsUnsupported(listErr.err):
			// Plain deletes on a versioned bucket only add delete markers.
			return tally.removed, classifyRemote(ctx, "ListObjectVersions", bucket, listErr.err)
		}

		provisioning.LogFallback(m.observer, phase, opDrain, bucket, "list-objects", listErr.err)
		provisioning.RecordRetry(opDrain, "fallback")
		err = m.drainObjects(ctx, bucket, tally)
		if errors.As(err, &listErr) {
			err = classifyRemote(ctx, "ListObjectsV2", bucket, listErr.err)
		}
	}
	if err != nil {
		return tally.removed, err
	}

	if len(tally.failed) > 0 {
		return tally.removed, &provisioning.PartialFailureError{
			Bucket:  bucket,
			Removed: tally.removed,
			Failed:  tally.failed,
		}
	}
	return tally.removed, nil
}

// drainVersions pages through versions and delete markers with key/version markers.
func (m *Manager) drainVersions(ctx context.Context, bucket string, tally *drainTally) error {
	var keyMarker, versionMarker string
	for {
		var page s3.VersionPage
		err := provisioning.CallThrottled(ctx, m.observer, phase, "ListObjectVersions", m.throttleDelay, s3.IsThrottled, func() error {
			var err error
			page, err = m.client.ListVersions(ctx, bucket, keyMarker, versionMarker)
			return err
		})
		if err != nil {
			return &listingError{err: err}
		}

		if err := m.deleteBatches(ctx, bucket, page.Objects, modeVersions, tally); err != nil {
			return err
		}

		if !page.Truncated || (page.NextKeyMarker == "" && page.NextVersionMarker == "") {
			return nil
		}
		keyMarker, versionMarker = page.NextKeyMarker, page.NextVersionMarker
	}
}

// drainObjects pages through current keys only.
func (m *Manager) drainObjects(ctx context.Context, bucket string, tally *drainTally) error {
	var batchErr error
	err := m.client.WalkObjects(ctx, bucket, func(refs []s3.ObjectRef) error {
		batchErr = m.deleteBatches(ctx, bucket, refs, modeObjects, tally)
		return batchErr
	})
	if err != nil && batchErr == nil {
		return &listingError{err: err}
	}
	return err
}

// deleteBatches deletes refs in page order, in chunks of at most batchSize.
func (m *Manager) deleteBatches(ctx context.Context, bucket string, refs []s3.ObjectRef, mode string, tally *drainTally) error {
	for start := 0; start < len(refs); start += m.batchSize {
		end := min(start+m.batchSize, len(refs))

		var (
			deleted  int
			failures []s3.ObjectFailure
		)
		err := provisioning.CallThrottled(ctx, m.observer, phase, "DeleteObjects", m.throttleDelay, s3.IsThrottled, func() error {
			var err error
			deleted, failures, err = m.client.DeleteObjects(ctx, bucket, refs[start:end])
			return err
		})
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, classifyRemote(ctx, "DeleteObjects", bucket, err))
		}

		tally.removed += deleted
		for _, f := range failures {
			tally.failed = append(tally.failed, provisioning.FailedObject{
				Key:       f.Key,
				VersionID: f.VersionID,
				Code:      f.Code,
				Message:   f.Message,
			})
		}
		provisioning.RecordDrainObjects(mode, deleted)
		m.observer.Progress(phase, tally.removed, 0)
	}
	return nil
}
