package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/imamik/stratus/internal/platform/s3"
	"github.com/imamik/stratus/internal/provisioning"
)

// Delete drains bucket and then deletes it. Each step runs once: a bucket
// still reported non-empty after the drain yields NotEmptyError.
func (m *Manager) Delete(ctx context.Context, bucket string) (err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opDelete, start, err) }()

	if bucket == "" {
		return &provisioning.ValidationError{Field: "bucket", Value: bucket, Reason: "name is required"}
	}

	if m.deleteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.deleteTimeout)
		defer cancel()
	}

	provisioning.LogResourceDeleting(m.observer, phase, "bucket", bucket)

	removed, err := m.Drain(ctx, bucket)
	if err != nil {
		switch provisioning.Kind(err) {
		case provisioning.KindNotFound, provisioning.KindCancelled, provisioning.KindValidation:
		default:
			err = &provisioning.DeleteError{Bucket: bucket, Err: err}
		}
		provisioning.LogResourceFailed(m.observer, phase, "bucket", bucket, err)
		return err
	}
	m.observer.Event(provisioning.Event{
		Type:     provisioning.EventProgress,
		Phase:    phase,
		Resource: bucket,
		Message:  "bucket drained",
		Fields:   map[string]string{"removed": strconv.Itoa(removed)},
	})

	err = provisioning.CallThrottled(ctx, m.observer, phase, opDelete, m.throttleDelay, s3.IsThrottled, func() error {
		return m.client.DeleteBucket(ctx, bucket)
	})
	switch {
	case err == nil:
		provisioning.LogResourceDeleted(m.observer, phase, "bucket", bucket)
		return nil
	case s3.IsBucketNotEmpty(err):
		err = &provisioning.NotEmptyError{Bucket: bucket, Err: err}
	case s3.IsNotFound(err):
		err = &provisioning.NotFoundError{Resource: "bucket", Name: bucket, Err: err}
	default:
		err = classifyRemote(ctx, "DeleteBucket", bucket, err)
		if provisioning.Kind(err) != provisioning.KindCancelled {
			err = &provisioning.DeleteError{Bucket: bucket, Err: err}
		}
	}
	provisioning.LogResourceFailed(m.observer, phase, "bucket", bucket, err)
	return err
}
