package storage

import (
	"context"
	"time"

	"github.com/imamik/stratus/internal/provisioning"
)

// List returns every bucket visible to the caller. Versioning is not probed.
func (m *Manager) List(ctx context.Context) (records []BucketRecord, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opList, start, err) }()

	buckets, err := m.client.ListBuckets(ctx)
	if err != nil {
		return nil, classifyRemote(ctx, "ListBuckets", "", err)
	}

	records = make([]BucketRecord, 0, len(buckets))
	for _, b := range buckets {
		records = append(records, BucketRecord{Name: b.Name, Region: b.Region, CreatedAt: b.CreatedAt})
	}
	return records, nil
}

// Inspect returns the record of one bucket, including its versioning state.
func (m *Manager) Inspect(ctx context.Context, bucket string) (record BucketRecord, err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opInspect, start, err) }()

	if bucket == "" {
		return BucketRecord{}, &provisioning.ValidationError{Field: "bucket", Value: bucket, Reason: "name is required"}
	}

	if err := m.client.HeadBucket(ctx, bucket); err != nil {
		return BucketRecord{}, classifyRemote(ctx, "HeadBucket", bucket, err)
	}
	enabled, err := m.client.VersioningEnabled(ctx, bucket)
	if err != nil {
		return BucketRecord{}, classifyRemote(ctx, "GetBucketVersioning", bucket, err)
	}
	return BucketRecord{Name: bucket, Region: m.client.Region(), VersioningEnabled: enabled}, nil
}
