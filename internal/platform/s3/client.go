package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MaxDeleteBatch is the largest number of objects accepted by one delete call.
const MaxDeleteBatch = 1000

// ObjectRef identifies one object, or one version of it when VersionID is set.
type ObjectRef struct {
	Key       string
	VersionID string
}

// ObjectFailure is a per-object error reported by a batch delete.
type ObjectFailure struct {
	ObjectRef
	Code    string
	Message string
}

// VersionPage is one page of a versioned listing. Objects holds versions and
// delete markers in listing order.
type VersionPage struct {
	Objects           []ObjectRef
	NextKeyMarker     string
	NextVersionMarker string
	Truncated         bool
}

// BucketInfo describes a bucket returned by ListBuckets.
type BucketInfo struct {
	Name      string
	Region    string
	CreatedAt time.Time
}

// Client wraps the S3 API for one region.
type Client struct {
	s3     API
	region string
}

// NewClient creates a Client over api. region is used for location
// constraints and as the fallback region of listed buckets.
func NewClient(api API, region string) *Client {
	return &Client{s3: api, region: region}
}

// Region returns the client's region.
func (c *Client) Region() string {
	return c.region
}

// CreateBucket creates a bucket. When withLocation is set the request carries
// the client's region as location constraint. Errors are returned unclassified.
func (c *Client) CreateBucket(ctx context.Context, bucketName string, withLocation bool) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}
	if withLocation {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	if _, err := c.s3.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}
	return nil
}

// HeadBucket checks that a bucket exists and is accessible.
func (c *Client) HeadBucket(ctx context.Context, bucketName string) error {
	if _, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)}); err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	return nil
}

// VersioningEnabled reports whether versioning is enabled on a bucket.
// Suspended and never-configured buckets report false.
func (c *Client) VersioningEnabled(ctx context.Context, bucketName string) (bool, error) {
	out, err := c.s3.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(bucketName)})
	if err != nil {
		return false, fmt.Errorf("failed to get versioning of bucket %s: %w", bucketName, err)
	}
	return out.Status == types.BucketVersioningStatusEnabled, nil
}

// ListBuckets returns every bucket visible to the credentials.
func (c *Client) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	var (
		buckets []BucketInfo
		token   *string
	)
	for {
		out, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("failed to list buckets: %w", err)
		}
		for _, b := range out.Buckets {
			info := BucketInfo{
				Name:      aws.ToString(b.Name),
				Region:    aws.ToString(b.BucketRegion),
				CreatedAt: aws.ToTime(b.CreationDate),
			}
			if info.Region == "" {
				info.Region = c.region
			}
			buckets = append(buckets, info)
		}
		if aws.ToString(out.ContinuationToken) == "" {
			return buckets, nil
		}
		token = out.ContinuationToken
	}
}

// PutObject uploads an object to a bucket.
func (c *Client) PutObject(ctx context.Context, bucketName, key string, data []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, bucketName, err)
	}
	return nil
}

// ListVersions returns one page of object versions and delete markers.
// Empty markers start from the beginning.
func (c *Client) ListVersions(ctx context.Context, bucketName, keyMarker, versionMarker string) (VersionPage, error) {
	input := &s3.ListObjectVersionsInput{Bucket: aws.String(bucketName)}
	if keyMarker != "" {
		input.KeyMarker = aws.String(keyMarker)
	}
	if versionMarker != "" {
		input.VersionIdMarker = aws.String(versionMarker)
	}

	out, err := c.s3.ListObjectVersions(ctx, input)
	if err != nil {
		return VersionPage{}, fmt.Errorf("failed to list object versions in bucket %s: %w", bucketName, err)
	}

	page := VersionPage{
		Objects:           make([]ObjectRef, 0, len(out.Versions)+len(out.DeleteMarkers)),
		NextKeyMarker:     aws.ToString(out.NextKeyMarker),
		NextVersionMarker: aws.ToString(out.NextVersionIdMarker),
		Truncated:         aws.ToBool(out.IsTruncated),
	}
	for _, v := range out.Versions {
		page.Objects = append(page.Objects, ObjectRef{Key: aws.ToString(v.Key), VersionID: aws.ToString(v.VersionId)})
	}
	for _, m := range out.DeleteMarkers {
		page.Objects = append(page.Objects, ObjectRef{Key: aws.ToString(m.Key), VersionID: aws.ToString(m.VersionId)})
	}
	return page, nil
}

// WalkObjects lists current object keys page by page and calls fn for each
// non-empty page. An error from fn stops the walk and is returned as-is.
func (c *Client) WalkObjects(ctx context.Context, bucketName string, fn func([]ObjectRef) error) error {
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects in bucket %s: %w", bucketName, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		refs := make([]ObjectRef, 0, len(page.Contents))
		for _, obj := range page.Contents {
			refs = append(refs, ObjectRef{Key: aws.ToString(obj.Key)})
		}
		if err := fn(refs); err != nil {
			return err
		}
	}
	return nil
}

// DeleteObjects removes up to MaxDeleteBatch objects in one call. It returns
// the number of deleted objects and any per-object failures. err is set only
// when the call itself failed.
func (c *Client) DeleteObjects(ctx context.Context, bucketName string, refs []ObjectRef) (int, []ObjectFailure, error) {
	if len(refs) == 0 {
		return 0, nil, nil
	}
	if len(refs) > MaxDeleteBatch {
		return 0, nil, fmt.Errorf("delete batch of %d exceeds limit of %d", len(refs), MaxDeleteBatch)
	}

	ids := make([]types.ObjectIdentifier, 0, len(refs))
	for _, ref := range refs {
		id := types.ObjectIdentifier{Key: aws.String(ref.Key)}
		if ref.VersionID != "" {
			id.VersionId = aws.String(ref.VersionID)
		}
		ids = append(ids, id)
	}

	out, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucketName),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(false)},
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to delete objects in bucket %s: %w", bucketName, err)
	}

	var failures []ObjectFailure
	for _, e := range out.Errors {
		failures = append(failures, ObjectFailure{
			ObjectRef: ObjectRef{Key: aws.ToString(e.Key), VersionID: aws.ToString(e.VersionId)},
			Code:      aws.ToString(e.Code),
			Message:   aws.ToString(e.Message),
		})
	}
	return len(out.Deleted), failures, nil
}

// DeleteBucket deletes a bucket. The bucket must be empty.
func (c *Client) DeleteBucket(ctx context.Context, bucketName string) error {
	if _, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)}); err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucketName, err)
	}
	return nil
}
