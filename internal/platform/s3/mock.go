package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockAPI is a function-field implementation of API for tests.
// Calling a method whose Func is nil returns an error.
type MockAPI struct {
	CreateBucketFunc        func(ctx context.Context, in *s3.CreateBucketInput) (*s3.CreateBucketOutput, error)
	HeadBucketFunc          func(ctx context.Context, in *s3.HeadBucketInput) (*s3.HeadBucketOutput, error)
	GetBucketVersioningFunc func(ctx context.Context, in *s3.GetBucketVersioningInput) (*s3.GetBucketVersioningOutput, error)
	ListBucketsFunc         func(ctx context.Context, in *s3.ListBucketsInput) (*s3.ListBucketsOutput, error)
	PutObjectFunc           func(ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	ListObjectVersionsFunc  func(ctx context.Context, in *s3.ListObjectVersionsInput) (*s3.ListObjectVersionsOutput, error)
	ListObjectsV2Func       func(ctx context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	DeleteObjectsFunc       func(ctx context.Context, in *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error)
	DeleteBucketFunc        func(ctx context.Context, in *s3.DeleteBucketInput) (*s3.DeleteBucketOutput, error)
}

var _ API = (*MockAPI)(nil)

func notConfigured(method string) error {
	return fmt.Errorf("MockAPI.%s not configured", method)
}

func (m *MockAPI) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if m.CreateBucketFunc == nil {
		return nil, notConfigured("CreateBucket")
	}
	return m.CreateBucketFunc(ctx, in)
}

func (m *MockAPI) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.HeadBucketFunc == nil {
		return nil, notConfigured("HeadBucket")
	}
	return m.HeadBucketFunc(ctx, in)
}

func (m *MockAPI) GetBucketVersioning(ctx context.Context, in *s3.GetBucketVersioningInput, _ ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	if m.GetBucketVersioningFunc == nil {
		return nil, notConfigured("GetBucketVersioning")
	}
	return m.GetBucketVersioningFunc(ctx, in)
}

func (m *MockAPI) ListBuckets(ctx context.Context, in *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	if m.ListBucketsFunc == nil {
		return nil, notConfigured("ListBuckets")
	}
	return m.ListBucketsFunc(ctx, in)
}

func (m *MockAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc == nil {
		return nil, notConfigured("PutObject")
	}
	return m.PutObjectFunc(ctx, in)
}

func (m *MockAPI) ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	if m.ListObjectVersionsFunc == nil {
		return nil, notConfigured("ListObjectVersions")
	}
	return m.ListObjectVersionsFunc(ctx, in)
}

func (m *MockAPI) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func == nil {
		return nil, notConfigured("ListObjectsV2")
	}
	return m.ListObjectsV2Func(ctx, in)
}

func (m *MockAPI) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	if m.DeleteObjectsFunc == nil {
		return nil, notConfigured("DeleteObjects")
	}
	return m.DeleteObjectsFunc(ctx, in)
}

func (m *MockAPI) DeleteBucket(ctx context.Context, in *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	if m.DeleteBucketFunc == nil {
		return nil, notConfigured("DeleteBucket")
	}
	return m.DeleteBucketFunc(ctx, in)
}
