package testing

import (
	"context"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/stratus/internal/platform/s3"
)

// Owner identities used by ObjectStore.
const (
	OwnerSelf  = "self"
	OwnerOther = "other"
)

type storeBucket struct {
	owner     string
	versioned bool
	// entries holds versions and delete markers (VersionID set) or plain
	// objects (VersionID empty) in listing order.
	entries []s3.ObjectRef
	data    map[string][]byte
}

// ObjectStore is an in-memory object store served through s3.MockAPI.
// Configure it before handing API() to a client; the recorded fields are
// safe to read once the operation under test has returned.
type ObjectStore struct {
	mu      sync.Mutex
	buckets map[string]*storeBucket

	PageSize int
	// VersionListErr makes ListObjectVersions fail with this code.
	VersionListErr string
	// Refuse lists keys whose deletion is reported as a per-object error.
	Refuse map[string]bool
	// Stuck makes DeleteBucket report BucketNotEmpty regardless of contents.
	Stuck bool
	// FailCodes makes the named call fail with the given codes, one per call.
	// An empty code lets that call through.
	FailCodes map[string][]string

	Calls       map[string]int
	Locations   []string
	BatchSizes  []int
	CreateNames []string
}

// NewObjectStore returns an empty store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		buckets:   make(map[string]*storeBucket),
		PageSize:  1000,
		Refuse:    make(map[string]bool),
		FailCodes: make(map[string][]string),
		Calls:     make(map[string]int),
	}
}

// APIError returns a provider error carrying code.
func APIError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code + " (fake)"}
}

// injected pops the next injected failure for call, if any.
func (f *ObjectStore) injected(call string) error {
	f.Calls[call]++
	codes := f.FailCodes[call]
	if len(codes) == 0 {
		return nil
	}
	f.FailCodes[call] = codes[1:]
	if codes[0] == "" {
		return nil
	}
	return APIError(codes[0])
}

// AddBucket registers a bucket owned by bucketOwner.
func (f *ObjectStore) AddBucket(name, bucketOwner string, versioned bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addBucket(name, bucketOwner, versioned)
}

func (f *ObjectStore) addBucket(name, bucketOwner string, versioned bool) {
	f.buckets[name] = &storeBucket{owner: bucketOwner, versioned: versioned, data: make(map[string][]byte)}
}

// AddObjects stores one plain object per key.
func (f *ObjectStore) AddObjects(bucket string, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.buckets[bucket]
	for _, k := range keys {
		b.entries = append(b.entries, s3.ObjectRef{Key: k})
		b.data[k] = nil
	}
}

// AddVersions stores n versions of key.
func (f *ObjectStore) AddVersions(bucket, key string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.buckets[bucket]
	for i := range n {
		b.entries = append(b.entries, s3.ObjectRef{Key: key, VersionID: "v" + strconv.Itoa(i+1)})
	}
}

// Count returns the number of entries left in bucket, or -1 if it does not exist.
func (f *ObjectStore) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[name]
	if !ok {
		return -1
	}
	return len(b.entries)
}

// Exists reports whether bucket exists.
func (f *ObjectStore) Exists(name string) bool {
	return f.Count(name) >= 0
}

// Object returns the stored bytes of key.
func (f *ObjectStore) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[bucket]
	if !ok {
		return nil, false
	}
	data, ok := b.data[key]
	return data, ok
}

// API returns a MockAPI backed by the store.
func (f *ObjectStore) API() *s3.MockAPI {
	return &s3.MockAPI{
		CreateBucketFunc: func(_ context.Context, in *awss3.CreateBucketInput) (*awss3.CreateBucketOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("CreateBucket"); err != nil {
				return nil, err
			}
			loc := ""
			if in.CreateBucketConfiguration != nil {
				loc = string(in.CreateBucketConfiguration.LocationConstraint)
			}
			name := aws.ToString(in.Bucket)
			f.Locations = append(f.Locations, loc)
			f.CreateNames = append(f.CreateNames, name)

			if b, ok := f.buckets[name]; ok {
				if b.owner == OwnerSelf {
					return nil, APIError(s3.CodeBucketAlreadyOwnedByYou)
				}
				return nil, APIError(s3.CodeBucketAlreadyExists)
			}
			f.addBucket(name, OwnerSelf, false)
			return &awss3.CreateBucketOutput{}, nil
		},
		HeadBucketFunc: func(_ context.Context, in *awss3.HeadBucketInput) (*awss3.HeadBucketOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.buckets[aws.ToString(in.Bucket)]; !ok {
				return nil, APIError(s3.CodeNotFound)
			}
			return &awss3.HeadBucketOutput{}, nil
		},
		GetBucketVersioningFunc: func(_ context.Context, in *awss3.GetBucketVersioningInput) (*awss3.GetBucketVersioningOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			b, ok := f.buckets[aws.ToString(in.Bucket)]
			if !ok {
				return nil, APIError(s3.CodeNoSuchBucket)
			}
			out := &awss3.GetBucketVersioningOutput{}
			if b.versioned {
				out.Status = types.BucketVersioningStatusEnabled
			}
			return out, nil
		},
		ListBucketsFunc: func(context.Context, *awss3.ListBucketsInput) (*awss3.ListBucketsOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			names := make([]string, 0, len(f.buckets))
			for name := range f.buckets {
				names = append(names, name)
			}
			sort.Strings(names)
			out := &awss3.ListBucketsOutput{}
			for _, name := range names {
				out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name), CreationDate: aws.Time(time.Unix(0, 0))})
			}
			return out, nil
		},
		PutObjectFunc: func(_ context.Context, in *awss3.PutObjectInput) (*awss3.PutObjectOutput, error) {
			data, err := io.ReadAll(in.Body)
			if err != nil {
				return nil, err
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("PutObject"); err != nil {
				return nil, err
			}
			b, ok := f.buckets[aws.ToString(in.Bucket)]
			if !ok {
				return nil, APIError(s3.CodeNoSuchBucket)
			}
			key := aws.ToString(in.Key)
			if _, exists := b.data[key]; !exists {
				b.entries = append(b.entries, s3.ObjectRef{Key: key})
			}
			b.data[key] = data
			return &awss3.PutObjectOutput{}, nil
		},
		ListObjectVersionsFunc: func(_ context.Context, in *awss3.ListObjectVersionsInput) (*awss3.ListObjectVersionsOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("ListObjectVersions"); err != nil {
				return nil, err
			}
			b, ok := f.buckets[aws.ToString(in.Bucket)]
			if !ok {
				return nil, APIError(s3.CodeNoSuchBucket)
			}
			if f.VersionListErr != "" {
				return nil, APIError(f.VersionListErr)
			}
			var after *s3.ObjectRef
			if in.KeyMarker != nil {
				after = &s3.ObjectRef{Key: aws.ToString(in.KeyMarker), VersionID: aws.ToString(in.VersionIdMarker)}
				if after.VersionID == "null" {
					after.VersionID = ""
				}
			}
			page, truncated := f.page(b.entries, after)

			out := &awss3.ListObjectVersionsOutput{IsTruncated: aws.Bool(truncated)}
			if truncated {
				last := page[len(page)-1]
				out.NextKeyMarker = aws.String(last.Key)
				out.NextVersionIdMarker = aws.String(versionOrNull(last.VersionID))
			}
			for _, e := range page {
				out.Versions = append(out.Versions, types.ObjectVersion{Key: aws.String(e.Key), VersionId: aws.String(versionOrNull(e.VersionID))})
			}
			return out, nil
		},
		ListObjectsV2Func: func(_ context.Context, in *awss3.ListObjectsV2Input) (*awss3.ListObjectsV2Output, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("ListObjectsV2"); err != nil {
				return nil, err
			}
			b, ok := f.buckets[aws.ToString(in.Bucket)]
			if !ok {
				return nil, APIError(s3.CodeNoSuchBucket)
			}
			var current []s3.ObjectRef
			for _, e := range b.entries {
				if !slices.ContainsFunc(current, func(r s3.ObjectRef) bool { return r.Key == e.Key }) {
					current = append(current, s3.ObjectRef{Key: e.Key})
				}
			}
			var after *s3.ObjectRef
			if in.ContinuationToken != nil {
				after = &s3.ObjectRef{Key: aws.ToString(in.ContinuationToken)}
			}
			page, truncated := f.page(current, after)

			out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(truncated)}
			if truncated {
				out.NextContinuationToken = aws.String(page[len(page)-1].Key)
			}
			for _, e := range page {
				out.Contents = append(out.Contents, types.Object{Key: aws.String(e.Key)})
			}
			return out, nil
		},
		DeleteObjectsFunc: func(_ context.Context, in *awss3.DeleteObjectsInput) (*awss3.DeleteObjectsOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("DeleteObjects"); err != nil {
				return nil, err
			}
			b, ok := f.buckets[aws.ToString(in.Bucket)]
			if !ok {
				return nil, APIError(s3.CodeNoSuchBucket)
			}
			f.BatchSizes = append(f.BatchSizes, len(in.Delete.Objects))

			out := &awss3.DeleteObjectsOutput{}
			for _, id := range in.Delete.Objects {
				key, version := aws.ToString(id.Key), aws.ToString(id.VersionId)
				if f.Refuse[key] {
					out.Errors = append(out.Errors, types.Error{Key: id.Key, VersionId: id.VersionId, Code: aws.String("AccessDenied"), Message: aws.String("Access Denied")})
					continue
				}
				if b.remove(key, version) {
					out.Deleted = append(out.Deleted, types.DeletedObject{Key: id.Key, VersionId: id.VersionId})
				}
			}
			return out, nil
		},
		DeleteBucketFunc: func(_ context.Context, in *awss3.DeleteBucketInput) (*awss3.DeleteBucketOutput, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.injected("DeleteBucket"); err != nil {
				return nil, err
			}
			name := aws.ToString(in.Bucket)
			b, ok := f.buckets[name]
			if !ok {
				return nil, APIError(s3.CodeNoSuchBucket)
			}
			if f.Stuck || len(b.entries) > 0 {
				return nil, APIError(s3.CodeBucketNotEmpty)
			}
			delete(f.buckets, name)
			return &awss3.DeleteBucketOutput{}, nil
		},
	}
}

// page returns up to PageSize entries ordered by key then version, starting
// after the marker, and whether more remain.
func (f *ObjectStore) page(entries []s3.ObjectRef, after *s3.ObjectRef) ([]s3.ObjectRef, bool) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, compareRefs)

	start := 0
	if after != nil {
		start = len(sorted)
		for i, e := range sorted {
			if compareRefs(e, *after) > 0 {
				start = i
				break
			}
		}
	}
	end := min(start+f.PageSize, len(sorted))
	return sorted[start:end], end < len(sorted)
}

func compareRefs(a, b s3.ObjectRef) int {
	if c := strings.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	return strings.Compare(a.VersionID, b.VersionID)
}

// versionOrNull renders the version of an unversioned object the way the service does.
func versionOrNull(v string) string {
	if v == "" {
		return "null"
	}
	return v
}

func (b *storeBucket) remove(key, version string) bool {
	for i, e := range b.entries {
		if e.Key != key {
			continue
		}
		if version != "" && version != "null" && e.VersionID != version {
			continue
		}
		b.entries = append(b.entries[:i], b.entries[i+1:]...)
		if !slices.ContainsFunc(b.entries, func(r s3.ObjectRef) bool { return r.Key == key }) {
			delete(b.data, key)
		}
		return true
	}
	return false
}
