package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/imamik/stratus/internal/platform/s3"
	"github.com/imamik/stratus/internal/provisioning"
)

// Upload stores content in bucket under the sanitized key and, when a cache
// directory is configured, writes the same bytes to {cacheDir}/{key}.
//
// Both writes are always attempted. A remote failure takes precedence over a
// cache failure; a cache-only failure is reported with CacheOnly set.
func (m *Manager) Upload(ctx context.Context, bucket, key string, content io.Reader) (err error) {
	start := time.Now()
	defer func() { provisioning.RecordOperation(opUpload, start, err) }()

	if bucket == "" {
		return &provisioning.ValidationError{Field: "bucket", Value: bucket, Reason: "name is required"}
	}
	clean, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	if content == nil {
		return &provisioning.ValidationError{Field: "content", Value: clean, Reason: "content is required"}
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return &provisioning.UploadError{Bucket: bucket, Key: clean, Err: fmt.Errorf("failed to read content: %w", err)}
	}

	remoteErr := provisioning.CallThrottled(ctx, m.observer, phase, opUpload, m.throttleDelay, s3.IsThrottled, func() error {
		return m.client.PutObject(ctx, bucket, clean, data)
	})
	cacheErr := m.writeCache(clean, data)

	switch {
	case remoteErr != nil:
		err = classifyRemote(ctx, "PutObject", bucket, remoteErr)
		if cacheErr != nil {
			err = fmt.Errorf("%w (cache write also failed: %v)", err, cacheErr)
		}
		err = &provisioning.UploadError{Bucket: bucket, Key: clean, Err: err}
		provisioning.LogResourceFailed(m.observer, phase, "object", bucket+"/"+clean, err)
		return err
	case cacheErr != nil:
		err = &provisioning.UploadError{Bucket: bucket, Key: clean, CacheOnly: true, Err: cacheErr}
		provisioning.LogResourceFailed(m.observer, phase, "object", bucket+"/"+clean, err)
		return err
	}

	provisioning.LogResourceCreated(m.observer, phase, "object", bucket+"/"+clean, clean)
	return nil
}

func (m *Manager) writeCache(key string, data []byte) error {
	if m.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(m.cacheDir, 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	path := filepath.Join(m.cacheDir, key)
	// #nosec G306
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", path, err)
	}
	return nil
}

// SanitizeKey removes path separators and control characters from key.
// Keys that are empty, ".", or ".." after sanitizing are rejected.
func SanitizeKey(key string) (string, error) {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if r == '/' || r == '\\' || unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		b.WriteRune(r)
	}

	clean := strings.TrimSpace(b.String())
	if clean == "" || clean == "." || clean == ".." {
		return "", &provisioning.ValidationError{Field: "key", Value: key, Reason: "empty after removing separators and control characters"}
	}
	return clean, nil
}

// classifyRemote maps a storage failure for bucket to the taxonomy.
func classifyRemote(ctx context.Context, operation, bucket string, err error) error {
	switch provisioning.Kind(err) {
	case provisioning.KindTransient, provisioning.KindCancelled:
		return err
	}
	if s3.IsNotFound(err) {
		return &provisioning.NotFoundError{Resource: "bucket", Name: bucket, Err: err}
	}
	return provisioning.Cancelled(ctx, operation, provisioning.NewRemoteError(operation, err))
}
