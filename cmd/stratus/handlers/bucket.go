package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/imamik/stratus/internal/provisioning"
	"github.com/imamik/stratus/internal/provisioning/storage"
)

// BucketManager is the storage surface used by the bucket commands.
type BucketManager interface {
	Create(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, bucket, key string, content io.Reader) error
	Drain(ctx context.Context, bucket string) (int, error)
	Delete(ctx context.Context, bucket string) error
	List(ctx context.Context) ([]storage.BucketRecord, error)
	Inspect(ctx context.Context, name string) (storage.BucketRecord, error)
}

func bucketManager(ctx context.Context, configPath string) (BucketManager, error) {
	cfg, f, obs, err := cloudSession(ctx, configPath)
	if err != nil {
		return nil, err
	}
	return newBucketManager(f, cfg, obs), nil
}

// BucketCreate creates a bucket. The bound name differs from the requested
// one when the requested name was taken.
func BucketCreate(ctx context.Context, configPath, name string) error {
	m, err := bucketManager(ctx, configPath)
	if err != nil {
		return err
	}

	bound, err := m.Create(ctx, name)
	if err != nil {
		return err
	}
	if bound != name {
		fmt.Fprintf(stdout, "Bucket name %s is taken; created %s\n", name, successStyle.Render(bound))
		return nil
	}
	fmt.Fprintf(stdout, "Bucket %s is ready\n", successStyle.Render(bound))
	return nil
}

// BucketUpload uploads a local file. An empty key uses the file name.
func BucketUpload(ctx context.Context, configPath, bucket, path, key string) error {
	m, err := bucketManager(ctx, configPath)
	if err != nil {
		return err
	}

	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if key == "" {
		key = filepath.Base(path)
	}

	err = m.Upload(ctx, bucket, key, f)
	var uploadErr *provisioning.UploadError
	if errors.As(err, &uploadErr) && uploadErr.CacheOnly {
		fmt.Fprintf(stdout, "Uploaded %s to %s (local cache not written: %v)\n", uploadErr.Key, bucket, uploadErr.Err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Uploaded %s to %s\n", key, successStyle.Render(bucket))
	return nil
}

// BucketDrain removes every object and object version from a bucket.
func BucketDrain(ctx context.Context, configPath, bucket string) error {
	m, err := bucketManager(ctx, configPath)
	if err != nil {
		return err
	}

	removed, err := m.Drain(ctx, bucket)
	if err != nil {
		var partial *provisioning.PartialFailureError
		if errors.As(err, &partial) {
			for _, f := range partial.Failed {
				fmt.Fprintf(stderr, "  %s %s: %s\n", f.Key, f.VersionID, f.Message)
			}
		}
		return err
	}
	fmt.Fprintf(stdout, "Removed %d objects from %s\n", removed, bucket)
	return nil
}

// BucketDelete drains and deletes a bucket.
func BucketDelete(ctx context.Context, configPath, bucket string) error {
	m, err := bucketManager(ctx, configPath)
	if err != nil {
		return err
	}
	if err := m.Delete(ctx, bucket); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Bucket %s deleted\n", bucket)
	return nil
}

// BucketList lists the account's buckets.
func BucketList(ctx context.Context, configPath string, jsonOutput bool) error {
	m, err := bucketManager(ctx, configPath)
	if err != nil {
		return err
	}

	buckets, err := m.List(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(buckets)
	}
	if len(buckets) == 0 {
		fmt.Fprintln(stdout, dimStyle.Render("No buckets"))
		return nil
	}

	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		created := ""
		if !b.CreatedAt.IsZero() {
			created = b.CreatedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{b.Name, b.Region, created})
	}
	fmt.Fprintln(stdout, renderTable([]string{"NAME", "REGION", "CREATED"}, rows))
	return nil
}

// BucketInspect shows one bucket including its versioning state.
func BucketInspect(ctx context.Context, configPath, name string, jsonOutput bool) error {
	m, err := bucketManager(ctx, configPath)
	if err != nil {
		return err
	}

	b, err := m.Inspect(ctx, name)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(b)
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"NAME", "REGION", "VERSIONING"},
		[][]string{{b.Name, b.Region, yesNo(b.VersioningEnabled)}},
	))
	return nil
}
