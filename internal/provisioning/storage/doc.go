// Package storage manages the lifecycle of object storage buckets.
//
// Create resolves name collisions with a single suffixed retry, Upload writes
// to the bucket and an optional local cache, and Delete drains every object
// version before removing the bucket. Versioned and unversioned buckets are
// drained the same way: the versioned listing is tried first and plain key
// listing is the explicit fallback.
package storage
