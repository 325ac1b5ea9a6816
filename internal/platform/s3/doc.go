// Package s3 wraps the object storage API used by the bucket lifecycle manager.
//
// The wrapper flattens SDK pagination and output types into small value types
// ([ObjectRef], [VersionPage], [BucketInfo]) and exposes error classifiers that
// check typed SDK errors first and fall back to the API error code for
// S3-compatible stores that return generic errors.
package s3
