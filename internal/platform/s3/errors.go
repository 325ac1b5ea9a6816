package s3

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Error codes returned by S3 and S3-compatible stores.
const (
	CodeBucketAlreadyOwnedByYou = "BucketAlreadyOwnedByYou"
	CodeBucketAlreadyExists     = "BucketAlreadyExists"
	CodeInvalidBucketName       = "InvalidBucketName"
	CodeBucketNotEmpty          = "BucketNotEmpty"
	CodeNoSuchBucket            = "NoSuchBucket"
	CodeNotFound                = "NotFound"
	CodeSlowDown                = "SlowDown"
	CodeThrottling              = "Throttling"
	CodeRequestLimitExceeded    = "RequestLimitExceeded"
	CodeNotImplemented          = "NotImplemented"
	CodeMethodNotAllowed        = "MethodNotAllowed"
)

// ErrorCode returns the API error code and message of err, or empty strings
// when err carries no API error.
func ErrorCode(err error) (code, message string) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode(), apiErr.ErrorMessage()
	}
	return "", ""
}

// IsBucketAlreadyOwnedByYou reports whether the bucket exists and belongs to the caller.
func IsBucketAlreadyOwnedByYou(err error) bool {
	if err == nil {
		return false
	}

	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return true
	}

	code, _ := ErrorCode(err)
	return code == CodeBucketAlreadyOwnedByYou
}

// IsNameUnavailable reports whether a create failed because the name is taken
// by someone else or rejected by the provider.
func IsNameUnavailable(err error) bool {
	if err == nil {
		return false
	}

	var exists *types.BucketAlreadyExists
	if errors.As(err, &exists) {
		return true
	}

	code, _ := ErrorCode(err)
	return code == CodeBucketAlreadyExists || code == CodeInvalidBucketName
}

// IsNotFound reports whether the bucket does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// HeadBucket has no body, so some stores only report the status.
	code, _ := ErrorCode(err)
	return code == CodeNoSuchBucket || code == CodeNotFound || code == "404"
}

// IsBucketNotEmpty reports whether a bucket delete was refused because objects remain.
func IsBucketNotEmpty(err error) bool {
	code, _ := ErrorCode(err)
	return code == CodeBucketNotEmpty
}

// IsThrottled reports whether the request was rejected by rate limiting.
func IsThrottled(err error) bool {
	code, _ := ErrorCode(err)
	switch code {
	case CodeSlowDown, CodeThrottling, CodeRequestLimitExceeded, "TooManyRequests":
		return true
	}
	return false
}

// IsUnsupported reports whether the store does not implement the called API,
// as S3-compatible stores without object versioning answer version listings.
func IsUnsupported(err error) bool {
	code, _ := ErrorCode(err)
	switch code {
	case CodeNotImplemented, CodeMethodNotAllowed, "XNotImplemented", "501", "405":
		return true
	}
	return false
}
