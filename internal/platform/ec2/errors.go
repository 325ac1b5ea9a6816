package ec2

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Error codes returned by the compute API.
const (
	CodeRequestLimitExceeded = "RequestLimitExceeded"
	CodeThrottling           = "Throttling"
	CodeDuplicatePermission  = "InvalidPermission.Duplicate"
	CodeDuplicateGroup       = "InvalidGroup.Duplicate"
	CodeGroupNotFound        = "InvalidGroup.NotFound"
	CodeInstanceNotFound     = "InvalidInstanceID.NotFound"
	CodeKeyPairNotFound      = "InvalidKeyPair.NotFound"
	CodeKeyPairDuplicate     = "InvalidKeyPair.Duplicate"
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

// hasErrorCode checks if the error is an API error with one of the given codes.
func hasErrorCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	code, _ := ErrorCode(err)
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsThrottled checks if an error indicates rate limiting.
func IsThrottled(err error) bool {
	return hasErrorCode(err, CodeRequestLimitExceeded, CodeThrottling, "ThrottlingException")
}

// IsDuplicatePermission checks if an ingress rule already exists.
func IsDuplicatePermission(err error) bool {
	return hasErrorCode(err, CodeDuplicatePermission)
}

// IsDuplicateGroup checks if a security group with the same name already exists.
func IsDuplicateGroup(err error) bool {
	return hasErrorCode(err, CodeDuplicateGroup)
}

// IsInstanceNotFound checks if an instance id is unknown. Right after launch
// this is eventual consistency, not absence.
func IsInstanceNotFound(err error) bool {
	return hasErrorCode(err, CodeInstanceNotFound)
}

// IsKeyPairNotFound checks if a key pair name is unknown.
func IsKeyPairNotFound(err error) bool {
	return hasErrorCode(err, CodeKeyPairNotFound)
}

// IsKeyPairDuplicate checks if a key pair name is already registered.
func IsKeyPairDuplicate(err error) bool {
	return hasErrorCode(err, CodeKeyPairDuplicate)
}
