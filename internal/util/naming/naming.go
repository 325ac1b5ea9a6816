package naming

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SuffixLength is the length of random suffixes appended to colliding names.
const SuffixLength = 6

// MaxBucketNameLength is the provider limit for bucket names.
const MaxBucketNameLength = 63

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	instancePrefix = "stratus"
	mirrorPrefix   = "repo-"
)

var (
	bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)
	mirrorIDPattern   = regexp.MustCompile(`^repo-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// RandomSuffix returns n characters drawn uniformly from [a-z0-9].
func RandomSuffix(n int) string {
	max := big.NewInt(int64(len(suffixAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for range n {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(fmt.Sprintf("naming: reading random source: %v", err))
		}
		b.WriteByte(suffixAlphabet[idx.Int64()])
	}
	return b.String()
}

// BucketWithSuffix derives {base}-{suffix}, truncating base so the result never
// exceeds MaxBucketNameLength.
func BucketWithSuffix(base, suffix string) string {
	limit := MaxBucketNameLength - len(suffix) - 1
	if len(base) > limit {
		base = base[:limit]
	}
	base = strings.TrimRight(base, "-")
	return fmt.Sprintf("%s-%s", base, suffix)
}

// ValidBucketName reports whether name satisfies the provider's naming rules:
// 3-63 characters of lowercase letters, digits and hyphens, starting and ending
// with a letter or digit.
func ValidBucketName(name string) bool {
	return bucketNamePattern.MatchString(name)
}

// Instance returns the default Name tag for a launched instance.
func Instance(suffix string) string {
	return fmt.Sprintf("%s-%s", instancePrefix, suffix)
}

// NewMirrorID returns a fresh repository mirror identifier.
func NewMirrorID() string {
	return mirrorPrefix + uuid.NewString()
}

// ValidMirrorID reports whether id has the shape produced by NewMirrorID.
// Ids are used as directory names, so anything else is rejected before it
// reaches the filesystem.
func ValidMirrorID(id string) bool {
	return mirrorIDPattern.MatchString(id)
}
