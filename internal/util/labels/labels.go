package labels

import (
	"maps"
	"unicode/utf8"
)

// Standard tag keys for compute resources.
const (
	// KeyName is the provider's display-name tag. It is always present.
	KeyName = "Name"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "stratus.io/managed-by"

	// KeyWebServer records the web server package installed at boot.
	KeyWebServer = "stratus.io/web-server"

	// KeySourceRepo records the repository served by the instance.
	KeySourceRepo = "stratus.io/source-repo"
)

// ManagedByStratus is the KeyManagedBy value set on every resource.
const ManagedByStratus = "stratus"

// maxTagValue is the provider's limit on tag value length, in characters.
const maxTagValue = 256

// TagBuilder provides a fluent interface for building instance tags.
type TagBuilder struct {
	tags map[string]string
}

// NewTagBuilder creates a builder with the Name tag pre-set. An empty name is
// kept as an empty Name tag.
func NewTagBuilder(name string) *TagBuilder {
	return &TagBuilder{
		tags: map[string]string{
			KeyName:      name,
			KeyManagedBy: ManagedByStratus,
		},
	}
}

// WithWebServer records the web server package.
func (tb *TagBuilder) WithWebServer(pkg string) *TagBuilder {
	if pkg != "" {
		tb.tags[KeyWebServer] = pkg
	}
	return tb
}

// WithSourceRepo records the served repository, truncated to the tag limit.
func (tb *TagBuilder) WithSourceRepo(url string) *TagBuilder {
	if url == "" {
		return tb
	}
	tb.tags[KeySourceRepo] = truncate(url)
	return tb
}

// Merge adds all tags from extra. Name and managed-by cannot be overridden.
func (tb *TagBuilder) Merge(extra map[string]string) *TagBuilder {
	for k, v := range extra {
		if k == KeyName || k == KeyManagedBy {
			continue
		}
		tb.tags[k] = truncate(v)
	}
	return tb
}

// truncate cuts v to maxTagValue characters without splitting a rune.
func truncate(v string) string {
	if utf8.RuneCountInString(v) <= maxTagValue {
		return v
	}
	n := 0
	for i := range v {
		if n == maxTagValue {
			return v[:i]
		}
		n++
	}
	return v
}

// Build returns a copy of the tags.
func (tb *TagBuilder) Build() map[string]string {
	return maps.Clone(tb.tags)
}

// IsManaged reports whether tags mark a resource created by stratus.
func IsManaged(tags map[string]string) bool {
	return tags[KeyManagedBy] == ManagedByStratus
}
