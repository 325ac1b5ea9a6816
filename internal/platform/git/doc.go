// Package git performs shallow repository clones with go-git.
package git
