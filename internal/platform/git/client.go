package git

import (
	"context"
	"errors"
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// DefaultDepth is the history depth of a shallow clone.
const DefaultDepth = 1

// CloneResult describes the checked-out revision.
type CloneResult struct {
	Commit string
	Branch string
}

// Cloner clones a repository into an existing empty directory.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) (CloneResult, error)
}

// Client clones over any transport go-git supports (https, ssh, git, file).
type Client struct {
	// Depth limits fetched history. Zero fetches everything.
	Depth int
	// Progress receives the remote's sideband output when set.
	Progress io.Writer
}

var _ Cloner = (*Client)(nil)

// NewClient returns a Client performing single-branch clones of depth 1.
func NewClient() *Client {
	return &Client{Depth: DefaultDepth}
}

// Clone checks out the default branch of url into dir.
func (c *Client) Clone(ctx context.Context, url, dir string) (CloneResult, error) {
	repo, err := gogit.PlainCloneContext(ctx, dir, false, c.cloneOptions(url))
	if err != nil {
		return CloneResult{}, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	head, err := repo.Head()
	if err != nil {
		return CloneResult{}, fmt.Errorf("failed to resolve HEAD of %s: %w", url, err)
	}
	return CloneResult{Commit: head.Hash().String(), Branch: head.Name().Short()}, nil
}

func (c *Client) cloneOptions(url string) *gogit.CloneOptions {
	return &gogit.CloneOptions{
		URL:          url,
		Depth:        c.Depth,
		SingleBranch: true,
		Tags:         gogit.NoTags,
		Progress:     c.Progress,
	}
}

// IsRemoteMissing reports whether the clone failed because the remote does not
// exist, is empty, or refused access.
func IsRemoteMissing(err error) bool {
	return errors.Is(err, transport.ErrRepositoryNotFound) ||
		errors.Is(err, transport.ErrEmptyRemoteRepository) ||
		errors.Is(err, transport.ErrAuthenticationRequired)
}
