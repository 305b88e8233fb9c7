package gitclient

import (
	"context"
)

// CommitOptions tune how a commit is created.
type CommitOptions struct {
	Amend    bool
	Sign     bool
	NoVerify bool
}

// TagOptions tune how a tag is created.
type TagOptions struct {
	Sign bool
}

// Client exposes the git primitives the versioning pipeline needs. All
// operations are atomic from the caller's point of view; failures surface
// as ordinary errors with git's stderr attached.
type Client interface {
	// HasCommits reports whether the repository has at least one commit.
	HasCommits(ctx context.Context) (bool, error)

	// CurrentBranch returns the checked-out branch name, or "" when HEAD
	// is detached.
	CurrentBranch(ctx context.Context) (string, error)

	// RemoteBranchExists reports whether branch exists on remote.
	RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error)

	// BehindUpstream returns how many commits the local branch trails its
	// upstream by. Zero means up to date (or no upstream configured).
	BehindUpstream(ctx context.Context, remote, branch string) (int, error)

	// IsClean reports whether the working tree has no uncommitted changes.
	IsClean(ctx context.Context) (bool, error)

	// Add stages the given paths.
	Add(ctx context.Context, paths []string) error

	// Commit creates a commit with the staged changes.
	Commit(ctx context.Context, message string, opts CommitOptions) error

	// Tag creates an annotated tag pointing at HEAD.
	Tag(ctx context.Context, name string, opts TagOptions) error

	// Push pushes the branch and, when followTags is set, its tags.
	Push(ctx context.Context, remote, branch string, followTags bool) error

	// LastTag returns the most recent tag matching pattern, or "" when the
	// repository has no matching tag.
	LastTag(ctx context.Context, pattern string) (string, error)

	// HasChangesSince reports whether any commit after ref touched path.
	// An empty ref means the whole history is considered.
	HasChangesSince(ctx context.Context, ref, path string) (bool, error)

	// SubjectsSince returns the subjects of commits after ref that touched
	// path, newest first.
	SubjectsSince(ctx context.Context, ref, path string) ([]string, error)
}
