package release

import "errors"

// Sentinel errors for precondition and resolution failures. All of them
// fire before any file is mutated.
var (
	// ErrNoCommits means the repository has no commit history.
	ErrNoCommits = errors.New("no commits present in repository")

	// ErrDetachedHead means the current checkout is not on a branch.
	ErrDetachedHead = errors.New("detached HEAD, cannot version")

	// ErrNoRemoteBranch means the current branch has never been pushed to
	// the configured remote.
	ErrNoRemoteBranch = errors.New("branch does not exist on remote")

	// ErrBranchNotAllowed means the current branch matches none of the
	// configured allowBranch globs.
	ErrBranchNotAllowed = errors.New("branch is restricted from versioning")

	// ErrBehindUpstream means the local branch trails its upstream. Fatal
	// interactively; under CI the run exits cleanly with nothing to do.
	ErrBehindUpstream = errors.New("local branch is behind its upstream")

	// ErrUncleanWorkingTree means uncommitted changes are present.
	ErrUncleanWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrMissingVersion means a non-private package lacks a version field.
	ErrMissingVersion = errors.New("package is missing a version field")

	// ErrInvalidVersion means a supplied version literal is not valid
	// semver.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrCyclicDependency means the update set contains a dependency cycle
	// and rejectCycles is enabled.
	ErrCyclicDependency = errors.New("dependency cycle detected")
)
