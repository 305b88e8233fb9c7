// Package gitclient wraps the git primitives used by the versioning flow.
//
// # Overview
//
// The Client interface exposes repository inspection (commits, branches,
// upstream state, working-tree cleanliness) and mutation (add, commit, tag,
// push) as atomic operations. ExecClient implements it by shelling out to
// git with stderr captured into returned errors.
//
// # Usage Example
//
//	git := gitclient.NewExecClient(repoRoot, logger)
//	branch, err := git.CurrentBranch(ctx)
//	if branch == "" {
//		// detached HEAD
//	}
//
// # Related Packages
//
//   - pkg/release: Consumes Client for preconditions and commit/tag
package gitclient
