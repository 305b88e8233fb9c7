// Package release implements the repository versioning flow.
//
// # Overview
//
// This package turns a set of changed packages into committed, tagged
// version bumps. A Runner drives the stages in order: the precondition
// Gate validates repository state, the Resolver picks the next version for
// every update (from a literal, an increment keyword, conventional-commit
// history, or an interactive prompt), the cascade widens fixed-mode
// breaking changes to the whole repository, Batches orders the updates by
// local dependency, and the Pipeline rewrites manifests, dependency ranges
// and changelogs before the CommitTagger records the release in git.
//
// # Key Features
//
// Version Resolution: One strategy per run, applied fixed or independently
// Breaking Cascade: Fixed-mode partial updates widen when a bump is breaking
// Batched Updates: Dependency-ordered batches with bounded concurrency
// Commit And Tag: "Publish" commits with name@version or v-prefixed tags
// Preconditions: Detached-head, branch, upstream and cleanliness checks
//
// # Usage Example
//
// Run the complete flow against a loaded configuration and graph:
//
//	runner := &release.Runner{
//		Config: cfg,
//		Graph:  g,
//		Git:    gitclient.NewExecClient(cfg.RootPath, log),
//		Log:    log,
//	}
//	result, err := runner.Run(ctx)
//	if err != nil {
//		return err
//	}
//	for _, tag := range result.Tags {
//		fmt.Println(tag)
//	}
//
// # Related Packages
//
//   - pkg/graph: Package discovery and local dependency links
//   - pkg/gitclient: Git operations used by the gate and tagger
//   - pkg/changelog: Bump recommendation and changelog generation
//   - pkg/lifecycle: package.json script execution around each stage
//   - pkg/prompt: Interactive version selection and confirmation
package release
