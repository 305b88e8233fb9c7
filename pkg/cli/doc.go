// Package cli provides the lerna command-line interface for monorepo versioning.
//
// # Overview
//
// This package implements the `lerna` CLI tool for developers to version the
// packages of a JavaScript monorepo, inspect which packages changed since
// the last release, and list the workspace from the terminal.
//
// # Commands
//
// version: Bump package versions, commit and tag
//
//	lerna version minor \
//		--message "chore(release): %s" \
//		--yes
//
// Conventional-commit recommendation with prerelease identifiers:
//
//	lerna version \
//		--conventional-commits \
//		--preid beta
//
// changed: List packages with commits since their last release tag
//
//	lerna changed --force-publish pkg-a,pkg-b
//	lerna changed --json
//
// ls: List local packages
//
//	lerna ls --json --all
//
// # Configuration
//
// All options come from lerna.yaml at the repository root; flags override
// file values only when given explicitly. A few settings also come from the
// environment:
//
//	export LERNA_GIT_REMOTE="upstream"
//	export LERNA_PREID="beta"
//	export CI=true
//
// # Related Packages
//
//   - pkg/release: Runs the versioning flow
//   - pkg/config: Loads and validates lerna.yaml
//   - pkg/graph: Discovers the workspace packages
package cli
