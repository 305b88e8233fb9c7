// Package config loads the repository-level versioning configuration.
//
// # Overview
//
// Configuration layers, lowest precedence first: built-in defaults, the
// lerna.yaml file at the repository root, LERNA_* environment variables,
// and finally command-line flags applied by the caller.
//
// # File Layout
//
//	version: independent      # or a fixed semver like 1.4.0
//	packages:
//	  - packages/*
//	command:
//	  version:
//	    conventionalCommits: true
//	    allowBranch: [main, release/*]
//	    message: "chore(release): %s"
//
// # Related Packages
//
//   - pkg/release: Consumes Config for the whole versioning flow
package config
