// Package changelog turns commit history into version recommendations and
// CHANGELOG.md sections.
//
// # Overview
//
// Recommender classifies conventional-commit subjects (feat, fix, breaking
// markers) into a release type. Generator prepends a dated section to a
// package's CHANGELOG.md for the resolved version. Conventional implements
// both on top of pkg/gitclient.
//
// # Related Packages
//
//   - pkg/release: Calls Recommender during resolution and Generator during
//     the update pipeline
package changelog
