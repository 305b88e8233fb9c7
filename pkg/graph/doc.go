// Package graph models the repository's package graph.
//
// # Overview
//
// This package discovers package.json manifests under the configured
// workspace globs, parses them into nodes, and links the dependency ranges
// that point at sibling packages in the same repository.
//
// # Key Features
//
// Discovery: Glob-based manifest location under the repository root
// Local Linking: Declared ranges resolved against sibling package names
// Spec Classification: Registry ranges vs filesystem ("file:"/"link:") specs
// Manifest Mutation: In-place version and range rewrites with stable output
//
// # Usage Example
//
// Build the graph and walk its nodes:
//
//	g, err := graph.Build(rootDir, []string{"packages/*"})
//	for _, node := range g.Nodes() {
//		fmt.Printf("%s@%s (%d local deps)\n",
//			node.Name, node.Version, len(node.LocalDependencies))
//	}
//
// # Related Packages
//
//   - pkg/release: Consumes nodes during version resolution and updates
package graph
