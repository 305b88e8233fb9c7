package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DependencySpec describes one declared dependency range.
type DependencySpec struct {
	Range    string
	SpecType SpecType
}

// SpecType classifies how a dependency range is expressed.
type SpecType int

const (
	// SpecVersion is a registry range such as "^1.2.0" or "1.x".
	SpecVersion SpecType = iota
	// SpecDirectory is a filesystem specifier ("file:../foo", "link:../foo").
	// Directory specifiers are never rewritten during versioning.
	SpecDirectory
)

func (s SpecType) String() string {
	if s == SpecDirectory {
		return "directory"
	}
	return "version"
}

// Node is one package in the repository.
type Node struct {
	Name              string
	Version           string
	Private           bool
	ManifestPath      string
	LocalDependencies map[string]DependencySpec

	manifest *Manifest
}

// Dir returns the package directory.
func (n *Node) Dir() string {
	return filepath.Dir(n.ManifestPath)
}

// Manifest returns the in-memory manifest for mutation.
func (n *Node) Manifest() *Manifest {
	return n.manifest
}

// RefreshManifest re-reads the manifest from disk, discarding in-memory
// state. A lifecycle script may have rewritten the file since loading.
func (n *Node) RefreshManifest() error {
	m, err := LoadManifest(n.ManifestPath)
	if err != nil {
		return err
	}
	n.manifest = m
	n.Version = m.Version()
	return nil
}

// PackageGraph holds every package in the repository, indexed by name and
// iterable in a stable name-sorted order.
type PackageGraph struct {
	nodes map[string]*Node
	order []string
}

// Build discovers package manifests under root matching the given globs
// (e.g. "packages/*") and links local dependencies between them.
func Build(root string, globs []string) (*PackageGraph, error) {
	if len(globs) == 0 {
		globs = []string{"packages/*"}
	}

	g := &PackageGraph{nodes: make(map[string]*Node)}

	for _, glob := range globs {
		matches, err := filepath.Glob(filepath.Join(root, glob, "package.json"))
		if err != nil {
			return nil, fmt.Errorf("bad package glob %q: %w", glob, err)
		}
		for _, manifestPath := range matches {
			if info, err := os.Stat(manifestPath); err != nil || info.IsDir() {
				continue
			}
			m, err := LoadManifest(manifestPath)
			if err != nil {
				return nil, err
			}
			if m.Name() == "" {
				return nil, fmt.Errorf("manifest %s has no name", manifestPath)
			}
			if _, exists := g.nodes[m.Name()]; exists {
				return nil, fmt.Errorf("duplicate package name %q", m.Name())
			}
			g.nodes[m.Name()] = &Node{
				Name:         m.Name(),
				Version:      m.Version(),
				Private:      m.Private(),
				ManifestPath: manifestPath,
				manifest:     m,
			}
		}
	}

	for name := range g.nodes {
		g.order = append(g.order, name)
	}
	sort.Strings(g.order)

	g.linkLocalDependencies()
	return g, nil
}

// linkLocalDependencies resolves which declared ranges point at sibling
// packages in the same repository.
func (g *PackageGraph) linkLocalDependencies() {
	for _, node := range g.nodes {
		node.LocalDependencies = make(map[string]DependencySpec)
		for _, collection := range dependencyCollections {
			for depName, rng := range node.manifest.Dependencies(collection) {
				if _, local := g.nodes[depName]; !local {
					continue
				}
				node.LocalDependencies[depName] = DependencySpec{
					Range:    rng,
					SpecType: classifyRange(rng),
				}
			}
		}
	}
}

func classifyRange(rng string) SpecType {
	if strings.HasPrefix(rng, "file:") || strings.HasPrefix(rng, "link:") {
		return SpecDirectory
	}
	return SpecVersion
}

// Get returns the named node, or nil.
func (g *PackageGraph) Get(name string) *Node {
	return g.nodes[name]
}

// Len returns the number of packages.
func (g *PackageGraph) Len() int {
	return len(g.nodes)
}

// Names returns all package names in stable order.
func (g *PackageGraph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Nodes returns all nodes in stable name order.
func (g *PackageGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}
