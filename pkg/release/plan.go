package release

import (
	"sort"
	"sync"

	"github.com/jj88-npm/lerna/pkg/graph"
)

// VersionMap maps package names to their resolved next version.
type VersionMap map[string]string

// clone returns a copy so later stages never mutate an earlier stage's map.
func (v VersionMap) clone() VersionMap {
	out := make(VersionMap, len(v))
	for name, version := range v {
		out[name] = version
	}
	return out
}

// UpdatePlan carries the resolved state of one versioning run through the
// pipeline stages. Stages derive new plans via the With* transitions rather
// than mutating a shared value.
type UpdatePlan struct {
	// Updates is the update set in stable name order.
	Updates []*graph.Node

	// Versions holds the resolved next version per package.
	Versions VersionMap

	// Batches is the dependency-ordered schedule. Every local dependency
	// of a package that is itself in the update set appears in an earlier
	// batch.
	Batches [][]*graph.Node

	// GlobalVersion is set when every package converges on one version
	// (fixed mode, or a cascade).
	GlobalVersion string
}

// WithVersions returns a plan with the version map and global version set.
func (p UpdatePlan) WithVersions(versions VersionMap, global string) UpdatePlan {
	p.Versions = versions.clone()
	p.GlobalVersion = global
	return p
}

// WithUpdates returns a plan with a replaced update set and version map.
func (p UpdatePlan) WithUpdates(updates []*graph.Node, versions VersionMap) UpdatePlan {
	p.Updates = updates
	p.Versions = versions.clone()
	return p
}

// WithBatches returns a plan with the batch schedule attached.
func (p UpdatePlan) WithBatches(batches [][]*graph.Node) UpdatePlan {
	p.Batches = batches
	return p
}

// ChangedFiles accumulates the paths touched during the pipeline. Insertion
// is safe from concurrent package pipelines.
type ChangedFiles struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// NewChangedFiles creates an empty set.
func NewChangedFiles() *ChangedFiles {
	return &ChangedFiles{set: make(map[string]struct{})}
}

// Add records one or more touched paths.
func (c *ChangedFiles) Add(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		if p != "" {
			c.set[p] = struct{}{}
		}
	}
}

// List returns the recorded paths, sorted and duplicate-free.
func (c *ChangedFiles) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.set))
	for p := range c.set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
