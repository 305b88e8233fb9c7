package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jj88-npm/lerna/pkg/changelog"
	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/graph"
)

// fakeGenerator records changelog requests and pretends to write files.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []changelog.Request
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, req changelog.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return filepath.Join(req.Dir, "CHANGELOG.md"), nil
}

func newTestPipeline(root string, changed *ChangedFiles) (*Pipeline, *fakeGenerator) {
	gen := &fakeGenerator{}
	return &Pipeline{
		Mode:      config.ModeIndependent,
		Changelog: true,
		TagPrefix: "v",
		RootPath:  root,
		Lifecycle: &recordingLifecycle{},
		Generator: gen,
		LastTag:   newFakeGit().LastTag,
		Changed:   changed,
	}, gen
}

func singleBatchPlan(g *graph.PackageGraph, versions VersionMap) UpdatePlan {
	plan := UpdatePlan{Updates: g.Nodes()}.WithVersions(versions, "")
	return plan.WithBatches([][]*graph.Node{g.Nodes()})
}

func TestPipeline_WritesVersionsAndRanges(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "2.0.0", deps: map[string]string{"pkg-a": "^1.0.0"}},
	)

	changed := NewChangedFiles()
	p, _ := newTestPipeline(root, changed)
	plan := singleBatchPlan(g, VersionMap{"pkg-a": "1.1.0", "pkg-b": "2.0.1"})

	require.NoError(t, p.Run(context.Background(), plan))

	a, err := graph.LoadManifest(g.Get("pkg-a").ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", a.Version())

	b, err := graph.LoadManifest(g.Get("pkg-b").ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "2.0.1", b.Version())
	assert.Equal(t, "^1.1.0", b.Dependencies("dependencies")["pkg-a"], "local range follows the new version")

	files := changed.List()
	assert.Contains(t, files, g.Get("pkg-a").ManifestPath)
	assert.Contains(t, files, g.Get("pkg-b").ManifestPath)
}

func TestPipeline_ExactRanges(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "2.0.0", deps: map[string]string{"pkg-a": "^1.0.0"}},
	)

	p, _ := newTestPipeline(root, NewChangedFiles())
	p.Exact = true
	plan := singleBatchPlan(g, VersionMap{"pkg-a": "1.1.0", "pkg-b": "2.0.1"})

	require.NoError(t, p.Run(context.Background(), plan))

	b, err := graph.LoadManifest(g.Get("pkg-b").ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", b.Dependencies("dependencies")["pkg-a"])
}

func TestPipeline_DirectorySpecUntouched(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "2.0.0", deps: map[string]string{"pkg-a": "file:../pkg-a"}},
	)

	p, _ := newTestPipeline(root, NewChangedFiles())
	plan := singleBatchPlan(g, VersionMap{"pkg-a": "1.1.0", "pkg-b": "2.0.1"})

	require.NoError(t, p.Run(context.Background(), plan))

	b, err := graph.LoadManifest(g.Get("pkg-b").ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "file:../pkg-a", b.Dependencies("dependencies")["pkg-a"])
}

func TestPipeline_DependencyOutsideUpdateSetKeepsRange(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "2.0.0", deps: map[string]string{"pkg-a": "^1.0.0"}},
	)

	p, _ := newTestPipeline(root, NewChangedFiles())
	// Only pkg-b updates; pkg-a has no resolved version.
	plan := UpdatePlan{Updates: []*graph.Node{g.Get("pkg-b")}}.
		WithVersions(VersionMap{"pkg-b": "2.0.1"}, "").
		WithBatches([][]*graph.Node{{g.Get("pkg-b")}})

	require.NoError(t, p.Run(context.Background(), plan))

	b, err := graph.LoadManifest(g.Get("pkg-b").ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "^1.0.0", b.Dependencies("dependencies")["pkg-a"])
}

func TestPipeline_ChangelogRequests(t *testing.T) {
	g, root := buildTestGraph(t, pkgSpec{name: "pkg-a", version: "1.0.0"})

	changed := NewChangedFiles()
	p, gen := newTestPipeline(root, changed)
	git := newFakeGit()
	git.lastTags["pkg-a@*"] = "pkg-a@1.0.0"
	p.LastTag = git.LastTag

	plan := singleBatchPlan(g, VersionMap{"pkg-a": "1.0.1"})
	require.NoError(t, p.Run(context.Background(), plan))

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "pkg-a", req.Name)
	assert.Equal(t, "1.0.1", req.Version)
	assert.Equal(t, "pkg-a@1.0.0", req.SinceTag)
	assert.Contains(t, changed.List(), filepath.Join(g.Get("pkg-a").Dir(), "CHANGELOG.md"))
}

func TestPipeline_ChangelogDisabled(t *testing.T) {
	g, root := buildTestGraph(t, pkgSpec{name: "pkg-a", version: "1.0.0"})

	p, gen := newTestPipeline(root, NewChangedFiles())
	p.Changelog = false

	plan := singleBatchPlan(g, VersionMap{"pkg-a": "1.0.1"})
	require.NoError(t, p.Run(context.Background(), plan))
	assert.Empty(t, gen.requests)
}

func TestPipeline_FixedModeRecordsRootVersion(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "1.0.0"},
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("version: 1.0.0\n"), 0644))
	cfg, err := config.Load(root)
	require.NoError(t, err)

	changed := NewChangedFiles()
	p, gen := newTestPipeline(root, changed)
	p.Mode = "fixed"
	p.RootConfig = cfg

	plan := UpdatePlan{Updates: g.Nodes()}.
		WithVersions(VersionMap{"pkg-a": "1.1.0", "pkg-b": "1.1.0"}, "1.1.0").
		WithBatches([][]*graph.Node{g.Nodes()})
	require.NoError(t, p.Run(context.Background(), plan))

	reloaded, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", reloaded.Version)
	assert.Contains(t, changed.List(), cfg.ConfigPath())

	// Two package changelogs plus the root changelog.
	require.Len(t, gen.requests, 3)
	rootReq := gen.requests[2]
	assert.Equal(t, "", rootReq.Name)
	assert.Equal(t, root, rootReq.Dir)
	assert.Equal(t, "1.1.0", rootReq.Version)
}

func TestPipeline_LifecycleOrder(t *testing.T) {
	g, root := buildTestGraph(t, pkgSpec{name: "pkg-a", version: "1.0.0"})

	lc := &recordingLifecycle{}
	p, _ := newTestPipeline(root, NewChangedFiles())
	p.Lifecycle = lc
	p.Changelog = false

	plan := singleBatchPlan(g, VersionMap{"pkg-a": "1.0.1"})
	require.NoError(t, p.Run(context.Background(), plan))

	rootBase := filepath.Base(root)
	assert.Equal(t, []string{
		rootBase + ":preversion",
		"pkg-a:preversion",
		"pkg-a:version",
		rootBase + ":version",
	}, lc.runs)
}

func TestPipeline_BatchesRunInOrder(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "1.0.0", deps: map[string]string{"pkg-a": "^1.0.0"}},
	)

	var order []string
	var mu sync.Mutex
	lc := lifecycleFunc(func(ctx context.Context, dir, script string) error {
		if script == "version" {
			mu.Lock()
			order = append(order, filepath.Base(dir))
			mu.Unlock()
		}
		return nil
	})

	p, _ := newTestPipeline(root, NewChangedFiles())
	p.Lifecycle = lc
	p.Changelog = false

	batches, err := Batches(g.Nodes(), false, nil)
	require.NoError(t, err)
	plan := UpdatePlan{Updates: g.Nodes()}.
		WithVersions(VersionMap{"pkg-a": "1.0.1", "pkg-b": "1.0.1"}, "").
		WithBatches(batches)

	require.NoError(t, p.Run(context.Background(), plan))
	assert.Equal(t, []string{"pkg-a", "pkg-b"}, order)
}

func TestPipeline_FailureAborts(t *testing.T) {
	g, root := buildTestGraph(t,
		pkgSpec{name: "pkg-a", version: "1.0.0"},
		pkgSpec{name: "pkg-b", version: "1.0.0", deps: map[string]string{"pkg-a": "^1.0.0"}},
	)

	var calls atomic.Int32
	lc := lifecycleFunc(func(ctx context.Context, dir, script string) error {
		if script == "preversion" && filepath.Base(dir) == "pkg-a" {
			return fmt.Errorf("preversion failed")
		}
		calls.Add(1)
		return nil
	})

	p, _ := newTestPipeline(root, NewChangedFiles())
	p.Lifecycle = lc
	p.Changelog = false

	batches, err := Batches(g.Nodes(), false, nil)
	require.NoError(t, err)
	plan := UpdatePlan{Updates: g.Nodes()}.
		WithVersions(VersionMap{"pkg-a": "1.0.1", "pkg-b": "1.0.1"}, "").
		WithBatches(batches)

	err = p.Run(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preversion failed")

	// pkg-b sits in a later batch and never starts.
	b, err := graph.LoadManifest(g.Get("pkg-b").ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", b.Version())
}

func TestPipeline_BatchConcurrencyBounded(t *testing.T) {
	specs := make([]pkgSpec, 0, 150)
	for i := 0; i < 150; i++ {
		specs = append(specs, pkgSpec{name: fmt.Sprintf("pkg-%03d", i), version: "1.0.0"})
	}
	g, root := buildTestGraph(t, specs...)

	var inflight, peak atomic.Int64
	lc := lifecycleFunc(func(ctx context.Context, dir, script string) error {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		// Hold the slot long enough for the other goroutines to pile up
		// behind the semaphore.
		time.Sleep(time.Millisecond)
		return nil
	})

	p, _ := newTestPipeline(root, NewChangedFiles())
	p.Lifecycle = lc
	p.Changelog = false

	versions := VersionMap{}
	for _, node := range g.Nodes() {
		versions[node.Name] = "1.0.1"
	}

	require.NoError(t, p.Run(context.Background(), singleBatchPlan(g, versions)))

	assert.Positive(t, peak.Load())
	assert.LessOrEqual(t, peak.Load(), int64(MaxBatchConcurrency),
		"in-flight package pipelines within one batch stay under the cap")
}

// lifecycleFunc adapts a function to the lifecycle.Runner interface.
type lifecycleFunc func(ctx context.Context, dir, script string) error

func (f lifecycleFunc) Run(ctx context.Context, dir, script string) error {
	return f(ctx, dir, script)
}
