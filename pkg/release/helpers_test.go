package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/prompt"
)

// fakeGit is an in-memory gitclient.Client with scriptable state and
// recorded mutations.
type fakeGit struct {
	hasCommits   bool
	branch       string
	remoteExists bool
	behind       int
	clean        bool
	lastTags     map[string]string // pattern -> tag
	subjects     map[string][]string
	changed      map[string]bool // path -> has changes

	mu      sync.Mutex
	added   [][]string
	commits []string
	tags    []string
	pushes  []string

	commitOpts gitclient.CommitOptions
	tagOpts    []gitclient.TagOptions
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		hasCommits:   true,
		branch:       "main",
		remoteExists: true,
		clean:        true,
		lastTags:     make(map[string]string),
		subjects:     make(map[string][]string),
		changed:      make(map[string]bool),
	}
}

func (f *fakeGit) HasCommits(ctx context.Context) (bool, error) { return f.hasCommits, nil }
func (f *fakeGit) CurrentBranch(ctx context.Context) (string, error) {
	return f.branch, nil
}
func (f *fakeGit) RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error) {
	return f.remoteExists, nil
}
func (f *fakeGit) BehindUpstream(ctx context.Context, remote, branch string) (int, error) {
	return f.behind, nil
}
func (f *fakeGit) IsClean(ctx context.Context) (bool, error) { return f.clean, nil }

func (f *fakeGit) Add(ctx context.Context, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, paths)
	return nil
}

func (f *fakeGit) Commit(ctx context.Context, message string, opts gitclient.CommitOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, message)
	f.commitOpts = opts
	return nil
}

func (f *fakeGit) Tag(ctx context.Context, name string, opts gitclient.TagOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, name)
	f.tagOpts = append(f.tagOpts, opts)
	return nil
}

func (f *fakeGit) Push(ctx context.Context, remote, branch string, followTags bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, fmt.Sprintf("%s/%s followTags=%v", remote, branch, followTags))
	return nil
}

func (f *fakeGit) LastTag(ctx context.Context, pattern string) (string, error) {
	return f.lastTags[pattern], nil
}

func (f *fakeGit) HasChangesSince(ctx context.Context, ref, path string) (bool, error) {
	return f.changed[path], nil
}

func (f *fakeGit) SubjectsSince(ctx context.Context, ref, path string) ([]string, error) {
	return f.subjects[path], nil
}

// fakeRecommender returns a fixed release type per package name.
type fakeRecommender struct {
	byName map[string]string
}

func (f *fakeRecommender) Recommend(ctx context.Context, name, dir, sinceTag string) (string, error) {
	if rt, ok := f.byName[name]; ok {
		return rt, nil
	}
	return "patch", nil
}

// fakePrompter replays scripted answers and approves confirmations.
type fakePrompter struct {
	answers []string
	confirm bool

	prompted []string
}

func (f *fakePrompter) SelectVersion(ctx context.Context, pkg, current string, choices []prompt.Choice) (string, error) {
	f.prompted = append(f.prompted, pkg)
	if len(f.answers) == 0 {
		return "", fmt.Errorf("no scripted answer for %s", pkg)
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

func (f *fakePrompter) Confirm(ctx context.Context, message string) (bool, error) {
	return f.confirm, nil
}

// recordingLifecycle notes every (dir, script) invocation.
type recordingLifecycle struct {
	mu   sync.Mutex
	runs []string
}

func (r *recordingLifecycle) Run(ctx context.Context, dir, script string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, filepath.Base(dir)+":"+script)
	return nil
}

// pkgSpec describes one package for buildTestGraph.
type pkgSpec struct {
	name    string
	version string
	private bool
	deps    map[string]string
}

func buildTestGraph(t *testing.T, specs ...pkgSpec) (*graph.PackageGraph, string) {
	t.Helper()
	root := t.TempDir()
	for _, spec := range specs {
		dir := filepath.Join(root, "packages", spec.name)
		require.NoError(t, os.MkdirAll(dir, 0755))

		manifest := fmt.Sprintf("{\n  \"name\": %q", spec.name)
		if spec.version != "" {
			manifest += fmt.Sprintf(",\n  \"version\": %q", spec.version)
		}
		if spec.private {
			manifest += ",\n  \"private\": true"
		}
		if len(spec.deps) > 0 {
			manifest += ",\n  \"dependencies\": {"
			first := true
			for dep, rng := range spec.deps {
				if !first {
					manifest += ", "
				}
				manifest += fmt.Sprintf("%q: %q", dep, rng)
				first = false
			}
			manifest += "}"
		}
		manifest += "\n}\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0644))
	}

	g, err := graph.Build(root, nil)
	require.NoError(t, err)
	return g, root
}
