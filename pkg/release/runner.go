package release

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/changelog"
	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/lifecycle"
	"github.com/jj88-npm/lerna/pkg/prompt"
	"github.com/jj88-npm/lerna/pkg/semverutil"
)

// Result is what one versioning run produced, for composition by a
// higher-level publish flow.
type Result struct {
	Updates         []string
	UpdatesVersions VersionMap
	Tags            []string
	ChangedFiles    []string
	NothingToDo     bool
	Reason          string
}

// Runner wires the whole versioning flow: precondition gate, change
// detection, version resolution, the cascade, batch scheduling, the update
// pipeline and finally commit/tag. Collaborators left nil get sensible
// defaults.
type Runner struct {
	Config *config.Config
	Graph  *graph.PackageGraph
	Git    gitclient.Client

	// ChangedPackages optionally supplies the already-computed changed
	// package names. Empty means "detect from git history".
	ChangedPackages []string

	Recommender changelog.Recommender
	Generator   changelog.Generator
	Lifecycle   lifecycle.Runner
	Prompter    prompt.Prompter

	Out io.Writer
	Log *logrus.Logger
}

// Run executes the versioning flow end to end.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Log == nil {
		r.Log = logrus.New()
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Prompter == nil {
		r.Prompter = prompt.New()
	}
	if r.Lifecycle == nil {
		r.Lifecycle = lifecycle.NewScriptRunner(r.Config.CommitHooks, r.Log)
	}
	if r.Recommender == nil || r.Generator == nil {
		conventional := changelog.NewConventional(r.Git, r.Log)
		if r.Recommender == nil {
			r.Recommender = conventional
		}
		if r.Generator == nil {
			r.Generator = conventional
		}
	}

	runID := uuid.NewString()[:8]
	log := r.Log.WithField("run", runID)
	cfg := r.Config

	gate := &Gate{
		Git:           r.Git,
		Remote:        cfg.GitRemote,
		AllowBranch:   cfg.AllowBranch,
		Push:          cfg.Push && cfg.GitTagVersion,
		GitTagVersion: cfg.GitTagVersion,
		Amend:         cfg.Amend,
		CI:            cfg.CI,
		Log:           r.Log,
	}
	gateResult, err := gate.Verify(ctx)
	if err != nil {
		return Result{}, err
	}
	if gateResult.NothingToDo {
		return Result{NothingToDo: true, Reason: gateResult.Reason}, nil
	}

	updates, err := r.collectUpdates(ctx)
	if err != nil {
		return Result{}, err
	}
	updates, err = FilterUpdates(updates, r.Log)
	if err != nil {
		return Result{}, err
	}
	if len(updates) == 0 {
		log.Info("no changed packages to version")
		return Result{NothingToDo: true, Reason: "no changed packages"}, nil
	}

	strategy, err := SelectStrategy(cfg)
	if err != nil {
		return Result{}, err
	}
	log.WithFields(logrus.Fields{
		"strategy": strategy.Kind.String(),
		"mode":     cfg.Mode(),
		"packages": len(updates),
	}).Info("resolving versions")

	rootVersion := cfg.Version
	if cfg.Independent() {
		rootVersion = "0.0.0"
	}
	parsedRoot, err := semverutil.Parse(rootVersion)
	if err != nil {
		return Result{}, fmt.Errorf("%w: repository version %q", ErrInvalidVersion, rootVersion)
	}

	resolver := &Resolver{
		Strategy:    strategy,
		Independent: cfg.Independent(),
		Preid:       cfg.Preid,
		RootVersion: parsedRoot,
		TagPrefix:   cfg.TagVersionPrefix,
		Recommender: r.Recommender,
		Prompter:    r.Prompter,
		LastTag:     r.Git.LastTag,
		Log:         r.Log,
	}
	versions, global, err := resolver.Resolve(ctx, updates)
	if err != nil {
		return Result{}, err
	}

	plan := UpdatePlan{Updates: updates}.WithVersions(versions, global)
	if !cfg.Independent() {
		plan = Cascade(plan, r.Graph, r.Log)
	}

	ok, err := r.confirm(ctx, plan)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{NothingToDo: true, Reason: "declined by user"}, nil
	}

	batches, err := Batches(plan.Updates, cfg.RejectCycles, r.Log)
	if err != nil {
		return Result{}, err
	}
	plan = plan.WithBatches(batches)

	changed := NewChangedFiles()
	pipeline := &Pipeline{
		Mode:            cfg.Mode(),
		Exact:           cfg.Exact,
		Changelog:       cfg.Changelog,
		ChangelogPreset: cfg.ChangelogPreset,
		TagPrefix:       cfg.TagVersionPrefix,
		RootPath:        cfg.RootPath,
		Lifecycle:       r.Lifecycle,
		Generator:       r.Generator,
		LastTag:         r.Git.LastTag,
		RootConfig:      cfg,
		Changed:         changed,
		Log:             r.Log,
	}
	if err := pipeline.Run(ctx, plan); err != nil {
		return Result{}, err
	}

	result := Result{
		Updates:         planNames(plan),
		UpdatesVersions: plan.Versions.clone(),
		ChangedFiles:    changed.List(),
	}

	if cfg.GitTagVersion {
		tagger := &CommitTagger{
			Git:         r.Git,
			Lifecycle:   r.Lifecycle,
			Independent: cfg.Independent(),
			Message:     cfg.Message,
			TagPrefix:   cfg.TagVersionPrefix,
			SignCommit:  cfg.SignGitCommit,
			SignTag:     cfg.SignGitTag,
			Amend:       cfg.Amend,
			CommitHooks: cfg.CommitHooks,
			Push:        cfg.Push,
			Remote:      cfg.GitRemote,
			Branch:      gateResult.Branch,
			RootPath:    cfg.RootPath,
			Log:         r.Log,
		}
		tags, err := tagger.Apply(ctx, plan, result.ChangedFiles)
		if err != nil {
			return Result{}, err
		}
		result.Tags = tags
	}

	return result, nil
}

// collectUpdates returns the update set, either the caller-supplied changed
// list or git-detected changes since the last release tag, plus any
// force-published packages.
func (r *Runner) collectUpdates(ctx context.Context) ([]*graph.Node, error) {
	if len(r.ChangedPackages) > 0 {
		out := make([]*graph.Node, 0, len(r.ChangedPackages))
		for _, name := range r.ChangedPackages {
			node := r.Graph.Get(name)
			if node == nil {
				return nil, fmt.Errorf("unknown package %q in changed list", name)
			}
			out = append(out, node)
		}
		return out, nil
	}
	return r.DetectChanges(ctx)
}

// DetectChanges computes which packages have commits since their last
// release tag. With no release tag yet, every package is considered
// changed. forcePublish entries (or "*") are always included.
func (r *Runner) DetectChanges(ctx context.Context) ([]*graph.Node, error) {
	cfg := r.Config

	forced := make(map[string]bool)
	forceAll := false
	for _, name := range cfg.ForcePublish {
		if name == "*" {
			forceAll = true
			continue
		}
		forced[name] = true
	}

	var out []*graph.Node
	for _, node := range r.Graph.Nodes() {
		if forceAll || forced[node.Name] {
			out = append(out, node)
			continue
		}

		pattern := cfg.TagVersionPrefix + "*"
		if cfg.Independent() {
			pattern = node.Name + "@*"
		}
		tag, err := r.Git.LastTag(ctx, pattern)
		if err != nil {
			return nil, err
		}
		if tag == "" {
			// Never released: everything counts as changed.
			out = append(out, node)
			continue
		}
		changed, err := r.Git.HasChangesSince(ctx, tag, node.Dir())
		if err != nil {
			return nil, err
		}
		if changed {
			out = append(out, node)
		}
	}
	return out, nil
}

// confirm prints the proposed changes and asks for confirmation unless the
// run is pre-approved.
func (r *Runner) confirm(ctx context.Context, plan UpdatePlan) (bool, error) {
	fmt.Fprintln(r.Out, "\nChanges:")
	for _, node := range plan.Updates {
		fmt.Fprintf(r.Out, " - %s: %s => %s\n", node.Name, node.Version, plan.Versions[node.Name])
	}
	fmt.Fprintln(r.Out)

	if r.Config.Yes {
		return true, nil
	}
	return r.Prompter.Confirm(ctx, "Are you sure you want to create these versions?")
}

func planNames(plan UpdatePlan) []string {
	names := make([]string, 0, len(plan.Updates))
	for _, node := range plan.Updates {
		names = append(names, node.Name)
	}
	return names
}
