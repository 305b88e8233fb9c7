package release

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jj88-npm/lerna/pkg/changelog"
	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/lifecycle"
)

// MaxBatchConcurrency caps how many package pipelines run at once within a
// single batch.
const MaxBatchConcurrency = 100

// Pipeline mutates manifests and changelogs for a resolved plan. Batches
// run strictly in sequence; packages within a batch fan out concurrently up
// to MaxBatchConcurrency. The first failure anywhere aborts the remaining
// plan. Files already written stay written; recovery is the operator's
// responsibility.
type Pipeline struct {
	Mode            string // "fixed" or "independent"
	Exact           bool
	Changelog       bool
	ChangelogPreset string
	TagPrefix       string
	RootPath        string

	Lifecycle  lifecycle.Runner
	Generator  changelog.Generator
	LastTag    TagLookup
	RootConfig *config.Config

	Changed *ChangedFiles
	Log     *logrus.Logger
}

func (p *Pipeline) savePrefix() string {
	if p.Exact {
		return ""
	}
	return "^"
}

// Run executes the full update pipeline for plan.
func (p *Pipeline) Run(ctx context.Context, plan UpdatePlan) error {
	if p.Log == nil {
		p.Log = logrus.New()
	}

	if err := p.runRootHook(ctx, lifecycle.StagePreversion); err != nil {
		return err
	}

	for i, batch := range plan.Batches {
		p.Log.WithFields(logrus.Fields{
			"batch":    i + 1,
			"batches":  len(plan.Batches),
			"packages": len(batch),
		}).Debug("processing batch")

		group, groupCtx := errgroup.WithContext(ctx)
		sem := semaphore.NewWeighted(MaxBatchConcurrency)
		for _, node := range batch {
			node := node
			group.Go(func() error {
				if err := sem.Acquire(groupCtx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
				return p.runPackage(groupCtx, node, plan)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}

	if err := p.finishRoot(ctx, plan); err != nil {
		return err
	}

	return p.runRootHook(ctx, lifecycle.StageVersion)
}

// runPackage executes the fixed action sequence for one package.
func (p *Pipeline) runPackage(ctx context.Context, node *graph.Node, plan UpdatePlan) error {
	version, ok := plan.Versions[node.Name]
	if !ok {
		return fmt.Errorf("no resolved version for package %s", node.Name)
	}

	if err := p.Lifecycle.Run(ctx, node.Dir(), lifecycle.StagePreversion); err != nil {
		return err
	}

	// A preversion script may have rewritten the manifest on disk.
	if err := node.RefreshManifest(); err != nil {
		return err
	}

	manifest := node.Manifest()
	manifest.SetVersion(version)
	for depName, spec := range node.LocalDependencies {
		depVersion, ok := plan.Versions[depName]
		if !ok {
			continue
		}
		if spec.SpecType == graph.SpecDirectory {
			// Filesystem specifiers only change at publish time.
			continue
		}
		manifest.SetDependencyRange(depName, p.savePrefix()+depVersion)
	}

	if err := manifest.Save(); err != nil {
		return err
	}
	p.Changed.Add(manifest.Path())

	if err := p.Lifecycle.Run(ctx, node.Dir(), lifecycle.StageVersion); err != nil {
		return err
	}

	if p.Changelog {
		sinceTag, err := p.packageSinceTag(ctx, node)
		if err != nil {
			return err
		}
		path, err := p.Generator.Generate(ctx, changelog.Request{
			Mode:      p.Mode,
			Preset:    p.ChangelogPreset,
			RootPath:  p.RootPath,
			Name:      node.Name,
			Dir:       node.Dir(),
			TagPrefix: p.TagPrefix,
			Version:   version,
			SinceTag:  sinceTag,
		})
		if err != nil {
			return err
		}
		p.Changed.Add(path)
	}

	return nil
}

func (p *Pipeline) packageSinceTag(ctx context.Context, node *graph.Node) (string, error) {
	if p.Mode == config.ModeIndependent {
		return p.LastTag(ctx, node.Name+"@*")
	}
	return p.LastTag(ctx, p.TagPrefix+"*")
}

// finishRoot records the repository-level version in fixed mode and
// optionally writes the root changelog.
func (p *Pipeline) finishRoot(ctx context.Context, plan UpdatePlan) error {
	if p.Mode == config.ModeIndependent || plan.GlobalVersion == "" {
		return nil
	}

	if p.RootConfig != nil {
		if err := p.RootConfig.SaveVersion(plan.GlobalVersion); err != nil {
			return err
		}
		p.Changed.Add(p.RootConfig.ConfigPath())
	}

	if p.Changelog {
		sinceTag, err := p.LastTag(ctx, p.TagPrefix+"*")
		if err != nil {
			return err
		}
		path, err := p.Generator.Generate(ctx, changelog.Request{
			Mode:      p.Mode,
			Preset:    p.ChangelogPreset,
			RootPath:  p.RootPath,
			Dir:       p.RootPath,
			TagPrefix: p.TagPrefix,
			Version:   plan.GlobalVersion,
			SinceTag:  sinceTag,
		})
		if err != nil {
			return err
		}
		p.Changed.Add(path)
	}

	return nil
}

// runRootHook executes a repository-level lifecycle stage unless this
// process was itself spawned from that stage, which would recurse.
func (p *Pipeline) runRootHook(ctx context.Context, stage string) error {
	if lifecycle.NestedEvent(stage) {
		p.Log.WithField("script", stage).Warn("skipping root lifecycle script to avoid recursion")
		return nil
	}
	return p.Lifecycle.Run(ctx, p.RootPath, stage)
}
