package release

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/changelog"
	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/prompt"
	"github.com/jj88-npm/lerna/pkg/semverutil"
)

// TagLookup resolves the most recent release tag matching a glob pattern.
// It is the slice of the git surface the resolver needs for scoping
// conventional-commit history.
type TagLookup func(ctx context.Context, pattern string) (string, error)

// Resolver applies the selected strategy to every node in the update set.
// Resolution is strictly sequential over the stable update order: prompts
// must never overlap, and recommendation order stays reproducible.
type Resolver struct {
	Strategy    Strategy
	Independent bool
	Preid       string
	RootVersion *semver.Version
	TagPrefix   string

	Recommender changelog.Recommender
	Prompter    prompt.Prompter
	LastTag     TagLookup

	Log *logrus.Logger
}

// Resolve produces the version map for updates and, when every package
// converges on one version, the global version.
func (r *Resolver) Resolve(ctx context.Context, updates []*graph.Node) (VersionMap, string, error) {
	if r.Log == nil {
		r.Log = logrus.New()
	}

	switch r.Strategy.Kind {
	case StrategyLiteral:
		return r.resolveLiteral(updates)
	case StrategyIncrement:
		if r.Independent {
			return r.resolveIncrementIndependent(updates)
		}
		return r.resolveIncrementFixed(updates)
	case StrategyConventional:
		if r.Independent {
			return r.resolveConventionalIndependent(ctx, updates)
		}
		return r.resolveConventionalFixed(ctx, updates)
	case StrategyPrompt:
		if r.Independent {
			return r.resolvePromptIndependent(ctx, updates)
		}
		return r.resolvePromptFixed(ctx, updates)
	default:
		return nil, "", fmt.Errorf("unknown strategy kind %d", r.Strategy.Kind)
	}
}

func (r *Resolver) resolveLiteral(updates []*graph.Node) (VersionMap, string, error) {
	version := r.Strategy.Literal.String()
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		versions[node.Name] = version
	}
	return versions, version, nil
}

func (r *Resolver) resolveIncrementIndependent(updates []*graph.Node) (VersionMap, string, error) {
	rt := r.Strategy.ReleaseType
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		current, err := semverutil.Parse(node.Version)
		if err != nil {
			return nil, "", fmt.Errorf("%w: package %s has version %q", ErrInvalidVersion, node.Name, node.Version)
		}
		next, err := semverutil.Inc(current, rt, resolvePreid(rt, r.Preid, current))
		if err != nil {
			return nil, "", err
		}
		versions[node.Name] = next.String()
	}
	return versions, "", nil
}

func (r *Resolver) resolveIncrementFixed(updates []*graph.Node) (VersionMap, string, error) {
	rt := r.Strategy.ReleaseType
	next, err := semverutil.Inc(r.RootVersion, rt, resolvePreid(rt, r.Preid, r.RootVersion))
	if err != nil {
		return nil, "", err
	}
	version := next.String()
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		versions[node.Name] = version
	}
	return versions, version, nil
}

func (r *Resolver) resolveConventionalIndependent(ctx context.Context, updates []*graph.Node) (VersionMap, string, error) {
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		current, err := semverutil.Parse(node.Version)
		if err != nil {
			return nil, "", fmt.Errorf("%w: package %s has version %q", ErrInvalidVersion, node.Name, node.Version)
		}
		sinceTag, err := r.LastTag(ctx, node.Name+"@*")
		if err != nil {
			return nil, "", err
		}
		rt, err := r.Recommender.Recommend(ctx, node.Name, node.Dir(), sinceTag)
		if err != nil {
			return nil, "", err
		}
		next, err := semverutil.Inc(current, rt, "")
		if err != nil {
			return nil, "", err
		}
		versions[node.Name] = next.String()
	}
	return versions, "", nil
}

// resolveConventionalFixed recommends per package, then realizes fixed
// semantics in two steps: floor each package's current version up to the
// repository baseline before recommending, and afterwards ceiling every
// entry to the single highest recommendation.
func (r *Resolver) resolveConventionalFixed(ctx context.Context, updates []*graph.Node) (VersionMap, string, error) {
	sinceTag, err := r.LastTag(ctx, r.TagPrefix+"*")
	if err != nil {
		return nil, "", err
	}

	var highest *semver.Version
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		current, err := semverutil.Parse(node.Version)
		if err != nil {
			return nil, "", fmt.Errorf("%w: package %s has version %q", ErrInvalidVersion, node.Name, node.Version)
		}
		if current.LessThan(r.RootVersion) {
			r.Log.WithFields(logrus.Fields{
				"package": node.Name,
				"version": node.Version,
				"root":    r.RootVersion.String(),
			}).Warn("package version trails the repository version, assuming the repository version")
			current = r.RootVersion
		}

		rt, err := r.Recommender.Recommend(ctx, node.Name, node.Dir(), sinceTag)
		if err != nil {
			return nil, "", err
		}
		next, err := semverutil.Inc(current, rt, "")
		if err != nil {
			return nil, "", err
		}
		versions[node.Name] = next.String()
		highest = semverutil.Max(highest, next)
	}

	if highest == nil {
		return versions, "", nil
	}
	ceiling := highest.String()
	for name := range versions {
		versions[name] = ceiling
	}
	return versions, ceiling, nil
}

func (r *Resolver) resolvePromptIndependent(ctx context.Context, updates []*graph.Node) (VersionMap, string, error) {
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		current, err := semverutil.Parse(node.Version)
		if err != nil {
			return nil, "", fmt.Errorf("%w: package %s has version %q", ErrInvalidVersion, node.Name, node.Version)
		}
		chosen, err := r.promptOne(ctx, node.Name, current)
		if err != nil {
			return nil, "", err
		}
		versions[node.Name] = chosen
	}
	return versions, "", nil
}

func (r *Resolver) resolvePromptFixed(ctx context.Context, updates []*graph.Node) (VersionMap, string, error) {
	chosen, err := r.promptOne(ctx, "the repository", r.RootVersion)
	if err != nil {
		return nil, "", err
	}
	versions := make(VersionMap, len(updates))
	for _, node := range updates {
		versions[node.Name] = chosen
	}
	return versions, chosen, nil
}

func (r *Resolver) promptOne(ctx context.Context, name string, current *semver.Version) (string, error) {
	choices, err := r.promptChoices(current)
	if err != nil {
		return "", err
	}
	answer, err := r.Prompter.SelectVersion(ctx, name, current.String(), choices)
	if err != nil {
		return "", err
	}
	chosen, err := semverutil.Parse(answer)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, answer)
	}
	return chosen.String(), nil
}

func (r *Resolver) promptChoices(current *semver.Version) ([]prompt.Choice, error) {
	labels := []string{
		semverutil.ReleasePatch,
		semverutil.ReleaseMinor,
		semverutil.ReleaseMajor,
		semverutil.ReleasePrepatch,
		semverutil.ReleasePreminor,
		semverutil.ReleasePremajor,
		semverutil.ReleasePrerelease,
	}
	choices := make([]prompt.Choice, 0, len(labels))
	for _, label := range labels {
		next, err := semverutil.Inc(current, label, resolvePreid(label, r.Preid, current))
		if err != nil {
			return nil, err
		}
		choices = append(choices, prompt.Choice{Label: label, Version: next.String()})
	}
	return choices, nil
}
