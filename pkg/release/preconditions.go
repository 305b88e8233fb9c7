package release

import (
	"context"
	"fmt"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/graph"
)

// Gate validates repository state before any resolution or mutation starts.
// Every failure is reported before a single file changes.
type Gate struct {
	Git gitclient.Client

	Remote        string
	AllowBranch   []string
	Push          bool
	GitTagVersion bool
	Amend         bool
	CI            bool

	Log *logrus.Logger
}

// GateResult reports the verified branch, or a clean "nothing to do" exit
// for the CI behind-upstream case.
type GateResult struct {
	Branch      string
	NothingToDo bool
	Reason      string
}

// Verify runs every precondition check in order, failing fast on the first
// violation.
func (g *Gate) Verify(ctx context.Context) (GateResult, error) {
	if g.Log == nil {
		g.Log = logrus.New()
	}

	hasCommits, err := g.Git.HasCommits(ctx)
	if err != nil {
		return GateResult{}, err
	}
	if !hasCommits {
		return GateResult{}, ErrNoCommits
	}

	branch, err := g.Git.CurrentBranch(ctx)
	if err != nil {
		return GateResult{}, err
	}
	if branch == "" {
		return GateResult{}, ErrDetachedHead
	}

	if g.Push {
		exists, err := g.Git.RemoteBranchExists(ctx, g.Remote, branch)
		if err != nil {
			return GateResult{}, err
		}
		if !exists {
			return GateResult{}, fmt.Errorf("%w: %s on %s", ErrNoRemoteBranch, branch, g.Remote)
		}
	}

	if len(g.AllowBranch) > 0 && !branchAllowed(branch, g.AllowBranch) {
		return GateResult{}, fmt.Errorf("%w: %q", ErrBranchNotAllowed, branch)
	}

	if g.GitTagVersion && g.Push {
		behind, err := g.Git.BehindUpstream(ctx, g.Remote, branch)
		if err != nil {
			return GateResult{}, err
		}
		if behind > 0 {
			if g.CI {
				g.Log.WithFields(logrus.Fields{
					"branch": branch,
					"behind": behind,
				}).Info("branch is behind upstream, nothing to do")
				return GateResult{
					Branch:      branch,
					NothingToDo: true,
					Reason:      fmt.Sprintf("branch %s is behind %s/%s by %d commits", branch, g.Remote, branch, behind),
				}, nil
			}
			return GateResult{}, fmt.Errorf("%w: %s trails %s/%s by %d commits", ErrBehindUpstream, branch, g.Remote, branch, behind)
		}
	}

	if !g.Amend {
		clean, err := g.Git.IsClean(ctx)
		if err != nil {
			return GateResult{}, err
		}
		if !clean {
			return GateResult{}, ErrUncleanWorkingTree
		}
	}

	return GateResult{Branch: branch}, nil
}

func branchAllowed(branch string, globs []string) bool {
	for _, glob := range globs {
		if ok, err := path.Match(glob, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// FilterUpdates enforces the version-field rule on the update set: private
// packages without a version are silently excluded, a non-private package
// without a version is fatal.
func FilterUpdates(updates []*graph.Node, log *logrus.Logger) ([]*graph.Node, error) {
	if log == nil {
		log = logrus.New()
	}
	out := make([]*graph.Node, 0, len(updates))
	for _, node := range updates {
		if node.Version == "" {
			if !node.Private {
				return nil, fmt.Errorf("%w: %s", ErrMissingVersion, node.Name)
			}
			log.WithField("package", node.Name).Debug("excluding unversioned private package")
			continue
		}
		out = append(out, node)
	}
	return out, nil
}
