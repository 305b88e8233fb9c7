package release

import (
	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/semverutil"
)

// Cascade inspects a fixed-mode plan whose update set is a strict subset of
// the package graph. If any proposed bump is breaking, the update set is
// promoted to every package in the graph and all targets are unified on the
// plan's global version. A plan with no breaking bump passes through
// untouched.
//
// Private packages without a version stay excluded from the expansion, the
// same rule the precondition gate applies.
func Cascade(plan UpdatePlan, g *graph.PackageGraph, log *logrus.Logger) UpdatePlan {
	if log == nil {
		log = logrus.New()
	}
	if len(plan.Updates) >= g.Len() || plan.GlobalVersion == "" {
		return plan
	}

	breaking := ""
	for _, node := range plan.Updates {
		proposed, ok := plan.Versions[node.Name]
		if !ok {
			continue
		}
		current, err := semverutil.Parse(node.Version)
		if err != nil {
			continue
		}
		next, err := semverutil.Parse(proposed)
		if err != nil {
			continue
		}
		if semverutil.IsBreaking(current, next) {
			breaking = node.Name
			break
		}
	}
	if breaking == "" {
		return plan
	}

	log.WithFields(logrus.Fields{
		"package": breaking,
		"version": plan.GlobalVersion,
	}).Info("breaking change detected, versioning all packages")

	updates := make([]*graph.Node, 0, g.Len())
	versions := make(VersionMap, g.Len())
	for _, node := range g.Nodes() {
		if node.Version == "" && node.Private {
			continue
		}
		updates = append(updates, node)
		versions[node.Name] = plan.GlobalVersion
	}
	return plan.WithUpdates(updates, versions)
}
