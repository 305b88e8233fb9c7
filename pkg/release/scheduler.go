package release

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/graph"
)

// Batches partitions the update set into a dependency-ordered schedule.
// Packages whose local dependencies (within the update set) are already
// scheduled form the next batch; members of one batch have no dependency
// relation to each other and may be processed concurrently.
//
// A dependency cycle inside the update set fails with ErrCyclicDependency
// when rejectCycles is set. Otherwise the cycle is broken by force-scheduling
// the lexicographically smallest blocked package, with a warning. The
// tie-break is deterministic but otherwise arbitrary.
func Batches(updates []*graph.Node, rejectCycles bool, log *logrus.Logger) ([][]*graph.Node, error) {
	if log == nil {
		log = logrus.New()
	}

	inSet := make(map[string]*graph.Node, len(updates))
	for _, node := range updates {
		inSet[node.Name] = node
	}

	remaining := make([]*graph.Node, len(updates))
	copy(remaining, updates)
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Name < remaining[j].Name })

	scheduled := make(map[string]bool, len(updates))
	var batches [][]*graph.Node

	for len(remaining) > 0 {
		var batch []*graph.Node
		var blocked []*graph.Node

		for _, node := range remaining {
			if unscheduledDeps(node, inSet, scheduled) == 0 {
				batch = append(batch, node)
			} else {
				blocked = append(blocked, node)
			}
		}

		if len(batch) == 0 {
			// Every remaining package waits on another: a cycle.
			names := nodeNames(blocked)
			if rejectCycles {
				return nil, fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(names, ", "))
			}
			log.WithField("packages", strings.Join(names, ", ")).
				Warn("dependency cycle detected, continuing in arbitrary order")
			batch = []*graph.Node{blocked[0]}
			blocked = blocked[1:]
		}

		for _, node := range batch {
			scheduled[node.Name] = true
		}
		batches = append(batches, batch)
		remaining = blocked
	}

	return batches, nil
}

func unscheduledDeps(node *graph.Node, inSet map[string]*graph.Node, scheduled map[string]bool) int {
	count := 0
	for depName := range node.LocalDependencies {
		if _, ok := inSet[depName]; !ok {
			continue
		}
		if !scheduled[depName] {
			count++
		}
	}
	return count
}

func nodeNames(nodes []*graph.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}
