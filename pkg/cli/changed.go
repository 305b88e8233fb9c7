package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/release"
)

func newChangedCommand(log *logrus.Logger) *Command {
	cmd := &Command{
		Name:        "changed",
		Description: "List packages changed since the last release",
		Flags:       flag.NewFlagSet("changed", flag.ExitOnError),
		Run: func(args []string) error {
			return runChanged(args, log)
		},
	}

	cmd.Flags.String("force-publish", "", "Comma-separated package names to always include, or *")
	cmd.Flags.Bool("json", false, "Output as JSON")

	return cmd
}

func runChanged(args []string, log *logrus.Logger) error {
	cmd := newChangedCommand(log)
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	root, err := findRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if forced := cmd.Flags.Lookup("force-publish").Value.String(); forced != "" {
		cfg.ForcePublish = splitList(forced)
	}

	g, err := graph.Build(root, cfg.Packages)
	if err != nil {
		return err
	}

	runner := &release.Runner{
		Config: cfg,
		Graph:  g,
		Git:    gitclient.NewExecClient(root, log),
		Log:    log,
	}
	changed, err := runner.DetectChanges(context.Background())
	if err != nil {
		return err
	}
	changed, err = release.FilterUpdates(changed, log)
	if err != nil {
		return err
	}

	if cmd.Flags.Lookup("json").Value.String() == "true" {
		return encodeEntries(os.Stdout, nodeEntries(changed, true))
	}

	for _, node := range changed {
		fmt.Println(node.Name)
	}
	return nil
}
