package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/graph"
)

func newLsCommand(log *logrus.Logger) *Command {
	cmd := &Command{
		Name:        "ls",
		Description: "List local packages",
		Flags:       flag.NewFlagSet("ls", flag.ExitOnError),
		Run: func(args []string) error {
			return runLs(args, log)
		},
	}

	cmd.Flags.Bool("json", false, "Output as JSON")
	cmd.Flags.Bool("all", false, "Include private packages")

	return cmd
}

type lsEntry struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Private  bool   `json:"private"`
	Location string `json:"location"`
}

func nodeEntries(nodes []*graph.Node, includePrivate bool) []lsEntry {
	entries := make([]lsEntry, 0, len(nodes))
	for _, node := range nodes {
		if node.Private && !includePrivate {
			continue
		}
		entries = append(entries, lsEntry{
			Name:     node.Name,
			Version:  node.Version,
			Private:  node.Private,
			Location: node.Dir(),
		})
	}
	return entries
}

func encodeEntries(w io.Writer, entries []lsEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func runLs(args []string, log *logrus.Logger) error {
	cmd := newLsCommand(log)
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	asJSON := cmd.Flags.Lookup("json").Value.String() == "true"
	all := cmd.Flags.Lookup("all").Value.String() == "true"

	root, err := findRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	g, err := graph.Build(root, cfg.Packages)
	if err != nil {
		return err
	}

	entries := nodeEntries(g.Nodes(), all)

	if asJSON {
		return encodeEntries(os.Stdout, entries)
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s v%s", e.Name, e.Version)
		if e.Private {
			line += " (private)"
		}
		fmt.Println(line)
	}
	return nil
}
