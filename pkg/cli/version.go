package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/config"
	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/graph"
	"github.com/jj88-npm/lerna/pkg/release"
)

func newVersionCommand(log *logrus.Logger) *Command {
	cmd := &Command{
		Name:        "version",
		Description: "Bump package versions, commit and tag the release",
		Flags:       flag.NewFlagSet("version", flag.ExitOnError),
		Run: func(args []string) error {
			return runVersion(args, log)
		},
	}

	cmd.Flags.Bool("conventional-commits", false, "Recommend versions from conventional commit history")
	cmd.Flags.String("changelog-preset", "", "Changelog preset (angular)")
	cmd.Flags.Bool("no-changelog", false, "Skip changelog generation")
	cmd.Flags.String("preid", "", "Prerelease identifier for prerelease bumps")
	cmd.Flags.String("allow-branch", "", "Glob of branches allowed to version from")
	cmd.Flags.Bool("exact", false, "Write exact dependency versions instead of caret ranges")
	cmd.Flags.Bool("reject-cycles", false, "Fail when the package graph contains a dependency cycle")
	cmd.Flags.Bool("amend", false, "Amend the previous commit instead of creating one")
	cmd.Flags.Bool("no-commit-hooks", false, "Pass --no-verify to git commit and skip lifecycle scripts")
	cmd.Flags.String("git-remote", "", "Remote to push to")
	cmd.Flags.Bool("no-git-tag-version", false, "Skip committing and tagging")
	cmd.Flags.Bool("no-push", false, "Skip pushing the commit and tags")
	cmd.Flags.Bool("sign-git-commit", false, "GPG-sign the release commit")
	cmd.Flags.Bool("sign-git-tag", false, "GPG-sign the release tags")
	cmd.Flags.String("tag-version-prefix", "", "Prefix for fixed-mode tags")
	cmd.Flags.String("message", "", "Commit message template (%s = tag, %v = version)")
	cmd.Flags.String("force-publish", "", "Comma-separated package names to always include, or *")
	cmd.Flags.Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func runVersion(args []string, log *logrus.Logger) error {
	cmd := newVersionCommand(log)
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
	applyVersionFlags(cfg, cmd.Flags)

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
	result, err := runner.Run(context.Background())
	if err != nil {
		return err
	}
	if result.NothingToDo {
		log.WithField("reason", result.Reason).Info("nothing to do")
		return nil
	}

	for _, tag := range result.Tags {
		fmt.Println(tag)
	}
	return nil
}

// applyVersionFlags copies explicitly-set flags over the loaded
// configuration; unset flags leave file and environment values alone.
func applyVersionFlags(cfg *config.Config, fs *flag.FlagSet) {
	if fs.NArg() > 0 {
		cfg.Bump = fs.Arg(0)
	}
	fs.Visit(func(f *flag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "conventional-commits":
			cfg.ConventionalCommits = parseBool(value)
		case "changelog-preset":
			cfg.ChangelogPreset = value
		case "no-changelog":
			cfg.Changelog = !parseBool(value)
		case "preid":
			cfg.Preid = value
		case "allow-branch":
			cfg.AllowBranch = splitList(value)
		case "exact":
			cfg.Exact = parseBool(value)
		case "reject-cycles":
			cfg.RejectCycles = parseBool(value)
		case "amend":
			cfg.Amend = parseBool(value)
		case "no-commit-hooks":
			cfg.CommitHooks = !parseBool(value)
		case "git-remote":
			cfg.GitRemote = value
		case "no-git-tag-version":
			cfg.GitTagVersion = !parseBool(value)
		case "no-push":
			cfg.Push = !parseBool(value)
		case "sign-git-commit":
			cfg.SignGitCommit = parseBool(value)
		case "sign-git-tag":
			cfg.SignGitTag = parseBool(value)
		case "tag-version-prefix":
			cfg.TagVersionPrefix = value
		case "message":
			cfg.Message = value
		case "force-publish":
			cfg.ForcePublish = splitList(value)
		case "yes":
			cfg.Yes = parseBool(value)
		}
	})
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// findRoot walks up from the working directory looking for lerna.yaml.
func findRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", config.FileName, dir)
		}
		dir = parent
	}
}
