package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jj88-npm/lerna/pkg/config"
)

func parseVersionFlags(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	cmd := newVersionCommand(logrus.New())
	require.NoError(t, cmd.Flags.Parse(args))
	return cmd.Flags
}

func TestApplyVersionFlags_Overrides(t *testing.T) {
	cfg := &config.Config{
		Push:        true,
		CommitHooks: true,
		Changelog:   true,
		GitRemote:   "origin",
	}

	fs := parseVersionFlags(t,
		"-conventional-commits",
		"-no-push",
		"-no-commit-hooks",
		"-preid", "rc",
		"-git-remote", "upstream",
		"-message", "chore(release): %s",
		"-allow-branch", "main,release/*",
		"-force-publish", "pkg-a, pkg-b",
		"-yes",
		"minor",
	)
	applyVersionFlags(cfg, fs)

	assert.Equal(t, "minor", cfg.Bump)
	assert.True(t, cfg.ConventionalCommits)
	assert.False(t, cfg.Push)
	assert.False(t, cfg.CommitHooks)
	assert.Equal(t, "rc", cfg.Preid)
	assert.Equal(t, "upstream", cfg.GitRemote)
	assert.Equal(t, "chore(release): %s", cfg.Message)
	assert.Equal(t, []string{"main", "release/*"}, cfg.AllowBranch)
	assert.Equal(t, []string{"pkg-a", "pkg-b"}, cfg.ForcePublish)
	assert.True(t, cfg.Yes)
}

func TestApplyVersionFlags_UnsetFlagsLeaveConfigAlone(t *testing.T) {
	cfg := &config.Config{
		Push:        true,
		CommitHooks: true,
		Changelog:   true,
		GitRemote:   "origin",
		Preid:       "beta",
	}

	fs := parseVersionFlags(t)
	applyVersionFlags(cfg, fs)

	assert.True(t, cfg.Push)
	assert.True(t, cfg.CommitHooks)
	assert.Equal(t, "origin", cfg.GitRemote)
	assert.Equal(t, "beta", cfg.Preid)
	assert.Equal(t, "", cfg.Bump)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , b "))
	assert.Equal(t, []string{"*"}, splitList("*"))
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "packages", "pkg-a")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("version: 1.0.0\n"), 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	require.NoError(t, os.Chdir(nested))
	found, err := findRoot()
	require.NoError(t, err)

	// Symlinked temp dirs make the paths differ textually; resolve both.
	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand(logrus.New())
	assert.Contains(t, root.Subcommands, "version")
	assert.Contains(t, root.Subcommands, "changed")
	assert.Contains(t, root.Subcommands, "ls")
}
