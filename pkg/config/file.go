package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the lerna.yaml layout.
type fileConfig struct {
	Version  string      `yaml:"version"`
	Packages flexStrings `yaml:"packages"`
	Command  struct {
		Version versionOptions `yaml:"version"`
	} `yaml:"command"`
}

// versionOptions are the `command: version:` options. Pointer fields
// distinguish "unset" from an explicit false.
type versionOptions struct {
	ConventionalCommits *bool       `yaml:"conventionalCommits"`
	Preid               string      `yaml:"preid"`
	AllowBranch         flexStrings `yaml:"allowBranch"`
	Exact               *bool       `yaml:"exact"`
	RejectCycles        *bool       `yaml:"rejectCycles"`
	Amend               *bool       `yaml:"amend"`
	CommitHooks         *bool       `yaml:"commitHooks"`
	GitRemote           string      `yaml:"gitRemote"`
	GitTagVersion       *bool       `yaml:"gitTagVersion"`
	Push                *bool       `yaml:"push"`
	SignGitCommit       *bool       `yaml:"signGitCommit"`
	SignGitTag          *bool       `yaml:"signGitTag"`
	TagVersionPrefix    *string     `yaml:"tagVersionPrefix"`
	Message             string      `yaml:"message"`
	Changelog           *bool       `yaml:"changelog"`
	ChangelogPreset     string      `yaml:"changelogPreset"`
	Yes                 *bool       `yaml:"yes"`
	ForcePublish        flexStrings `yaml:"forcePublish"`
}

func (f *fileConfig) apply(cfg *Config) {
	if f.Version != "" {
		cfg.Version = f.Version
	}
	if len(f.Packages) > 0 {
		cfg.Packages = f.Packages
	}

	v := f.Command.Version
	setBool(&cfg.ConventionalCommits, v.ConventionalCommits)
	setBool(&cfg.Exact, v.Exact)
	setBool(&cfg.RejectCycles, v.RejectCycles)
	setBool(&cfg.Amend, v.Amend)
	setBool(&cfg.CommitHooks, v.CommitHooks)
	setBool(&cfg.GitTagVersion, v.GitTagVersion)
	setBool(&cfg.Push, v.Push)
	setBool(&cfg.SignGitCommit, v.SignGitCommit)
	setBool(&cfg.SignGitTag, v.SignGitTag)
	setBool(&cfg.Changelog, v.Changelog)
	setBool(&cfg.Yes, v.Yes)

	if v.Preid != "" {
		cfg.Preid = v.Preid
	}
	if len(v.AllowBranch) > 0 {
		cfg.AllowBranch = v.AllowBranch
	}
	if v.GitRemote != "" {
		cfg.GitRemote = v.GitRemote
	}
	if v.TagVersionPrefix != nil {
		cfg.TagVersionPrefix = *v.TagVersionPrefix
	}
	if v.Message != "" {
		cfg.Message = v.Message
	}
	if v.ChangelogPreset != "" {
		cfg.ChangelogPreset = v.ChangelogPreset
	}
	if len(v.ForcePublish) > 0 {
		cfg.ForcePublish = v.ForcePublish
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// flexStrings accepts either a scalar or a sequence of strings, so
// `allowBranch: main` and `allowBranch: [main, release/*]` both parse.
type flexStrings []string

func (f *flexStrings) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*f = []string{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*f = list
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}
