package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jj88-npm/lerna/pkg/semverutil"
)

// FileName is the repository-level configuration file.
const FileName = "lerna.yaml"

// ModeIndependent is the sentinel value of the version field selecting
// independent versioning.
const ModeIndependent = "independent"

// Config holds every recognized option for the versioning flow.
type Config struct {
	// RootPath is the repository root containing lerna.yaml.
	RootPath string

	// Version is the fixed-mode repository version, or "independent".
	Version string

	// Packages are workspace globs locating package manifests.
	Packages []string

	// Bump is an explicit version literal or increment keyword from the
	// command line. Empty means "decide another way".
	Bump string

	ConventionalCommits bool
	Preid               string
	AllowBranch         []string
	Exact               bool
	RejectCycles        bool
	Amend               bool
	CommitHooks         bool
	GitRemote           string
	GitTagVersion       bool
	Push                bool
	SignGitCommit       bool
	SignGitTag          bool
	TagVersionPrefix    string
	Message             string
	Changelog           bool
	ChangelogPreset     string
	Yes                 bool
	CI                  bool
	ForcePublish        []string
}

// Independent reports whether packages version independently.
func (c *Config) Independent() bool {
	return c.Version == ModeIndependent
}

// Mode returns "independent" or "fixed".
func (c *Config) Mode() string {
	if c.Independent() {
		return ModeIndependent
	}
	return "fixed"
}

// Load reads configuration for the repository rooted at root, layering
// defaults, lerna.yaml and LERNA_* environment variables.
func Load(root string) (*Config, error) {
	cfg := defaults(root)

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	file.apply(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults(root string) *Config {
	return &Config{
		RootPath:         root,
		Version:          "0.0.0",
		Packages:         []string{"packages/*"},
		CommitHooks:      true,
		GitRemote:        "origin",
		GitTagVersion:    true,
		Push:             true,
		TagVersionPrefix: "v",
		Changelog:        true,
	}
}

// Validate checks invariants that cannot be expressed structurally.
func (c *Config) Validate() error {
	if c.Version != ModeIndependent {
		if _, err := semverutil.Parse(c.Version); err != nil {
			return fmt.Errorf("version field: %w", err)
		}
	}
	if len(c.Packages) == 0 {
		return fmt.Errorf("packages must not be empty")
	}
	if c.GitRemote == "" {
		return fmt.Errorf("gitRemote must not be empty")
	}
	return nil
}

// SaveVersion rewrites the version field of lerna.yaml in place, preserving
// comments and key order, and updates c.Version.
func (c *Config) SaveVersion(version string) error {
	path := filepath.Join(c.RootPath, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", FileName, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", FileName, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("%s: expected a top-level mapping", FileName)
	}

	mapping := doc.Content[0]
	found := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "version" {
			mapping.Content[i+1].SetString(version)
			found = true
			break
		}
	}
	if !found {
		var key, value yaml.Node
		key.SetString("version")
		value.SetString(version)
		mapping.Content = append(mapping.Content, &key, &value)
	}

	var out strings.Builder
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode %s: %w", FileName, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", FileName, err)
	}

	c.Version = version
	return nil
}

// ConfigPath returns the absolute path of the repository config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.RootPath, FileName)
}

func applyEnv(cfg *Config) {
	cfg.GitRemote = getEnv("LERNA_GIT_REMOTE", cfg.GitRemote)
	cfg.Preid = getEnv("LERNA_PREID", cfg.Preid)
	cfg.CI = getEnvBool("CI", cfg.CI)
}

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns the environment value parsed as a bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
