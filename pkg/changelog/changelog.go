package changelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/semverutil"
)

// Recommender produces a release-type recommendation for a package by
// inspecting its commit history.
type Recommender interface {
	// Recommend returns one of "major", "minor" or "patch" for the package
	// rooted at dir. sinceTag scopes the inspected history; empty means the
	// full history.
	Recommend(ctx context.Context, name, dir, sinceTag string) (string, error)
}

// Request describes one changelog generation.
type Request struct {
	Mode      string // "fixed" or "independent"
	Preset    string
	RootPath  string
	Name      string // package name; empty for the root changelog
	Dir       string // directory whose CHANGELOG.md is written
	TagPrefix string
	Version   string
	SinceTag  string
}

// Generator writes a changelog section for a resolved version.
type Generator interface {
	// Generate writes the section and returns the path of the file touched.
	Generate(ctx context.Context, req Request) (string, error)
}

var conventionalSubject = regexp.MustCompile(`^(\w+)(\([^)]*\))?(!)?:\s*(.+)$`)

// Conventional implements Recommender and Generator on top of
// conventional-commit subjects read from git history.
type Conventional struct {
	git gitclient.Client
	log *logrus.Logger
	now func() time.Time
}

// NewConventional creates a Conventional backed by git.
func NewConventional(git gitclient.Client, log *logrus.Logger) *Conventional {
	if log == nil {
		log = logrus.New()
	}
	return &Conventional{git: git, log: log, now: time.Now}
}

// Recommend classifies the commits touching dir since sinceTag. Any
// "BREAKING CHANGE" or "!" marker yields major, any feat yields minor,
// everything else (including an empty history) yields patch.
func (c *Conventional) Recommend(ctx context.Context, name, dir, sinceTag string) (string, error) {
	subjects, err := c.git.SubjectsSince(ctx, sinceTag, dir)
	if err != nil {
		return "", fmt.Errorf("inspect history for %s: %w", name, err)
	}

	release := semverutil.ReleasePatch
	for _, subject := range subjects {
		switch classify(subject) {
		case semverutil.ReleaseMajor:
			return semverutil.ReleaseMajor, nil
		case semverutil.ReleaseMinor:
			release = semverutil.ReleaseMinor
		}
	}

	c.log.WithFields(logrus.Fields{
		"package": name,
		"commits": len(subjects),
		"release": release,
	}).Debug("conventional recommendation")

	return release, nil
}

func classify(subject string) string {
	if strings.Contains(subject, "BREAKING CHANGE") {
		return semverutil.ReleaseMajor
	}
	m := conventionalSubject.FindStringSubmatch(subject)
	if m == nil {
		return semverutil.ReleasePatch
	}
	if m[3] == "!" {
		return semverutil.ReleaseMajor
	}
	if m[1] == "feat" {
		return semverutil.ReleaseMinor
	}
	return semverutil.ReleasePatch
}

// Generate prepends a section for req.Version to the CHANGELOG.md in
// req.Dir, grouping conventional subjects by kind.
func (c *Conventional) Generate(ctx context.Context, req Request) (string, error) {
	scope := req.Dir
	if req.Mode == "fixed" && req.Name == "" {
		// Root changelog covers the whole repository.
		scope = ""
	}

	subjects, err := c.git.SubjectsSince(ctx, req.SinceTag, scope)
	if err != nil {
		return "", fmt.Errorf("collect commits: %w", err)
	}

	section := c.renderSection(req.Version, subjects)
	path := filepath.Join(req.Dir, "CHANGELOG.md")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("read changelog: %w", err)
	}

	var out strings.Builder
	out.WriteString(section)
	if len(existing) > 0 {
		out.WriteString("\n")
		out.Write(existing)
	}
	if err := os.WriteFile(path, []byte(out.String()), 0644); err != nil {
		return "", fmt.Errorf("write changelog: %w", err)
	}
	return path, nil
}

func (c *Conventional) renderSection(version string, subjects []string) string {
	groups := map[string][]string{}
	for _, subject := range subjects {
		heading := "Other Changes"
		if m := conventionalSubject.FindStringSubmatch(subject); m != nil {
			switch m[1] {
			case "feat":
				heading = "Features"
			case "fix":
				heading = "Bug Fixes"
			}
		}
		if strings.Contains(subject, "BREAKING CHANGE") {
			heading = "Breaking Changes"
		}
		groups[heading] = append(groups[heading], subject)
	}

	headings := make([]string, 0, len(groups))
	for h := range groups {
		headings = append(headings, h)
	}
	sort.Strings(headings)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s)\n", version, c.now().Format("2006-01-02"))
	for _, heading := range headings {
		fmt.Fprintf(&b, "\n### %s\n\n", heading)
		for _, subject := range groups[heading] {
			fmt.Fprintf(&b, "- %s\n", subject)
		}
	}
	return b.String()
}
