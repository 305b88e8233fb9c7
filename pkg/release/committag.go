package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/gitclient"
	"github.com/jj88-npm/lerna/pkg/lifecycle"
)

// DefaultCommitSubject is the independent-mode commit subject when no
// message template is configured.
const DefaultCommitSubject = "Publish"

// CommitTagger stages the changed files, creates the release commit and its
// tags, optionally pushes, and fires the post-version hooks.
type CommitTagger struct {
	Git       gitclient.Client
	Lifecycle lifecycle.Runner

	Independent bool
	Message     string
	TagPrefix   string
	SignCommit  bool
	SignTag     bool
	Amend       bool
	CommitHooks bool
	Push        bool
	Remote      string
	Branch      string
	RootPath    string

	Log *logrus.Logger
}

// Tags returns the tag names for plan, in stable update order.
func (t *CommitTagger) Tags(plan UpdatePlan) []string {
	if !t.Independent {
		return []string{t.TagPrefix + plan.GlobalVersion}
	}
	tags := make([]string, 0, len(plan.Updates))
	for _, node := range plan.Updates {
		tags = append(tags, node.Name+"@"+plan.Versions[node.Name])
	}
	return tags
}

// commitMessage renders the commit message for the given tags.
func (t *CommitTagger) commitMessage(plan UpdatePlan, tags []string) string {
	if !t.Independent {
		tag := tags[0]
		if t.Message == "" {
			return tag
		}
		msg := strings.ReplaceAll(t.Message, "%s", tag)
		return strings.ReplaceAll(msg, "%v", plan.GlobalVersion)
	}

	subject := t.Message
	if subject == "" {
		subject = DefaultCommitSubject
	}
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString("\n")
	for _, tag := range tags {
		b.WriteString("\n - ")
		b.WriteString(tag)
	}
	return b.String()
}

// Apply commits the changed files and tags the commit. The commit is created
// first so every tag points at it. Post-version hooks run per package, then
// once at the root; a push (when enabled) happens last.
func (t *CommitTagger) Apply(ctx context.Context, plan UpdatePlan, changed []string) ([]string, error) {
	if t.Log == nil {
		t.Log = logrus.New()
	}

	tags := t.Tags(plan)
	message := t.commitMessage(plan, tags)

	if err := t.Git.Add(ctx, changed); err != nil {
		return nil, err
	}
	if err := t.Git.Commit(ctx, message, gitclient.CommitOptions{
		Amend:    t.Amend,
		Sign:     t.SignCommit,
		NoVerify: !t.CommitHooks,
	}); err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if err := t.Git.Tag(ctx, tag, gitclient.TagOptions{Sign: t.SignTag}); err != nil {
			return nil, err
		}
	}
	t.Log.WithField("tags", strings.Join(tags, ", ")).Info("created release commit")

	for _, node := range plan.Updates {
		if err := t.Lifecycle.Run(ctx, node.Dir(), lifecycle.StagePostversion); err != nil {
			return nil, err
		}
	}
	if lifecycle.NestedEvent(lifecycle.StagePostversion) {
		t.Log.WithField("script", lifecycle.StagePostversion).
			Warn("skipping root lifecycle script to avoid recursion")
	} else if err := t.Lifecycle.Run(ctx, t.RootPath, lifecycle.StagePostversion); err != nil {
		return nil, err
	}

	if t.Push {
		if err := t.Git.Push(ctx, t.Remote, t.Branch, true); err != nil {
			return nil, fmt.Errorf("push to %s: %w", t.Remote, err)
		}
		t.Log.WithFields(logrus.Fields{
			"remote": t.Remote,
			"branch": t.Branch,
		}).Info("pushed release commit and tags")
	}

	return tags, nil
}
