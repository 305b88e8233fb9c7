package gitclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ExecClient runs git as a subprocess in a fixed working directory.
type ExecClient struct {
	dir string
	log *logrus.Logger
}

// NewExecClient creates a Client rooted at dir.
func NewExecClient(dir string, log *logrus.Logger) *ExecClient {
	if log == nil {
		log = logrus.New()
	}
	return &ExecClient{dir: dir, log: log}
}

// run executes git with args and returns trimmed stdout. stderr is attached
// to the returned error.
func (c *ExecClient) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.WithField("args", strings.Join(args, " ")).Debug("git")

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// exitedWith reports whether err is a git process that ran and exited
// nonzero with one of the given stderr fragments. A missing binary or a
// failure to spawn never matches, so those surface to the caller.
func exitedWith(err error, fragments ...string) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range fragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func (c *ExecClient) HasCommits(ctx context.Context) (bool, error) {
	_, err := c.run(ctx, "rev-parse", "--verify", "HEAD")
	switch {
	case err == nil:
		return true, nil
	case exitedWith(err, "needed a single revision", "unknown revision"):
		// rev-parse cannot resolve HEAD in an empty repository.
		return false, nil
	default:
		return false, err
	}
}

func (c *ExecClient) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		// Detached HEAD.
		return "", nil
	}
	return out, nil
}

func (c *ExecClient) RemoteBranchExists(ctx context.Context, remote, branch string) (bool, error) {
	out, err := c.run(ctx, "ls-remote", "--heads", remote, branch)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (c *ExecClient) BehindUpstream(ctx context.Context, remote, branch string) (int, error) {
	upstream := remote + "/" + branch
	if _, err := c.run(ctx, "rev-parse", "--verify", upstream); err != nil {
		// No upstream ref fetched; nothing to be behind of.
		return 0, nil
	}
	out, err := c.run(ctx, "rev-list", "--count", "HEAD.."+upstream)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}

func (c *ExecClient) IsClean(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out == "", nil
}

func (c *ExecClient) Add(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := c.run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

func (c *ExecClient) Commit(ctx context.Context, message string, opts CommitOptions) error {
	args := []string{"commit", "-m", message}
	if opts.Amend {
		args = append(args, "--amend", "--no-edit")
	}
	if opts.Sign {
		args = append(args, "--gpg-sign")
	}
	if opts.NoVerify {
		args = append(args, "--no-verify")
	}
	_, err := c.run(ctx, args...)
	return err
}

func (c *ExecClient) Tag(ctx context.Context, name string, opts TagOptions) error {
	args := []string{"tag", name, "-m", name}
	if opts.Sign {
		args = append(args, "--sign")
	}
	_, err := c.run(ctx, args...)
	return err
}

func (c *ExecClient) Push(ctx context.Context, remote, branch string, followTags bool) error {
	args := []string{"push"}
	if followTags {
		args = append(args, "--follow-tags")
	}
	args = append(args, remote, branch)
	_, err := c.run(ctx, args...)
	return err
}

func (c *ExecClient) LastTag(ctx context.Context, pattern string) (string, error) {
	args := []string{"describe", "--tags", "--abbrev=0"}
	if pattern != "" {
		args = append(args, "--match", pattern)
	}
	out, err := c.run(ctx, args...)
	switch {
	case err == nil:
		return out, nil
	case exitedWith(err, "no names found", "no tags can describe", "not a valid object name"):
		// describe found nothing matching the pattern.
		return "", nil
	default:
		return "", err
	}
}

func (c *ExecClient) HasChangesSince(ctx context.Context, ref, path string) (bool, error) {
	subjects, err := c.SubjectsSince(ctx, ref, path)
	if err != nil {
		return false, err
	}
	return len(subjects) > 0, nil
}

func (c *ExecClient) SubjectsSince(ctx context.Context, ref, path string) ([]string, error) {
	args := []string{"log", "--format=%s"}
	if ref != "" {
		args = append(args, ref+"..HEAD")
	}
	if path != "" {
		args = append(args, "--", path)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
