package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Choice is one selectable next version.
type Choice struct {
	Label   string // e.g. "patch"
	Version string // e.g. "1.2.4"
}

// Prompter asks the user for versioning decisions. Implementations must be
// safe to call sequentially; the release flow never issues two prompts at
// once.
type Prompter interface {
	// SelectVersion asks which version pkg should move to and returns the
	// chosen version string.
	SelectVersion(ctx context.Context, pkg, current string, choices []Choice) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string) (bool, error)
}

// New returns the richest Prompter the environment supports: the full-screen
// selector when stdin is a terminal, otherwise a line-based fallback.
func New() Prompter {
	if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return &TeaPrompter{}
	}
	return NewTerminalPrompter(os.Stdin, os.Stderr)
}

// TerminalPrompter reads selections line by line. It serves non-TTY stdin
// (pipes, tests) where a full-screen prompt cannot render.
type TerminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewTerminalPrompter creates a line-based Prompter.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewScanner(in), out: out}
}

func (p *TerminalPrompter) SelectVersion(ctx context.Context, pkg, current string, choices []Choice) (string, error) {
	fmt.Fprintf(p.out, "Select a new version for %s (currently %s)\n", pkg, current)
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s (%s)\n", i+1, c.Label, c.Version)
	}
	fmt.Fprintf(p.out, "Enter a number or an explicit version: ")

	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(choices) {
			return "", fmt.Errorf("selection %d out of range", n)
		}
		return choices[n-1].Version, nil
	}
	return strings.TrimPrefix(line, "v"), nil
}

func (p *TerminalPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	fmt.Fprintf(p.out, "%s (y/N) ", message)
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}
