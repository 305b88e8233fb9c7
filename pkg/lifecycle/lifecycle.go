package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvEvent names the environment variable marking which lifecycle event a
// child process was spawned from. It is used to suppress recursive
// re-invocation of the same event.
const EnvEvent = "LERNA_LIFECYCLE_EVENT"

// Stage names invoked by the versioning pipeline.
const (
	StagePreversion  = "preversion"
	StageVersion     = "version"
	StagePostversion = "postversion"
)

// Runner executes a named lifecycle script for a package directory.
type Runner interface {
	// Run executes the script declared under dir's manifest. Packages that
	// do not declare the script are skipped silently.
	Run(ctx context.Context, dir, script string) error
}

// ScriptRunner runs manifest "scripts" entries through the shell.
type ScriptRunner struct {
	enabled bool
	log     *logrus.Logger
}

// NewScriptRunner creates a Runner. When enabled is false every Run is a
// no-op, matching the commitHooks=false configuration.
func NewScriptRunner(enabled bool, log *logrus.Logger) *ScriptRunner {
	if log == nil {
		log = logrus.New()
	}
	return &ScriptRunner{enabled: enabled, log: log}
}

// NestedEvent reports whether the current process was itself spawned from
// the named lifecycle event.
func NestedEvent(script string) bool {
	return os.Getenv(EnvEvent) == script
}

func (r *ScriptRunner) Run(ctx context.Context, dir, script string) error {
	if !r.enabled {
		return nil
	}

	command, err := lookupScript(dir, script)
	if err != nil {
		return err
	}
	if command == "" {
		return nil
	}

	r.log.WithFields(logrus.Fields{
		"dir":    dir,
		"script": script,
	}).Info("running lifecycle script")

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), EnvEvent+"="+script)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("lifecycle %s in %s: %w: %s",
			script, dir, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// lookupScript reads the scripts map straight from dir's package.json. The
// manifest may have been rewritten since the graph was built, so it is read
// fresh every time.
func lookupScript(dir, script string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read manifest in %s: %w", dir, err)
	}

	var manifest struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("parse manifest in %s: %w", dir, err)
	}
	return manifest.Scripts[script], nil
}
