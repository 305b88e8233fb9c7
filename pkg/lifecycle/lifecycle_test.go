package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, scripts string) string {
	t.Helper()
	dir := t.TempDir()
	manifest := `{"name": "pkg-a", "version": "1.0.0"`
	if scripts != "" {
		manifest += `, "scripts": ` + scripts
	}
	manifest += `}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0644))
	return dir
}

func TestScriptRunner_RunsScript(t *testing.T) {
	dir := writePackage(t, `{"version": "touch ran-version"}`)
	r := NewScriptRunner(true, nil)

	require.NoError(t, r.Run(context.Background(), dir, StageVersion))
	_, err := os.Stat(filepath.Join(dir, "ran-version"))
	assert.NoError(t, err, "script runs in the package directory")
}

func TestScriptRunner_UndeclaredScriptSkipped(t *testing.T) {
	dir := writePackage(t, `{"build": "false"}`)
	r := NewScriptRunner(true, nil)
	assert.NoError(t, r.Run(context.Background(), dir, StagePreversion))
}

func TestScriptRunner_MissingManifestSkipped(t *testing.T) {
	r := NewScriptRunner(true, nil)
	assert.NoError(t, r.Run(context.Background(), t.TempDir(), StageVersion))
}

func TestScriptRunner_FailureSurfaces(t *testing.T) {
	dir := writePackage(t, `{"preversion": "echo boom >&2; exit 1"}`)
	r := NewScriptRunner(true, nil)

	err := r.Run(context.Background(), dir, StagePreversion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preversion")
	assert.Contains(t, err.Error(), "boom")
}

func TestScriptRunner_Disabled(t *testing.T) {
	dir := writePackage(t, `{"version": "exit 1"}`)
	r := NewScriptRunner(false, nil)
	assert.NoError(t, r.Run(context.Background(), dir, StageVersion))
}

func TestScriptRunner_ExportsEvent(t *testing.T) {
	dir := writePackage(t, `{"version": "printf %s \"$LERNA_LIFECYCLE_EVENT\" > event"}`)
	r := NewScriptRunner(true, nil)

	require.NoError(t, r.Run(context.Background(), dir, StageVersion))
	data, err := os.ReadFile(filepath.Join(dir, "event"))
	require.NoError(t, err)
	assert.Equal(t, "version", string(data))
}

func TestNestedEvent(t *testing.T) {
	assert.False(t, NestedEvent(StageVersion))

	t.Setenv(EnvEvent, StageVersion)
	assert.True(t, NestedEvent(StageVersion))
	assert.False(t, NestedEvent(StagePostversion))
}
