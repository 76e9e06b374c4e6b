package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAtRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))

	w, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Path)
}

func TestFindFromNestedSubdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))
	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	w, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Path)
}

func TestFindNotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorePathDefaultsUnderDotTote(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))

	w, err := Attach(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".tote"), w.StorePath())
}

func TestStorePathFromConfigRelative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tote", "config"), []byte("[store]\npath = ../blobs\n"), 0o644))

	w, err := Attach(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(filepath.Join(dir, "..", "blobs")), w.StorePath())
}

func TestStorePathFromConfigAbsolute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))
	abs := filepath.Join(t.TempDir(), "elsewhere")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tote", "config"), []byte("[store]\npath = "+abs+"\n"), 0o644))

	w, err := Attach(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, w.StorePath())
}

func TestStorePathExpandsEnvVar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))
	t.Setenv("TOTE_TEST_STORE_DIR", "mystore")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tote", "config"), []byte("[store]\npath = $TOTE_TEST_STORE_DIR\n"), 0o644))

	w, err := Attach(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mystore"), w.StorePath())
}

func TestAttachMissingConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))

	w, err := Attach(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".tote"), w.StorePath())
}

func TestCheckinDirPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".tote"), 0o755))
	w, err := Attach(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".tote", "checkin", "default"), w.CheckinDirPath("default"))
}
