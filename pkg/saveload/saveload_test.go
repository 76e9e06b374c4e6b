package saveload

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarah-happy/tote/pkg/blobstore"
	"github.com/sarah-happy/tote/pkg/item"
)

func newStore(t *testing.T) *blobstore.Store {
	t.Helper()
	s, err := blobstore.Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSaveStreamEmpty(t *testing.T) {
	store := newStore(t)
	res, err := SaveStream(store, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, res.Content)
	assert.Zero(t, res.Size)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", res.SHA256)
}

func TestSaveStreamHello(t *testing.T) {
	store := newStore(t)
	res, err := SaveStream(store, bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.EqualValues(t, 5, res.Size)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", res.SHA256)
}

func TestSaveStream10MiBIsSingleChunk(t *testing.T) {
	store := newStore(t)
	data := bytes.Repeat([]byte{'A'}, 10*1024*1024)
	res, err := SaveStream(store, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, res.Content, 1) // well under ChunkSize (2^24 = 16MiB)
	assert.EqualValues(t, len(data), res.Size)
}

func TestSaveFileAndLoadContentRoundTrip(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "x")
	require.NoError(t, os.WriteFile(path, []byte("22"), 0o644))

	it, err := SaveFile(store, path, "a/x")
	require.NoError(t, err)
	assert.Equal(t, item.TypeFile, it.Type)
	assert.Equal(t, "a/x", it.Name)

	r := LoadContent(store, it)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "22", buf.String())
}

func TestSaveFileMissing(t *testing.T) {
	store := newStore(t)
	it, err := SaveFile(store, filepath.Join(t.TempDir(), "nope"), "nope")
	require.NoError(t, err)
	assert.Equal(t, item.TypeMissing, it.Type)
}

func TestSaveFileDir(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	it, err := SaveFile(store, dir, "d")
	require.NoError(t, err)
	assert.Equal(t, item.TypeDir, it.Type)
}

func TestSaveFileSymlink(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	it, err := SaveFile(store, link, "link")
	require.NoError(t, err)
	assert.Equal(t, item.TypeLink, it.Type)
	assert.Equal(t, target, it.Target)
}

func TestExtractFileRoundTrip(t *testing.T) {
	store := newStore(t)
	src := filepath.Join(t.TempDir(), "x")
	require.NoError(t, os.WriteFile(src, []byte("hello world"), 0o644))

	it, err := SaveFile(store, src, "a/x")
	require.NoError(t, err)

	dst := t.TempDir()
	require.NoError(t, ExtractFile(store, item.Dir("a", *it.MTime), dst))
	require.NoError(t, ExtractFile(store, it, dst))

	got, err := os.ReadFile(filepath.Join(dst, "a", "x"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestExtractFoldRejected(t *testing.T) {
	store := newStore(t)
	err := ExtractFile(store, item.Fold(nil, 1, "a", "a"), t.TempDir())
	assert.Error(t, err)
}
