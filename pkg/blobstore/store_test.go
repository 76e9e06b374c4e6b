package blobstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarah-happy/tote/pkg/blob"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	d, err := s.Save([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, blob.MustParse("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"), d)

	got, err := s.Load(d)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	size, err := s.Size(d)
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)
}

func TestSaveIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	d1, err := s.Save([]byte("same"))
	require.NoError(t, err)
	d2, err := s.Save([]byte("same"))
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	path, err := s.path(d1)
	require.NoError(t, err)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 4, fi.Size())
}

func TestShardLayout(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	d, err := s.Save([]byte("hello"))
	require.NoError(t, err)

	want := filepath.Join(root, "2", "2cf", string(d))
	_, err = os.Stat(want)
	assert.NoError(t, err, "expected blob at sharded path %s", want)
}

func TestLoadMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(blob.Sum([]byte("nope")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNoPartFilesLeftBehind(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	require.NoError(t, err)

	_, err = s.Save([]byte("clean"))
	require.NoError(t, err)

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			assert.NotContains(t, path, ".part-")
		}
		return nil
	})
	require.NoError(t, err)
}
