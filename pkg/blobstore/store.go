// Package blobstore implements the on-disk blob store: a write-once
// key→bytes map keyed by the SHA-256 digest of the stored bytes, persisted
// under a two-level sharded directory layout.
//
// Grounded on camlistore/perkeep's pkg/blobserver/localdisk, adapted from a
// multi-hash pluggable blobserver.Storage implementation down to the single
// SHA-256 scheme this format uses, and from ReceiveBlob's temp-file-then-link
// dance down to a plain write-.part-then-rename (§4.1).
package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sarah-happy/tote/pkg/blob"
)

// ErrNotFound is returned by Load and Size when the digest isn't in the store.
var ErrNotFound = errors.New("blobstore: not found")

// Store is a sharded, write-once blob store rooted at a directory.
type Store struct {
	root string
}

// Open returns a Store rooted at dir, creating dir if it doesn't exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("blobstore: open %q: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// directory returns the sharded directory holding d's blob file.
func (s *Store) directory(d blob.Digest) (string, error) {
	l1, l2, err := d.ShardPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, l1, l2), nil
}

func (s *Store) path(d blob.Digest) (string, error) {
	dir, err := s.directory(d)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, string(d)), nil
}

// Save computes the SHA-256 digest of data and stores it. If a blob already
// exists under that digest, Save is a no-op beyond computing and returning
// the digest (idempotent on duplicate content).
func (s *Store) Save(data []byte) (blob.Digest, error) {
	d := blob.Sum(data)
	dir, err := s.directory(d)
	if err != nil {
		return "", err
	}
	target, err := s.path(d)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(target); err == nil {
		return d, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("blobstore: stat %q: %w", target, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("blobstore: mkdir %q: %w", dir, err)
	}

	// Use a per-writer unique temp name so concurrent writers racing to
	// store identical content never share a single ".part" file descriptor.
	part := target + ".part-" + uuid.NewString()
	if err := os.WriteFile(part, data, 0o600); err != nil {
		os.Remove(part)
		return "", fmt.Errorf("blobstore: write %q: %w", part, err)
	}
	if err := os.Rename(part, target); err != nil {
		os.Remove(part)
		return "", fmt.Errorf("blobstore: rename %q: %w", part, err)
	}
	return d, nil
}

// Load returns the stored bytes for d.
func (s *Store) Load(d blob.Digest) ([]byte, error) {
	path, err := s.path(d)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blobstore: load %s: %w", d, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: load %s: %w", d, err)
	}
	return b, nil
}

// Size returns the byte length of the stored blob for d.
func (s *Store) Size(d blob.Digest) (int64, error) {
	path, err := s.path(d)
	if err != nil {
		return 0, err
	}
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("blobstore: size %s: %w", d, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("blobstore: size %s: %w", d, err)
	}
	return fi.Size(), nil
}

// Has reports whether d is already stored.
func (s *Store) Has(d blob.Digest) (bool, error) {
	path, err := s.path(d)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
