package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarah-happy/tote/pkg/blob"
)

type memStore struct {
	m map[blob.Digest][]byte
}

func newMemStore() *memStore { return &memStore{m: map[blob.Digest][]byte{}} }

func (s *memStore) Save(data []byte) (blob.Digest, error) {
	d := blob.Sum(data)
	cp := append([]byte(nil), data...)
	s.m[d] = cp
	return d, nil
}

func (s *memStore) Load(d blob.Digest) ([]byte, error) {
	b, ok := s.m[d]
	if !ok {
		return nil, blob.ErrInvalidDigest
	}
	return b, nil
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	store := newMemStore()
	plaintext := []byte("hello, tote")

	d, err := Encode(store, plaintext)
	require.NoError(t, err)
	assert.Equal(t, LockAES256CTR, d.Lock)
	assert.Equal(t, blob.Sum(plaintext), d.SHA256)
	assert.EqualValues(t, len(plaintext), d.Size)

	got, err := Decode(store, d)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncodeEmpty(t *testing.T) {
	store := newMemStore()
	d, err := Encode(store, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, d.Size)

	got, err := Decode(store, d)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeIdempotentDeduplicates(t *testing.T) {
	store := newMemStore()
	plaintext := []byte("same content, twice")

	d1, err := Encode(store, plaintext)
	require.NoError(t, err)
	blobCount := len(store.m)

	d2, err := Encode(store, plaintext)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, store.m, blobCount, "second encode of identical content must not add a blob")
}

func TestDecodeUnknownLock(t *testing.T) {
	store := newMemStore()
	_, err := Decode(store, Descriptor{Lock: "rot13"})
	var unknownLock ErrUnknownLock
	assert.ErrorAs(t, err, &unknownLock)
}

func TestDecodeMissingBlobTag(t *testing.T) {
	store := newMemStore()
	d, err := store.Save([]byte("not a blob"))
	require.NoError(t, err)

	key := blob.Sum([]byte("not a blob"))
	_, err = Decode(store, Descriptor{Lock: LockAES256CTR, Data: d, Key: string(key)})
	var bad ErrBadBlob
	assert.ErrorAs(t, err, &bad)
}

func TestLargeChunkCompresses(t *testing.T) {
	store := newMemStore()
	plaintext := make([]byte, 1<<20)
	for i := range plaintext {
		plaintext[i] = 'A'
	}

	d, err := Encode(store, plaintext)
	require.NoError(t, err)

	stored, err := store.Load(d.Data)
	require.NoError(t, err)
	assert.Less(t, len(stored), len(plaintext), "highly compressible data should shrink")

	got, err := Decode(store, d)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}
