// Package chunk implements the chunk codec: it wraps, compresses, encrypts
// and stores a byte slice as a single blob, and reverses that pipeline given
// a chunk descriptor (§4.2).
//
// Grounded on original_source/tote/save.py's save_chunk/load_chunk, expressed
// in the teacher's schema/filewriter.go idiom of uploading content through a
// blob-receiving store and returning a small descriptor struct.
package chunk

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/sarah-happy/tote/pkg/blob"
)

// LockAES256CTR is the only currently-defined encryption scheme identifier.
const LockAES256CTR = "aes256ctr"

var blobTag = []byte("blob\n")
var zlibTag = []byte("zlib\n")

// ErrBadBlob indicates a stored blob, or its decrypted payload, is missing
// the required "blob\n" tag: corruption or tampering. An unknown lock scheme
// is reported as ErrUnknownLock instead.
type ErrBadBlob struct {
	Reason string
}

func (e ErrBadBlob) Error() string { return "chunk: bad blob: " + e.Reason }

// ErrUnknownLock indicates a descriptor's lock field isn't recognized.
type ErrUnknownLock struct {
	Lock string
}

func (e ErrUnknownLock) Error() string { return fmt.Sprintf("chunk: unknown lock %q", e.Lock) }

// Store is the subset of blobstore.Store the codec depends on.
type Store interface {
	Save(data []byte) (blob.Digest, error)
	Load(d blob.Digest) ([]byte, error)
}

// Descriptor references one stored blob: the chunk's plaintext size and
// digest, the encryption scheme and key, and the digest under which the
// encrypted, compressed bytes are stored.
type Descriptor struct {
	Size   int64       `json:"size"`
	SHA256 blob.Digest `json:"sha256"`
	Lock   string      `json:"lock"`
	Key    string      `json:"key"`
	Data   blob.Digest `json:"data"`
}

// Encode runs plaintext through the chunk pipeline (§4.2 encode steps 1-6)
// and stores the result in store, returning a descriptor that can later
// reconstruct plaintext via Decode.
func Encode(store Store, plaintext []byte) (Descriptor, error) {
	blob0 := addBlobTag(plaintext)

	c := blob0
	if z := compress(blob0); len(z) < len(blob0) {
		c = z
	}

	key := blob.Sum(c)
	keyBytes, err := hexKey(string(key))
	if err != nil {
		return Descriptor{}, err
	}

	encrypted, err := encrypt(c, keyBytes)
	if err != nil {
		return Descriptor{}, err
	}
	e := addBlobTag(encrypted)

	data, err := store.Save(e)
	if err != nil {
		return Descriptor{}, fmt.Errorf("chunk: store encrypted blob: %w", err)
	}

	return Descriptor{
		Size:   int64(len(plaintext)),
		SHA256: blob.Sum(plaintext),
		Lock:   LockAES256CTR,
		Key:    string(key),
		Data:   data,
	}, nil
}

// Decode reverses Encode given a descriptor, reconstructing the original
// plaintext bytes (§4.2 decode steps 1-5).
func Decode(store Store, d Descriptor) ([]byte, error) {
	if d.Lock != LockAES256CTR {
		return nil, ErrUnknownLock{Lock: d.Lock}
	}

	e, err := store.Load(d.Data)
	if err != nil {
		return nil, fmt.Errorf("chunk: load %s: %w", d.Data, err)
	}

	encrypted, err := stripBlobTag(e)
	if err != nil {
		return nil, err
	}

	keyBytes, err := hexKey(d.Key)
	if err != nil {
		return nil, err
	}

	c, err := decryptBytes(encrypted, keyBytes)
	if err != nil {
		return nil, err
	}

	decompressed, err := decompress(c)
	if err != nil {
		return nil, err
	}

	plaintext, err := stripBlobTag(decompressed)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

func addBlobTag(data []byte) []byte {
	out := make([]byte, 0, len(blobTag)+len(data))
	out = append(out, blobTag...)
	out = append(out, data...)
	return out
}

func stripBlobTag(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, blobTag) {
		return nil, ErrBadBlob{Reason: `missing "blob\n" prefix`}
	}
	return data[len(blobTag):], nil
}

func compress(data []byte) []byte {
	var buf bytes.Buffer
	buf.Write(zlibTag)
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		// zlib.BestCompression is always a valid level; unreachable.
		panic(err)
	}
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zlibTag) {
		return data, nil
	}
	r, err := zlib.NewReader(bytes.NewReader(data[len(zlibTag):]))
	if err != nil {
		return nil, fmt.Errorf("chunk: zlib: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// zeroCTR is the all-zero 128-bit initial counter value mandated by §4.2.
// AES-CTR keystreams are deterministic in (key, counter); convergent
// encryption derives the key from the (compressed, tagged) plaintext, so
// the same counter is only ever reused against the same keystream.
var zeroCTR = make([]byte, aes.BlockSize)

func encrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("chunk: aes: %w", err)
	}
	stream := cipher.NewCTR(block, zeroCTR)
	out := make([]byte, len(data))
	stream.XORKeyStream(out, data)
	return out, nil
}

func decryptBytes(data []byte, key []byte) ([]byte, error) {
	// AES-CTR is its own inverse.
	return encrypt(data, key)
}

func hexKey(hexStr string) ([]byte, error) {
	if len(hexStr) != 64 {
		return nil, fmt.Errorf("chunk: key must be 32 bytes hex, got %d chars", len(hexStr))
	}
	out, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("chunk: decode key: %w", err)
	}
	return out, nil
}
