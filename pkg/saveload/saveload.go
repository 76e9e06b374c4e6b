// Package saveload streams a file or byte source into a sequence of chunks
// producing a file item, and restores a byte stream (or whole file tree)
// from items (§4.3).
//
// Grounded on the teacher's schema.WriteFileFromReader/WriteFileMap (chunked
// upload accumulating a content list, size and digest) and DirReader/
// FileReader on the read side, adapted from Perkeep's rolling-checksum or
// fixed-1MB chunking down to tote's fixed 2^24-byte slices, and from
// original_source/tote/save.py's save_file/save_stream/load_content.
package saveload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/sarah-happy/tote/pkg/chunk"
	"github.com/sarah-happy/tote/pkg/item"
)

// ChunkSize is the fixed slice size save_stream reads from its source before
// handing each slice to the chunk codec (§4.3).
const ChunkSize = 1 << 24

// StreamResult holds the fields save_stream produces for a file item.
type StreamResult struct {
	Content []chunk.Descriptor
	Size    int64
	SHA256  string
}

// SaveStream reads r in fixed ChunkSize slices until EOF, passing each slice
// through the chunk codec and accumulating the content list, total length
// and a running SHA-256 over the plaintext. An empty source produces an
// empty content list, size 0 and the digest of the empty string (§8 S1).
func SaveStream(store chunk.Store, r io.Reader) (StreamResult, error) {
	h := sha256.New()
	var content []chunk.Descriptor
	var size int64

	buf := make([]byte, ChunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			slice := buf[:n]
			h.Write(slice)
			size += int64(n)
			d, encErr := chunk.Encode(store, slice)
			if encErr != nil {
				return StreamResult{}, fmt.Errorf("saveload: encode chunk: %w", encErr)
			}
			content = append(content, d)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return StreamResult{}, fmt.Errorf("saveload: read source: %w", err)
		}
	}

	return StreamResult{Content: content, Size: size, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// SaveFile lstats path and branches on its kind: symlink -> link item,
// regular file -> file item via SaveStream, directory -> dir item, missing
// -> missing item, anything else -> other item (§4.3). Any other failure
// (lstat, readlink, open, or reading and storing the content) is returned
// as an error; checkin's caller attaches such errors to the item's Error
// field (§7 ItemSaveIO).
func SaveFile(store chunk.Store, path, name string) (item.Item, error) {
	fi, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return item.Missing(name), nil
	}
	if err != nil {
		return item.Item{}, fmt.Errorf("saveload: lstat %q: %w", path, err)
	}

	mtime := item.NewTime(fi.ModTime())

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return item.Item{}, fmt.Errorf("saveload: readlink %q: %w", path, err)
		}
		return item.Link(name, mtime, target), nil

	case fi.IsDir():
		return item.Dir(name, mtime), nil

	case fi.Mode().IsRegular():
		f, err := os.Open(path)
		if err != nil {
			return item.Item{}, fmt.Errorf("saveload: open %q: %w", path, err)
		}
		defer f.Close()

		result, err := SaveStream(store, f)
		if err != nil {
			return item.Item{}, err
		}
		return item.File(name, mtime, result.Size, result.SHA256, result.Content), nil

	default:
		return item.Other(name), nil
	}
}

// ContentReader is a lazy io.Reader over a file item's content list: it
// decodes chunks on demand as Read is called, rather than materializing the
// whole file in memory (§4.3 load_content).
type ContentReader struct {
	store   chunk.Store
	content []chunk.Descriptor
	idx     int
	cur     []byte
}

// NewContentReader returns a reader over the plaintext bytes described by content.
func NewContentReader(store chunk.Store, content []chunk.Descriptor) *ContentReader {
	return &ContentReader{store: store, content: content}
}

func (r *ContentReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		if r.idx >= len(r.content) {
			return 0, io.EOF
		}
		b, err := chunk.Decode(r.store, r.content[r.idx])
		if err != nil {
			return 0, fmt.Errorf("saveload: decode chunk %d: %w", r.idx, err)
		}
		r.idx++
		r.cur = b
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

// LoadContent returns a lazy reader over it's content chunks.
func LoadContent(store chunk.Store, it item.Item) *ContentReader {
	return NewContentReader(store, it.Content)
}
