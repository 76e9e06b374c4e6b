package saveload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sarah-happy/tote/pkg/chunk"
	"github.com/sarah-happy/tote/pkg/item"
)

// ExtractFile materializes it beneath base (§4.3). Fold items must already
// be unfolded by the caller (pkg/fold.Unfold); ExtractFile rejects them.
func ExtractFile(store chunk.Store, it item.Item, base string) error {
	target := filepath.Join(base, filepath.FromSlash(it.Name))

	switch it.Type {
	case item.TypeDir:
		return os.MkdirAll(target, 0o755)

	case item.TypeFile:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("saveload: mkdir for %q: %w", target, err)
		}
		return extractFileAtomic(store, it, target)

	case item.TypeLink:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("saveload: mkdir for %q: %w", target, err)
		}
		os.Remove(target)
		return os.Symlink(it.Target, target)

	case item.TypeMissing, item.TypeOther:
		return nil

	case item.TypeFold:
		return fmt.Errorf("saveload: extract %q: fold items must be unfolded first", it.ItemName())

	default:
		return fmt.Errorf("saveload: extract %q: unhandled item type %q", it.ItemName(), it.Type)
	}
}

func extractFileAtomic(store chunk.Store, it item.Item, target string) error {
	part := target + ".part-" + uuid.NewString()
	f, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("saveload: create %q: %w", part, err)
	}

	_, copyErr := io.Copy(f, LoadContent(store, it))
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(part)
		return fmt.Errorf("saveload: write %q: %w", target, copyErr)
	}
	if closeErr != nil {
		os.Remove(part)
		return fmt.Errorf("saveload: close %q: %w", part, closeErr)
	}
	if err := os.Rename(part, target); err != nil {
		os.Remove(part)
		return fmt.Errorf("saveload: rename %q: %w", target, err)
	}
	return nil
}
