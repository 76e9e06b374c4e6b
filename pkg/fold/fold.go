// Package fold packs a long item sequence into page-bounded fold items and
// expands fold items back into their constituents (§4.6, §3 GLOSSARY "fold").
//
// Grounded on original_source/tote/save.py's fold/save_fold/unfold, expressed
// in the teacher's chunked-upload idiom (schema.WriteFileMap accumulating a
// content list before a single store write) with the item stream encoded via
// pkg/item's "---"-delimited text format rather than save.py's bespoke
// tojsons framing.
package fold

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sarah-happy/tote/pkg/chunk"
	"github.com/sarah-happy/tote/pkg/item"
)

// DefaultPageSize bounds a single fold's encoded content before it is split
// into another page (§4.6: default 4 MiB).
const DefaultPageSize = 1 << 22

// Fold packs items (assumed already sorted) into one or more fold items,
// each holding up to pageSize bytes of encoded item-stream content as a
// single stored chunk. A pageSize of 0 uses DefaultPageSize.
func Fold(items []item.Item, store chunk.Store, pageSize int) ([]item.Item, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var out []item.Item
	var page []item.Item
	pageLen := 0

	flush := func() error {
		if len(page) == 0 {
			return nil
		}
		f, err := saveFold(page, store)
		if err != nil {
			return err
		}
		out = append(out, f)
		page = nil
		pageLen = 0
		return nil
	}

	for _, it := range items {
		var buf bytes.Buffer
		if err := item.EncodeOne(&buf, it); err != nil {
			return nil, fmt.Errorf("fold: encode item %q: %w", it.ItemName(), err)
		}
		partLen := buf.Len()
		if pageLen+partLen > pageSize && len(page) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		page = append(page, it)
		pageLen += partLen
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// saveFold encodes page as a single item stream chunk and wraps it in a fold
// item bounded by the page's first and last canonical names.
func saveFold(page []item.Item, store chunk.Store) (item.Item, error) {
	sorted := make([]item.Item, len(page))
	copy(sorted, page)
	item.SortByName(sorted)

	var buf bytes.Buffer
	if err := item.EncodeStream(&buf, sorted); err != nil {
		return item.Item{}, fmt.Errorf("fold: encode page: %w", err)
	}
	d, err := chunk.Encode(store, buf.Bytes())
	if err != nil {
		return item.Item{}, fmt.Errorf("fold: store page: %w", err)
	}
	return item.Fold([]chunk.Descriptor{d}, len(sorted), sorted[0].ItemName(), sorted[len(sorted)-1].ItemName()), nil
}

// Unfold expands every fold item in items into its constituents, recursively,
// returning a flat, canonically-sorted sequence with no fold items remaining
// (§4.6, §8 property 3).
func Unfold(items []item.Item, store chunk.Store) ([]item.Item, error) {
	work := make([]item.Item, len(items))
	copy(work, items)
	sortWork(work)

	var out []item.Item
	for len(work) > 0 {
		it := work[0]
		work = work[1:]
		if it.Type != item.TypeFold {
			out = append(out, it)
			continue
		}
		expanded, err := loadFoldContent(it, store)
		if err != nil {
			return nil, fmt.Errorf("fold: expand fold %q: %w", it.ItemName(), err)
		}
		work = append(work, expanded...)
		sortWork(work)
	}
	return out, nil
}

func loadFoldContent(fold item.Item, store chunk.Store) ([]item.Item, error) {
	if len(fold.Content) != 1 {
		return nil, fmt.Errorf("fold item %q must have exactly one content chunk, got %d", fold.ItemName(), len(fold.Content))
	}
	raw, err := chunk.Decode(store, fold.Content[0])
	if err != nil {
		return nil, err
	}
	return item.DecodeStream(bytes.NewReader(raw))
}

func sortWork(items []item.Item) {
	sort.SliceStable(items, func(i, j int) bool { return item.Less(items[i], items[j]) })
}
