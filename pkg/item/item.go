// Package item defines the item record variants (file, dir, link, missing,
// fold) that make up an item stream, and the canonical name ordering used to
// scan, merge and fold them (§3).
//
// Grounded on the teacher's pkg/schema (a tagged, JSON-backed schema blob
// with a Builder for mutation) generalized from Perkeep's many claim/share/
// permanode camliTypes down to tote's five file-tree variants, and on
// original_source/tote/save.py's itemname/itemkey/pathkey for the ordering.
package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sarah-happy/tote/pkg/chunk"
)

// Known type tags (§3).
const (
	TypeFile    = "file"
	TypeDir     = "dir"
	TypeLink    = "link"
	TypeMissing = "missing"
	TypeOther   = "other"
	TypeFold    = "fold"
)

var knownTypes = map[string]bool{
	TypeFile: true, TypeDir: true, TypeLink: true,
	TypeMissing: true, TypeOther: true, TypeFold: true,
}

// knownFields lists every field name Item understands; anything else found
// in JSON is preserved verbatim in Extra.
var knownFields = map[string]bool{
	"type": true, "name": true, "mtime": true, "size": true,
	"content": true, "sha256": true, "target": true, "error": true,
	"count": true, "name_min": true, "name_max": true,
}

// Item is a sum of the file, dir, link, missing/other and fold variants
// described in §3. Every item may carry an Error describing an I/O failure
// observed during save. Fields irrelevant to a given Type are simply left
// zero; Extra preserves any field Item doesn't model so that unrecognized
// data round-trips rather than silently vanishing.
type Item struct {
	Type  string
	Name  string
	MTime *Time

	// file
	Size    int64
	SHA256  string
	Content []chunk.Descriptor

	// link
	Target string

	// fold
	Count   int
	NameMin string
	NameMax string

	Error string

	// Opaque is true for records with no recognized type (§3: "Any item
	// missing an explicit type is treated as a generic stream record
	// passed through unchanged") or an unrecognized type value. Such
	// records are serialized from Extra alone.
	Opaque bool
	Extra  map[string]json.RawMessage
}

// File constructs a file item.
func File(name string, mtime Time, size int64, sha256 string, content []chunk.Descriptor) Item {
	return Item{Type: TypeFile, Name: name, MTime: &mtime, Size: size, SHA256: sha256, Content: content}
}

// Dir constructs a directory item.
func Dir(name string, mtime Time) Item {
	return Item{Type: TypeDir, Name: name, MTime: &mtime}
}

// Link constructs a symlink item.
func Link(name string, mtime Time, target string) Item {
	return Item{Type: TypeLink, Name: name, MTime: &mtime, Target: target}
}

// Missing constructs an item for a name that no longer exists on disk.
func Missing(name string) Item {
	return Item{Type: TypeMissing, Name: name}
}

// Other constructs an item for a path that is neither file, dir, link nor
// missing (device node, socket, etc).
func Other(name string) Item {
	return Item{Type: TypeOther, Name: name}
}

// Fold constructs a fold item bounding count inner items between nameMin and
// nameMax, stored as the single chunk in content.
func Fold(content []chunk.Descriptor, count int, nameMin, nameMax string) Item {
	return Item{Type: TypeFold, Content: content, Count: count, NameMin: nameMin, NameMax: nameMax}
}

// WithError attaches an I/O error message to it and returns it.
func (it Item) WithError(err error) Item {
	it.Error = err.Error()
	return it
}

// ItemName returns the item's name for ordering purposes: its "name" field,
// or a fold item's "name_min" (§3 GLOSSARY: "A fold item's sort key is its
// name_min").
func (it Item) ItemName() string {
	if it.Type == TypeFold {
		return it.NameMin
	}
	return it.Name
}

// PathKey splits a POSIX-style relative name into its path parts for
// canonical ordering (§3 "Canonical name ordering"). Leading slashes and "."
// /".." components are stripped, matching original_source/tote/save.py's
// pathkey.
func PathKey(name string) []string {
	parts := strings.Split(name, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Key returns it's canonical ordering key.
func (it Item) Key() []string {
	return PathKey(it.ItemName())
}

// CompareKeys compares two canonical-name keys lexicographically by path
// part, the total order described in §3 and tested by §8 property 6.
func CompareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts before b in canonical name order.
func Less(a, b Item) bool {
	return CompareKeys(a.Key(), b.Key()) < 0
}

// SortByName sorts items in place by canonical name order.
func SortByName(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return Less(items[i], items[j]) })
}

// MarshalJSON implements json.Marshaler. Known fields are written in a
// stable, readable order; unrecognized fields (Extra) follow, sorted by key
// for determinism.
func (it Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("item: marshal field %q: %w", key, err)
		}
		buf.Write(vb)
		return nil
	}
	writeRaw := func(key string, v json.RawMessage) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, _ := json.Marshal(key)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(v)
	}

	if it.Opaque {
		keys := make([]string, 0, len(it.Extra))
		for k := range it.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeRaw(k, it.Extra[k])
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	if err := write("type", it.Type); err != nil {
		return nil, err
	}
	if it.Name != "" {
		if err := write("name", it.Name); err != nil {
			return nil, err
		}
	}
	if it.MTime != nil {
		if err := write("mtime", it.MTime); err != nil {
			return nil, err
		}
	}
	switch it.Type {
	case TypeFile:
		if err := write("size", it.Size); err != nil {
			return nil, err
		}
		if err := write("content", it.Content); err != nil {
			return nil, err
		}
		if err := write("sha256", it.SHA256); err != nil {
			return nil, err
		}
	case TypeLink:
		if err := write("target", it.Target); err != nil {
			return nil, err
		}
	case TypeFold:
		if err := write("content", it.Content); err != nil {
			return nil, err
		}
		if err := write("count", it.Count); err != nil {
			return nil, err
		}
		if err := write("name_min", it.NameMin); err != nil {
			return nil, err
		}
		if err := write("name_max", it.NameMax); err != nil {
			return nil, err
		}
	}
	if it.Error != "" {
		if err := write("error", it.Error); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(it.Extra))
	for k := range it.Extra {
		if knownFields[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeRaw(k, it.Extra[k])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*it = Item{Extra: map[string]json.RawMessage{}}
	for k, v := range raw {
		it.Extra[k] = v
	}

	typeVal, hasType := raw["type"]
	var typeStr string
	if hasType {
		if err := json.Unmarshal(typeVal, &typeStr); err != nil {
			return fmt.Errorf("item: field \"type\": %w", err)
		}
	}
	if !hasType || !knownTypes[typeStr] {
		it.Opaque = true
		it.Type = typeStr
		return nil
	}
	it.Type = typeStr
	delete(it.Extra, "type")

	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &it.Name); err != nil {
			return fmt.Errorf("item: field \"name\": %w", err)
		}
		delete(it.Extra, "name")
	}
	if v, ok := raw["mtime"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("item: field \"mtime\": %w", err)
		}
		t, err := ParseTime(s)
		if err != nil {
			return fmt.Errorf("item: field \"mtime\": %w", err)
		}
		it.MTime = &t
		delete(it.Extra, "mtime")
	}
	if v, ok := raw["error"]; ok {
		if err := json.Unmarshal(v, &it.Error); err != nil {
			return fmt.Errorf("item: field \"error\": %w", err)
		}
		delete(it.Extra, "error")
	}

	switch it.Type {
	case TypeFile:
		if v, ok := raw["size"]; ok {
			json.Unmarshal(v, &it.Size)
			delete(it.Extra, "size")
		}
		if v, ok := raw["sha256"]; ok {
			json.Unmarshal(v, &it.SHA256)
			delete(it.Extra, "sha256")
		}
		if v, ok := raw["content"]; ok {
			if err := json.Unmarshal(v, &it.Content); err != nil {
				return fmt.Errorf("item: field \"content\": %w", err)
			}
			delete(it.Extra, "content")
		}
	case TypeLink:
		if v, ok := raw["target"]; ok {
			json.Unmarshal(v, &it.Target)
			delete(it.Extra, "target")
		}
	case TypeFold:
		if v, ok := raw["content"]; ok {
			if err := json.Unmarshal(v, &it.Content); err != nil {
				return fmt.Errorf("item: field \"content\": %w", err)
			}
			delete(it.Extra, "content")
		}
		if v, ok := raw["count"]; ok {
			json.Unmarshal(v, &it.Count)
			delete(it.Extra, "count")
		}
		if v, ok := raw["name_min"]; ok {
			json.Unmarshal(v, &it.NameMin)
			delete(it.Extra, "name_min")
		}
		if v, ok := raw["name_max"]; ok {
			json.Unmarshal(v, &it.NameMax)
			delete(it.Extra, "name_max")
		}
	}

	return nil
}
