// Package snapshot implements the checkin engine: merging a previous
// snapshot with a fresh filesystem scan to produce a new one, and the
// dry-run status report over the same merge (§4.7).
//
// Grounded on original_source/tote/workdir.py's checkin_save/checkin_status/
// most_recent_checkin and original_source/tote/scan.py's merge_sorted,
// expressed in the teacher's atomic-rename idiom (blobserver/localdisk's
// tempfile-then-os.Rename pattern) for the snapshot file itself.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sarah-happy/tote/pkg/chunk"
	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/item"
)

// CheckinDirName is the fixed checkin series name (§4.7: "default").
const CheckinDirName = "default"

// MergePair is one aligned (prior, current) item pair produced by MergeSorted.
// Exactly one of Prior, Current is nil when a name appears on only one side.
type MergePair struct {
	Prior   *item.Item
	Current *item.Item
}

// MergeSorted aligns two canonically-sorted item sequences by name, mirroring
// scan.py's merge_sorted. Duplicate names within a single side are not
// expected (both inputs come from already-deduplicated snapshots/scans) and
// are treated as distinct entries in iteration order.
func MergeSorted(prior, current []item.Item) []MergePair {
	var out []MergePair
	i, j := 0, 0
	for i < len(prior) && j < len(current) {
		a, b := prior[i], current[j]
		switch item.CompareKeys(a.Key(), b.Key()) {
		case -1:
			out = append(out, MergePair{Prior: &prior[i]})
			i++
		case 1:
			out = append(out, MergePair{Current: &current[j]})
			j++
		default:
			out = append(out, MergePair{Prior: &prior[i], Current: &current[j]})
			i++
			j++
		}
	}
	for ; i < len(prior); i++ {
		out = append(out, MergePair{Prior: &prior[i]})
	}
	for ; j < len(current); j++ {
		out = append(out, MergePair{Current: &current[j]})
	}
	return out
}

// sameMetadata reports whether a and b describe the same on-disk state, the
// condition under which checkin reuses the prior item unchanged rather than
// emitting the fresh scan's version (§4.7 step 3: "in both, emit A if
// unchanged else emit B"). A type change is always a change. For files, only
// size/mtime matter (checkin never re-reads a file's content to compare it
// byte for byte). For every other type, the type's own identifying fields
// must match too, so a retargeted symlink or a touched directory is emitted
// as an update from the fresh scan (B), not restored stale from the prior
// snapshot (A).
func sameMetadata(a, b item.Item) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case item.TypeFile:
		return a.Size == b.Size && a.MTime != nil && b.MTime != nil && a.MTime.Equal(b.MTime.Time)
	case item.TypeDir:
		return a.MTime != nil && b.MTime != nil && a.MTime.Equal(b.MTime.Time)
	case item.TypeLink:
		return a.Target == b.Target && a.MTime != nil && b.MTime != nil && a.MTime.Equal(b.MTime.Time)
	default:
		return true
	}
}

// Change classifies one merged pair for status reporting (§4.7).
type Change string

const (
	ChangeNone   Change = "none"
	ChangeNew    Change = "new"
	ChangeDel    Change = "del"
	ChangeUpdate Change = "update"
)

// StatusEntry is one reported line of `tote status` (§6 CLI surface).
type StatusEntry struct {
	Change Change
	Name   string
}

// Status performs the read-only merge of prior against current, reporting
// what a checkin would do without saving any content or writing a snapshot
// (§4.7 checkin_status).
func Status(prior, current []item.Item) []StatusEntry {
	var out []StatusEntry
	for _, pair := range MergeSorted(prior, current) {
		switch {
		case pair.Prior == nil:
			out = append(out, StatusEntry{Change: ChangeNew, Name: pair.Current.ItemName()})
		case pair.Current == nil:
			out = append(out, StatusEntry{Change: ChangeDel, Name: pair.Prior.ItemName()})
		case sameMetadata(*pair.Prior, *pair.Current):
			continue
		default:
			out = append(out, StatusEntry{Change: ChangeUpdate, Name: pair.Current.ItemName()})
		}
	}
	return out
}

// SaveFileFunc reads the workspace file at path and returns its saved
// content descriptor fields, mirroring saveload.SaveFile's single-file
// branch. Checkin calls it only for files it must (re-)read from disk.
type SaveFileFunc func(store chunk.Store, path, name string) (item.Item, error)

// Checkin merges prior against current, re-saving file content only for new
// or changed files, and returns the new snapshot's flat item list (not yet
// folded). workdirPath is the base the scan's relative names are resolved
// against. Per-file I/O errors are recorded on the item and do not abort the
// checkin (§7 ItemSaveIO); store write failures are fatal.
func Checkin(store chunk.Store, workdirPath string, prior, current []item.Item, saveFile SaveFileFunc) ([]item.Item, error) {
	var out []item.Item
	for _, pair := range MergeSorted(prior, current) {
		switch {
		case pair.Prior == nil:
			it := *pair.Current
			if it.Type == item.TypeFile {
				it = reSave(store, workdirPath, it, saveFile)
			}
			out = append(out, it)

		case pair.Current == nil:
			// deletion: dropped from the new snapshot.
			continue

		case sameMetadata(*pair.Prior, *pair.Current):
			out = append(out, *pair.Prior)

		default:
			it := *pair.Current
			if it.Type == item.TypeFile {
				it = reSave(store, workdirPath, it, saveFile)
			}
			out = append(out, it)
		}
	}
	item.SortByName(out)
	return out, nil
}

func reSave(store chunk.Store, workdirPath string, it item.Item, saveFile SaveFileFunc) item.Item {
	path := filepath.Join(workdirPath, filepath.FromSlash(it.Name))
	saved, err := saveFile(store, path, it.Name)
	if err != nil {
		return it.WithError(err)
	}
	return saved
}

// snapshotTimeLayout renders a filesystem-safe ISO-8601 timestamp: colons
// become dashes so the name is legal on every target filesystem (§4.7).
const snapshotTimeLayout = "2006-01-02T15-04-05.000000Z"

// SnapshotName returns the <timestamp> file stem (without ".tote") for t, in
// UTC, with colons replaced by dashes for filesystem safety.
func SnapshotName(t time.Time) string {
	return t.UTC().Format(snapshotTimeLayout)
}

// CheckinDir returns <workdirPath>/.tote/checkin/<series>.
func CheckinDir(workdirPath, series string) string {
	return filepath.Join(workdirPath, ".tote", "checkin", series)
}

// MostRecentCheckin lists the default checkin directory, keeps names ending
// ".tote" with nonzero size, and returns the lexicographically-greatest one
// (timestamps sort correctly as strings) or "" if there is no prior
// snapshot (§4.7).
func MostRecentCheckin(workdirPath, series string) (string, error) {
	dir := CheckinDir(workdirPath, series)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("snapshot: list %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tote") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return filepath.Join(dir, names[0]), nil
}

// ReadSnapshot parses a snapshot file's raw item stream (still containing
// fold items) without expanding it.
func ReadSnapshot(path string) ([]item.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", path, err)
	}
	defer f.Close()
	return item.DecodeStream(f)
}

// ReadMostRecentCheckin returns the fully-unfolded prior snapshot, or an
// empty slice if there is none (§4.7 read_most_recent_checkin).
func ReadMostRecentCheckin(store chunk.Store, workdirPath, series string) ([]item.Item, error) {
	path, err := MostRecentCheckin(workdirPath, series)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	raw, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return fold.Unfold(raw, store)
}

// WriteSnapshot folds items and atomically writes the resulting stream to
// <CheckinDir>/<name>.tote via a uuid-suffixed temp file (§4.7 step 4, §5).
func WriteSnapshot(store chunk.Store, workdirPath, series, name string, items []item.Item, pageSize int) (string, error) {
	folded, err := fold.Fold(items, store, pageSize)
	if err != nil {
		return "", fmt.Errorf("snapshot: fold: %w", err)
	}

	dir := CheckinDir(workdirPath, series)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: mkdir %q: %w", dir, err)
	}

	target := filepath.Join(dir, name+".tote")
	part := target + ".part-" + uuid.NewString()
	f, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("snapshot: create %q: %w", part, err)
	}
	if err := item.EncodeStream(f, folded); err != nil {
		f.Close()
		os.Remove(part)
		return "", fmt.Errorf("snapshot: write %q: %w", part, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return "", fmt.Errorf("snapshot: close %q: %w", part, err)
	}
	if err := os.Rename(part, target); err != nil {
		os.Remove(part)
		return "", fmt.Errorf("snapshot: rename %q: %w", target, err)
	}
	return target, nil
}

// AppendHistory appends a file item describing the prior archive's content
// to path's sibling <archive>.history file, creating it if absent, before
// the caller atomically replaces the archive itself (§4.7 "History file").
// History is append-only text-stream content: each call adds one more
// "---"-delimited record, never truncating prior ones.
func AppendHistory(historyPath string, prior item.Item) error {
	f, err := os.OpenFile(historyPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("snapshot: open history %q: %w", historyPath, err)
	}
	defer f.Close()
	return item.EncodeOne(f, prior)
}

// ReadHistory parses every record from a flat archive's history sidecar; a
// missing file yields no entries.
func ReadHistory(historyPath string) ([]item.Item, error) {
	f, err := os.Open(historyPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: open history %q: %w", historyPath, err)
	}
	defer f.Close()
	return item.DecodeStream(f)
}
