package walk

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sarah-happy/tote/pkg/item"
)

// Options controls a tree scan (§4.5).
type Options struct {
	// Recursive, if false, yields only the root's immediate children
	// without descending further.
	Recursive bool
	// OneFilesystem, if true, refuses to descend into a directory whose
	// device differs from root's.
	OneFilesystem bool
	// Ignore is consulted for every candidate path; pass nil to scan
	// without filtering (tests, or a root with no .toteignore files).
	Ignore *IgnoreEngine
	// Logger receives ScanIO warnings (permission errors); defaults to
	// logrus.StandardLogger() when nil.
	Logger *logrus.Logger
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

// ScanTree walks root's contents (not root itself) and yields metadata-only
// items — no file content is read — in canonical name order (§2, §4.5).
// It matches original_source/tote/scan.py's scan_tree_relative: the root
// directory is the implicit "." and is never itself emitted.
func ScanTree(root string, opts Options) ([]item.Item, error) {
	root = filepath.Clean(root)
	rootDev, _ := deviceOf(root)

	var out []item.Item
	var walkDir func(path, name string) error
	walkDir = func(path, name string) error {
		if opts.Ignore != nil {
			ignored, err := opts.Ignore.Ignore(path)
			if err != nil {
				return err
			}
			if ignored {
				return nil
			}
		}

		it, isDir, isSymlink, err := statItem(path, name)
		if err != nil {
			return err
		}
		out = append(out, it)

		if !isDir || isSymlink {
			return nil
		}
		if name != "" && !opts.Recursive {
			return nil
		}
		if opts.OneFilesystem {
			dev, ok := deviceOf(path)
			if ok && dev != rootDev {
				return nil
			}
		}

		children, err := readSortedDirNames(path)
		if err != nil {
			opts.logger().WithError(err).WithField("path", path).Warn("tote: permission denied, skipping")
			return nil
		}
		for _, c := range children {
			childName := c
			if name != "" {
				childName = name + "/" + c
			}
			if err := walkDir(filepath.Join(path, c), childName); err != nil {
				return err
			}
		}
		return nil
	}

	children, err := readSortedDirNames(root)
	if err != nil {
		opts.logger().WithError(err).WithField("path", root).Warn("tote: permission denied, skipping")
		return nil, nil
	}
	for _, c := range children {
		if err := walkDir(filepath.Join(root, c), c); err != nil {
			return nil, err
		}
	}

	item.SortByName(out)
	return out, nil
}

func readSortedDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names, nil
}

// statItem lstats path and produces the corresponding metadata-only item,
// mirroring saveload.SaveFile's branching but without reading file content:
// regular files carry their on-disk size (needed by the checkin merge's
// type/size/mtime comparison, §4.7) with no content/sha256 yet.
func statItem(path, name string) (it item.Item, isDir bool, isSymlink bool, err error) {
	fi, statErr := os.Lstat(path)
	if os.IsNotExist(statErr) {
		return item.Missing(name), false, false, nil
	}
	if statErr != nil {
		return item.Item{}, false, false, statErr
	}

	mtime := item.NewTime(fi.ModTime())

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		target, readErr := os.Readlink(path)
		if readErr != nil {
			return item.Link(name, mtime, "").WithError(readErr), false, true, nil
		}
		return item.Link(name, mtime, target), false, true, nil

	case fi.IsDir():
		return item.Dir(name, mtime), true, false, nil

	case fi.Mode().IsRegular():
		it := item.File(name, mtime, fi.Size(), "", nil)
		return it, false, false, nil

	default:
		return item.Other(name), false, false, nil
	}
}
