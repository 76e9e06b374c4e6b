// Package workdir implements workdir discovery and .tote/config loading
// (§4.8).
//
// Grounded on original_source/tote/workdir.py's find_workdir/load_config/
// WorkDir, loading the INI config with gopkg.in/ini.v1 (an ecosystem pick
// wired per SPEC_FULL's ambient config stack; the teacher's own config is
// JSON) in place of Python's configparser.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/sarah-happy/tote/pkg/osutil"
)

// ErrNotFound indicates no .tote directory was found in path or any parent.
var ErrNotFound = errors.New("workdir: no .tote in current or parent folders")

// WorkDir is a discovered and loaded tote workspace.
type WorkDir struct {
	// Path is the workspace root: the directory containing .tote.
	Path string

	config *ini.File
}

// IsWorkDir reports whether path directly contains a .tote directory.
func IsWorkDir(path string) bool {
	fi, err := os.Stat(filepath.Join(path, ".tote"))
	return err == nil && fi.IsDir()
}

// Find searches start, then each parent directory in turn, for the nearest
// .tote directory, and loads its config (§4.8). start defaults to the
// current directory when empty.
func Find(start string) (*WorkDir, error) {
	if start == "" {
		start = "."
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("workdir: resolve %q: %w", start, err)
	}

	for path := abs; ; {
		if IsWorkDir(path) {
			return Attach(path)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return nil, ErrNotFound
		}
		path = parent
	}
}

// Attach loads the workdir rooted exactly at path, which must directly
// contain .tote.
func Attach(path string) (*WorkDir, error) {
	if !IsWorkDir(path) {
		return nil, fmt.Errorf("workdir: %w: %s", ErrNotFound, filepath.Join(path, ".tote"))
	}
	cfg, err := loadConfig(filepath.Join(path, ".tote", "config"))
	if err != nil {
		return nil, err
	}
	return &WorkDir{Path: path, config: cfg}, nil
}

func loadConfig(path string) (*ini.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("workdir: load config %q: %w", path, err)
	}
	return cfg, nil
}

// StorePath resolves the blob store directory for this workdir: the
// `[store] path` config key if set (expanded for $VAR and ~, resolved
// relative to the workdir), otherwise <workdir>/.tote (§4.8).
func (w *WorkDir) StorePath() string {
	raw := w.config.Section("store").Key("path").String()
	if raw == "" {
		return filepath.Join(w.Path, ".tote")
	}
	return w.resolvePath(raw)
}

// CheckinDirPath returns <workdir>/.tote/checkin/<series>.
func (w *WorkDir) CheckinDirPath(series string) string {
	return filepath.Join(w.Path, ".tote", "checkin", series)
}

// PreHookPath and PostHookPath return the optional checkin hook executable
// paths (§6 on-disk layout). Nothing in this package runs them, and no
// cmd/tote command invokes them.
func (w *WorkDir) PreHookPath() string  { return filepath.Join(w.Path, ".tote", "checkin-pre") }
func (w *WorkDir) PostHookPath() string { return filepath.Join(w.Path, ".tote", "checkin-post") }

// resolvePath expands $VAR and ~ references and, for a resulting relative
// path, resolves it against the workdir root.
func (w *WorkDir) resolvePath(raw string) string {
	expanded := os.ExpandEnv(raw)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		if home := osutil.HomeDir(); home != "" {
			expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
		}
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded)
	}
	return filepath.Join(w.Path, expanded)
}

// String implements fmt.Stringer, matching the teacher's terse __repr__-style
// debug output.
func (w *WorkDir) String() string {
	return fmt.Sprintf("[WorkDir: %s]", w.Path)
}
