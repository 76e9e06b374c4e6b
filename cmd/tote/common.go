package main

import (
	"fmt"

	"github.com/sarah-happy/tote/pkg/blobstore"
	"github.com/sarah-happy/tote/pkg/walk"
	"github.com/sarah-happy/tote/pkg/workdir"
)

// openStore resolves --store directly, falling back to the store configured
// by the discovered workdir (§4.8).
func openStore() (*blobstore.Store, error) {
	if flagStore != "" {
		return blobstore.Open(flagStore)
	}
	w, err := findWorkdir()
	if err != nil {
		return nil, fmt.Errorf("no --store given and %w", err)
	}
	return blobstore.Open(w.StorePath())
}

// findWorkdir resolves --workdir, or searches upward from the current
// directory when unset.
func findWorkdir() (*workdir.WorkDir, error) {
	if flagWorkdir != "" {
		return workdir.Attach(flagWorkdir)
	}
	return workdir.Find("")
}

// newIgnoreEngine returns an ignore engine rooted at base, or nil when base
// is empty (used for ad hoc scans outside a workdir).
func newIgnoreEngine(base string) *walk.IgnoreEngine {
	if base == "" {
		return nil
	}
	return walk.NewIgnoreEngine(base)
}
