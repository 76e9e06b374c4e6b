package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/blobstore"
	"github.com/sarah-happy/tote/pkg/item"
	"github.com/sarah-happy/tote/pkg/snapshot"
	"github.com/sarah-happy/tote/pkg/walk"
	"github.com/sarah-happy/tote/pkg/workdir"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report what a checkin would do without saving any content or writing a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, store, err := attachWorkdirAndStore()
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			prior, current, err := scanAgainstPrior(w, store)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			entries := snapshot.Status(prior, current)
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s\n", e.Change, e.Name)
			}
			return nil
		},
	}
}

// attachWorkdirAndStore resolves the workdir and its configured store
// together, since checkin-family commands always need both.
func attachWorkdirAndStore() (*workdir.WorkDir, *blobstore.Store, error) {
	w, err := findWorkdir()
	if err != nil {
		return nil, nil, err
	}
	storePath := flagStore
	if storePath == "" {
		storePath = w.StorePath()
	}
	store, err := blobstore.Open(storePath)
	if err != nil {
		return nil, nil, err
	}
	return w, store, nil
}

// scanAgainstPrior produces the unfolded prior snapshot and the fresh
// metadata-only scan used by both status and checkin (§4.7 steps 1-2).
func scanAgainstPrior(w *workdir.WorkDir, store *blobstore.Store) (prior, current []item.Item, err error) {
	prior, err = snapshot.ReadMostRecentCheckin(store, w.Path, snapshot.CheckinDirName)
	if err != nil {
		return nil, nil, err
	}
	current, err = walk.ScanTree(w.Path, walk.Options{
		Recursive:     true,
		OneFilesystem: true,
		Ignore:        walk.NewIgnoreEngine(w.Path),
		Logger:        log,
	})
	if err != nil {
		return nil, nil, err
	}
	return prior, current, nil
}
