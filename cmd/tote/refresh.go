package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/saveload"
	"github.com/sarah-happy/tote/pkg/snapshot"
	"github.com/sarah-happy/tote/pkg/walk"
)

func newRefreshCmd() *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "refresh <archive> <root-dir>",
		Short: "re-scan root-dir against a flat archive's prior content and replace it in place, recording history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, root := args[0], args[1]
			store, err := openStore()
			if err != nil {
				return err
			}

			raw, err := readArchive(archive)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			prior, err := fold.Unfold(raw, store)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			current, err := walk.ScanTree(root, walk.Options{
				Recursive:     true,
				OneFilesystem: true,
				Ignore:        walk.NewIgnoreEngine(root),
				Logger:        log,
			})
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			merged, err := snapshot.Checkin(store, root, prior, current, saveload.SaveFile)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}

			if err := appendArchiveHistory(store, archive, raw); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			folded, err := fold.Fold(merged, store, pageSize)
			if err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			return writeArchiveAtomic(archive, folded)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", fold.DefaultPageSize, "target page size in bytes before a fold closes")
	return cmd
}
