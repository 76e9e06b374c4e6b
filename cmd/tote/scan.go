package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/item"
	"github.com/sarah-happy/tote/pkg/walk"
)

func newScanCmd() *cobra.Command {
	var oneFilesystem bool
	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "walk a directory tree and print its metadata-only item stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			items, err := walk.ScanTree(root, walk.Options{
				Recursive:     flagRecursive,
				OneFilesystem: oneFilesystem,
				Ignore:        newIgnoreEngine(root),
				Logger:        log,
			})
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			return item.EncodeStream(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&oneFilesystem, "one-filesystem", false, "do not descend across device boundaries")
	return cmd
}
