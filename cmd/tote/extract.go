package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/item"
	"github.com/sarah-happy/tote/pkg/saveload"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <stream-file> <dest-dir>",
		Short: "unfold a stream file and materialize every item beneath dest-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			streamFile, dest := args[0], args[1]
			store, err := openStore()
			if err != nil {
				return err
			}

			f, err := os.Open(streamFile)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}
			defer f.Close()

			raw, err := item.DecodeStream(f)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}
			flat, err := fold.Unfold(raw, store)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			for _, it := range flat {
				if err := saveload.ExtractFile(store, it, dest); err != nil {
					return fmt.Errorf("extract: %w", err)
				}
			}
			return nil
		},
	}
}
