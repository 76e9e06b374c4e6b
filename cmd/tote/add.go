package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/item"
	"github.com/sarah-happy/tote/pkg/saveload"
)

func newAddCmd() *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "add <archive> <source-path> <item-name>",
		Short: "add or replace one file's item record in a flat archive, recording the prior archive in its history",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, source, name := args[0], args[1], args[2]
			store, err := openStore()
			if err != nil {
				return err
			}

			raw, err := readArchive(archive)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			prior, err := fold.Unfold(raw, store)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}

			it, err := saveload.SaveFile(store, source, name)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}

			merged := replaceOrInsert(prior, it)
			item.SortByName(merged)

			if err := appendArchiveHistory(store, archive, raw); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			folded, err := fold.Fold(merged, store, pageSize)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			return writeArchiveAtomic(archive, folded)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", fold.DefaultPageSize, "target page size in bytes before a fold closes")
	return cmd
}

// replaceOrInsert returns items with any existing entry sharing new's
// canonical name replaced by new, or new appended if no entry matched.
func replaceOrInsert(items []item.Item, n item.Item) []item.Item {
	for i, it := range items {
		if it.ItemName() == n.ItemName() {
			out := make([]item.Item, len(items))
			copy(out, items)
			out[i] = n
			return out
		}
	}
	return append(append([]item.Item{}, items...), n)
}
