package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/chunk"
	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/item"
	"github.com/sarah-happy/tote/pkg/saveload"
	"github.com/sarah-happy/tote/pkg/snapshot"
)

func newFoldPipeCmd() *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "fold-pipe",
		Short: "read an item stream from stdin, fold it, and write the fold-item stream to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			items, err := item.DecodeStream(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("fold-pipe: %w", err)
			}
			folded, err := fold.Fold(items, store, pageSize)
			if err != nil {
				return fmt.Errorf("fold-pipe: %w", err)
			}
			return item.EncodeStream(cmd.OutOrStdout(), folded)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", fold.DefaultPageSize, "target page size in bytes before a fold closes")
	return cmd
}

func newRefoldPipeCmd() *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "refold-pipe",
		Short: "read a (possibly folded) item stream from stdin, fully unfold it, and re-fold to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			items, err := item.DecodeStream(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("refold-pipe: %w", err)
			}
			flat, err := fold.Unfold(items, store)
			if err != nil {
				return fmt.Errorf("refold-pipe: %w", err)
			}
			refolded, err := fold.Fold(flat, store, pageSize)
			if err != nil {
				return fmt.Errorf("refold-pipe: %w", err)
			}
			return item.EncodeStream(cmd.OutOrStdout(), refolded)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", fold.DefaultPageSize, "target page size in bytes before a fold closes")
	return cmd
}

func newRefoldCmd() *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "refold <archive>",
		Short: "re-fold a flat archive in place, appending its prior content to <archive>.history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive := args[0]
			store, err := openStore()
			if err != nil {
				return err
			}

			raw, err := readArchive(archive)
			if err != nil {
				return fmt.Errorf("refold: %w", err)
			}
			flat, err := fold.Unfold(raw, store)
			if err != nil {
				return fmt.Errorf("refold: %w", err)
			}
			refolded, err := fold.Fold(flat, store, pageSize)
			if err != nil {
				return fmt.Errorf("refold: %w", err)
			}

			if err := appendArchiveHistory(store, archive, raw); err != nil {
				return fmt.Errorf("refold: %w", err)
			}
			return writeArchiveAtomic(archive, refolded)
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", fold.DefaultPageSize, "target page size in bytes before a fold closes")
	return cmd
}

// readArchive parses an archive's raw (possibly folded) item stream.
func readArchive(path string) ([]item.Item, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return item.DecodeStream(f)
}

// appendArchiveHistory saves the archive file's entire prior byte content
// through the chunk codec and appends the resulting file item to
// <archive>.history before the archive is replaced (§4.7 "History file").
func appendArchiveHistory(store chunk.Store, archive string, prior []item.Item) error {
	if len(prior) == 0 {
		return nil
	}
	it, err := saveload.SaveFile(store, archive, filepath.Base(archive))
	if err != nil {
		return err
	}
	return snapshot.AppendHistory(archive+".history", it)
}

// writeArchiveAtomic replaces archive's content with items via a temp file
// and rename (§5).
func writeArchiveAtomic(archive string, items []item.Item) error {
	part := archive + ".part"
	f, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write %q: %w", part, err)
	}
	if err := item.EncodeStream(f, items); err != nil {
		f.Close()
		os.Remove(part)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, archive)
}
