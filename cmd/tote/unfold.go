package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/item"
)

func newUnfoldPipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfold-pipe",
		Short: "read a (possibly folded) item stream from stdin and write its fully expanded stream to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			items, err := item.DecodeStream(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("unfold-pipe: %w", err)
			}
			flat, err := fold.Unfold(items, store)
			if err != nil {
				return fmt.Errorf("unfold-pipe: %w", err)
			}
			return item.EncodeStream(cmd.OutOrStdout(), flat)
		},
	}
}

func newUnfoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfold <stream-file>",
		Short: "read a (possibly folded) item stream from a file and write its fully expanded stream to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("unfold: %w", err)
			}
			defer f.Close()

			items, err := item.DecodeStream(f)
			if err != nil {
				return fmt.Errorf("unfold: %w", err)
			}
			flat, err := fold.Unfold(items, store)
			if err != nil {
				return fmt.Errorf("unfold: %w", err)
			}
			return item.EncodeStream(cmd.OutOrStdout(), flat)
		},
	}
}
