package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/item"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [stream-file]",
		Short: "print one line per item in a stream: type, size, name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("list: %w", err)
				}
				defer f.Close()
				r = f
			}

			items, err := item.DecodeStream(r)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, it := range items {
				size := "-"
				if it.Type == item.TypeFile {
					size = humanize.Bytes(uint64(it.Size))
				}
				fmt.Fprintf(out, "%-8s %10s  %s\n", it.Type, size, it.ItemName())
			}
			return nil
		},
	}
}
