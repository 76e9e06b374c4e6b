package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/saveload"
)

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put [file]",
		Short: "save stdin (or a file) as chunked content and print its descriptor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			var r io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("put: %w", err)
				}
				defer f.Close()
				r = f
			}

			result, err := saveload.SaveStream(store, r)
			if err != nil {
				return fmt.Errorf("put: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
