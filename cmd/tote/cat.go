package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/saveload"
)

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat",
		Short: "decode a content descriptor (as printed by put) from stdin and write its plaintext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			var result saveload.StreamResult
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&result); err != nil {
				return fmt.Errorf("cat: decode descriptor: %w", err)
			}

			r := saveload.NewContentReader(store, result.Content)
			_, err = io.Copy(cmd.OutOrStdout(), r)
			if err != nil {
				return fmt.Errorf("cat: %w", err)
			}
			return nil
		},
	}
}
