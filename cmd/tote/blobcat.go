package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/blob"
)

func newBlobCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blob-cat <digest>",
		Short: "write the raw stored bytes for a digest, bypassing decryption and decompression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			d, ok := blob.Parse(args[0])
			if !ok {
				return fmt.Errorf("blob-cat: %w: %q", blob.ErrInvalidDigest, args[0])
			}
			data, err := store.Load(d)
			if err != nil {
				return fmt.Errorf("blob-cat: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
