package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newImportBlobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-blobs <source-dir>",
		Short: "copy every loose blob file found beneath source-dir into the destination store, re-keying by content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			store, err := openStore()
			if err != nil {
				return err
			}

			var count int
			err = filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %q: %w", path, err)
				}
				if _, err := store.Save(data); err != nil {
					return fmt.Errorf("save %q: %w", path, err)
				}
				count++
				return nil
			})
			if err != nil {
				return fmt.Errorf("import-blobs: %w", err)
			}
			log.WithField("count", count).Info("imported blobs")
			return nil
		},
	}
}
