package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/item"
	"github.com/sarah-happy/tote/pkg/saveload"
)

func newAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append <archive> <source-path> <item-name>",
		Short: "save a file or directory and append its item record to a flat archive stream",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, source, name := args[0], args[1], args[2]
			store, err := openStore()
			if err != nil {
				return err
			}

			it, err := saveload.SaveFile(store, source, name)
			if err != nil {
				return fmt.Errorf("append: %w", err)
			}

			f, err := os.OpenFile(archive, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("append: open %q: %w", archive, err)
			}
			defer f.Close()
			if err := item.EncodeOne(f, it); err != nil {
				return fmt.Errorf("append: %w", err)
			}
			log.WithField("name", name).Info("appended")
			return nil
		},
	}
}
