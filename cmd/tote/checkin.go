package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarah-happy/tote/pkg/fold"
	"github.com/sarah-happy/tote/pkg/saveload"
	"github.com/sarah-happy/tote/pkg/snapshot"
)

func newCheckinCmd() *cobra.Command {
	var pageSize int
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "merge the workdir's prior snapshot with a fresh scan and write a new timestamped checkin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, store, err := attachWorkdirAndStore()
			if err != nil {
				return fmt.Errorf("checkin: %w", err)
			}

			prior, current, err := scanAgainstPrior(w, store)
			if err != nil {
				return fmt.Errorf("checkin: %w", err)
			}

			merged, err := snapshot.Checkin(store, w.Path, prior, current, saveload.SaveFile)
			if err != nil {
				return fmt.Errorf("checkin: %w", err)
			}

			name := snapshot.SnapshotName(time.Now())
			path, err := snapshot.WriteSnapshot(store, w.Path, snapshot.CheckinDirName, name, merged, pageSize)
			if err != nil {
				return fmt.Errorf("checkin: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", fold.DefaultPageSize, "target page size in bytes before a fold closes")
	return cmd
}
