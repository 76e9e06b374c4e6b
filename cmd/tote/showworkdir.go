package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowWorkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-workdir",
		Short: "print the discovered workdir path and its resolved store path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := findWorkdir()
			if err != nil {
				return fmt.Errorf("show-workdir: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, w)
			fmt.Fprintln(out, "store:", w.StorePath())
			return nil
		},
	}
}
