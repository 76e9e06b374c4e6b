// Command tote is the command-line front end over the core archiving
// packages (§6): argument parsing and terminal output live here, outside
// the single-threaded core pipeline. No command runs the optional checkin
// hooks under .tote, and none reports progress while it works.
//
// Grounded on the teacher's cmd/camget-style one-binary-many-subcommands
// layout, rebuilt on github.com/spf13/cobra (gotosocial's CLI stack) in
// place of Perkeep's home-grown cmdmain package.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagStore     string
	flagWorkdir   string
	flagRecursive bool
	log           = logrus.StandardLogger()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tote",
		Short:         "content-addressed, encrypted, deduplicating file-tree archiver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagStore, "store", "", "blob store directory (defaults to the workdir's configured store)")
	root.PersistentFlags().StringVar(&flagWorkdir, "workdir", "", "workdir path (defaults to searching upward from the current directory)")
	root.PersistentFlags().BoolVar(&flagRecursive, "recursive", false, "descend into subdirectories (tree-ingesting commands)")

	root.AddCommand(
		newPutCmd(),
		newCatCmd(),
		newScanCmd(),
		newAppendCmd(),
		newListCmd(),
		newFoldPipeCmd(),
		newRefoldPipeCmd(),
		newRefoldCmd(),
		newUnfoldPipeCmd(),
		newUnfoldCmd(),
		newStatusCmd(),
		newCheckinCmd(),
		newAddCmd(),
		newRefreshCmd(),
		newExtractCmd(),
		newBlobCatCmd(),
		newShowWorkdirCmd(),
		newImportBlobsCmd(),
	)
	return root
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tote:", err)
		os.Exit(1)
	}
}
