// Command turbinearc reads PORTAL.DAT- and CELL.DAT-style archives — a
// sector-linked, content-addressed file system embedded in a single host
// file — and exposes their records through a small set of batch
// operations: raw extraction by key, bitmap export, and world-map
// aggregation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "turbinearc",
		Short: "Read and export records from PORTAL.DAT / CELL.DAT archives",
	}
	root.AddCommand(
		newExtractCmd(),
		newExportBitmapsCmd(),
		newMapCmd(),
		newInspectCmd(),
	)
	return root
}

// fatal prints a fatal error to stderr and exits nonzero — the policy for
// single-target drivers (extract, inspect) that spec §7 requires to abort
// on first error, as opposed to the batch drivers which log and continue.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "turbinearc: "+format+"\n", args...)
	os.Exit(1)
}
