package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"turbinearc/engine/archive"
	"turbinearc/engine/bitmap"
)

func newExportBitmapsCmd() *cobra.Command {
	var outFlag string
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "export-bitmaps <portal>",
		Short: "Decode every graphic record into a 24-bit BMP file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if err := os.MkdirAll(outFlag, 0o755); err != nil {
				return err
			}

			arc, err := archive.Open(path, archive.DialectPortal)
			if err != nil {
				return err
			}
			defer arc.Close()

			lines, errs := bitmap.ExportAll(arc, outFlag, workersFlag)

			for _, l := range lines {
				fmt.Printf("%4d %08X %08X %3d %3d\n", l.Index, l.GraphicKey, l.PaletteKey, l.Width, l.Height)
			}
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "turbinearc: export-bitmaps: %v\n", e)
			}

			fmt.Printf("wrote %d bitmap(s) to %s\n", len(lines), outFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFlag, "out", ".", "output directory for gr%04d.bmp files")
	cmd.Flags().IntVar(&workersFlag, "workers", 4, "number of concurrent record decoders")
	return cmd
}
