package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"turbinearc/engine/archive"
	"turbinearc/engine/landmap"
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <cell> <mapfile>",
		Short: "Merge CELL's landblocks into a 2041x2041 world map file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMapMerge(args[0], args[1])
		},
	}
	cmd.AddCommand(newMapNewmapCmd())
	return cmd
}

func newMapNewmapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "newmap <mapfile>",
		Short: "Write a zero-filled map file without touching any archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("writing new map")
			return landmap.New().Save(args[0])
		},
	}
}

func runMapMerge(cellPath, mapPath string) error {
	m, err := landmap.Load(mapPath)
	if err != nil {
		return fmt.Errorf("load existing map %s: %w", mapPath, err)
	}

	arc, err := archive.Open(cellPath, archive.DialectCell)
	if err != nil {
		return err
	}
	defer arc.Close()

	ag := landmap.NewAggregator(arc, m)
	written, diags, notes, errs := ag.Run()

	for _, d := range diags {
		fmt.Printf("(%4d, %4d) was %04X, %3d.  Now %04X, %3d.\n",
			d.Col, d.Row, uint16(d.OldType), d.OldZ, uint16(d.NewType), d.NewZ)
	}
	for _, n := range notes {
		fmt.Printf("landblock %08X carries an object block at %08X\n", n.LandblockKey, n.ObjectKey)
	}
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "turbinearc: map: %v\n", e)
	}

	if err := m.Save(mapPath); err != nil {
		return fmt.Errorf("save map %s: %w", mapPath, err)
	}

	fmt.Printf("merged %d landblock(s) into %s\n", written, mapPath)
	return nil
}
