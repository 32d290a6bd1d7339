package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	xdraw "golang.org/x/image/draw"

	"turbinearc/engine/archive"
	"turbinearc/engine/bitmap"
)

// portalTypeTags names the PORTAL record type tags original_source/exp.c's
// header comment documents. Unlisted tags print as "unknown".
var portalTypeTags = map[byte]string{
	0x01: "Simple Objects",
	0x02: "Complex Objects",
	0x03: "Animations (?)",
	0x04: "CLUTs",
	0x05: "Textures",
	0x06: "UI Graphics",
	0x08: "Texture Information",
	0x09: "Animation strips (?)",
	0x0A: "? (0x0A)",
	0x0D: "Dungeon Blocks",
	0x0E: "? (0x0E)",
	0x0F: "Lists of CLUTs (?)",
	0x10: "? (0x10)",
	0x11: "? (0x11)",
	0x12: "? (0x12)",
	0x13: "? (0x13)",
	0x20: "? (0x20)",
	0x30: "? (0x30)",
	0x31: "Help",
	0x32: "? (0x32)",
	0x33: "? (0x33)",
	0x34: "? (0x34)",
}

func typeTagName(tag byte) string {
	if name, ok := portalTypeTags[tag]; ok {
		return name
	}
	return "unknown"
}

func newInspectCmd() *cobra.Command {
	var dialectFlag string
	var palettePreviewFlag string
	var previewOutFlag string

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Print a summary of an archive's directory without extracting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			dialect, err := resolveDialect(dialectFlag, path)
			if err != nil {
				return err
			}

			arc, err := archive.Open(path, dialect)
			if err != nil {
				return err
			}
			defer arc.Close()

			fmt.Printf("dialect:        %s\n", dialect)
			fmt.Printf("sector size:    %d bytes\n", arc.Sectors.SectorSize())
			fmt.Printf("root directory: %08X\n", arc.Root)

			stats, err := arc.Dir.CountNodes(arc.Root)
			if err != nil {
				return err
			}
			fmt.Printf("directory:      %d node(s), %d entries\n", stats.Nodes, stats.Entries)

			if dialect == archive.DialectPortal {
				if err := printTypeTagHistogram(arc); err != nil {
					return err
				}
			}

			if palettePreviewFlag != "" {
				key64, err := strconv.ParseUint(palettePreviewFlag, 16, 32)
				if err != nil {
					return fmt.Errorf("invalid --palette-preview key %q: %w", palettePreviewFlag, err)
				}
				return writePalettePreview(arc, uint32(key64), previewOutFlag)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialectFlag, "dialect", "", "archive dialect: portal or cell (default: sniff)")
	cmd.Flags().StringVar(&palettePreviewFlag, "palette-preview", "", "hex key of a 0x04 palette record to render as a PNG swatch")
	cmd.Flags().StringVar(&previewOutFlag, "preview-out", "palette.png", "output path for --palette-preview")
	return cmd
}

func printTypeTagHistogram(arc *archive.Archive) error {
	counts := map[byte]int{}
	err := arc.Dir.Enumerate(arc.Root, func(uint32) bool { return true }, func(t archive.Triple) error {
		counts[archive.TypeTag(t.Key)]++
		return nil
	})
	if err != nil {
		return err
	}

	tags := make([]byte, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	fmt.Println("type tag histogram:")
	for _, tag := range tags {
		fmt.Printf("  %02X  %6d  %s\n", tag, counts[tag], typeTagName(tag))
	}
	return nil
}

// writePalettePreview renders a 0x04 palette record as a 16x16 grid of
// swatches, each upsampled to a viewable 24x24 block, using the same
// xdraw.CatmullRom.Scale call the teacher's asset importer uses for PNG
// resizing. This is orthogonal to export-bitmaps' exact-byte BMP path — it
// only ever produces a PNG for human inspection.
func writePalettePreview(arc *archive.Archive, key uint32, outPath string) error {
	raw, err := arc.Fetch(key)
	if err != nil {
		return err
	}
	pal, err := bitmap.ParsePalette(raw)
	if err != nil {
		return err
	}

	const cell = 24
	small := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < 256 && i < len(pal); i++ {
		b, g, r := pal.At(byte(i))
		small.SetRGBA(i%16, i/16, color.RGBA{R: r, G: g, B: b, A: 255})
	}

	big := image.NewRGBA(image.Rect(0, 0, 16*cell, 16*cell))
	xdraw.CatmullRom.Scale(big, big.Bounds(), small, small.Bounds(), xdraw.Over, nil)

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, big); err != nil {
		return err
	}

	fmt.Printf("palette %08X -> %s\n", key, outPath)
	return nil
}
