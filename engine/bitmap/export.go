package bitmap

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"turbinearc/engine/archive"
)

// ManifestLine is one emitted record's line in BitmapDecoder's per-emission
// report: index, source graphic key, palette key (zero for direct-color),
// and the decoded dimensions.
type ManifestLine struct {
	Index      int
	GraphicKey uint32
	PaletteKey uint32
	Width      uint32
	Height     uint32
	Path       string
}

// decoded is one eligible-for-emission record, fully resolved (palette
// already fetched and parsed, for textures) but not yet assigned an output
// index or written to disk — index assignment must wait until every
// candidate's eligibility is known, since a skipped image_type leaves no
// gap in the output counter (spec §4.4: "a monotonically increasing
// counter").
type decoded struct {
	key        uint32
	paletteKey uint32
	width      uint32
	height     uint32
	src        PixelSource
}

// decodeTexture fetches and parses a 0x05 record, resolving its palette. A
// nil, nil return means the record was eligible to be skipped under policy
// (image_type != 2) rather than an error.
func decodeTexture(a *archive.Archive, key uint32) (*decoded, error) {
	raw, err := a.Fetch(key)
	if err != nil {
		return nil, err
	}
	g, err := ParsePalettizedGraphic(raw)
	if err != nil {
		return nil, err
	}
	if g.ImageType != ImageTypePalettized {
		return nil, nil // ImageTypeUnknown and anything else: silently skipped
	}

	palRaw, err := a.Fetch(g.PaletteKey)
	if err != nil {
		return nil, fmt.Errorf("palette %08X: %w", g.PaletteKey, err)
	}
	pal, err := ParsePalette(palRaw)
	if err != nil {
		return nil, err
	}

	return &decoded{
		key: key, paletteKey: g.PaletteKey,
		width: g.Width, height: g.Height,
		src: PaletteSource(g, pal),
	}, nil
}

// decodeDirectColor fetches and parses a 0x06 record.
func decodeDirectColor(a *archive.Archive, key uint32) (*decoded, error) {
	raw, err := a.Fetch(key)
	if err != nil {
		return nil, err
	}
	g, err := ParseDirectColorGraphic(raw)
	if err != nil {
		return nil, err
	}
	return &decoded{
		key: key, paletteKey: 0,
		width: g.Width, height: g.Height,
		src: DirectColorSource(g),
	}, nil
}

// decodeAll runs decodeFn over keys (ascending key order) across a bounded
// worker pool, preserving input order in the returned slice. A failed or
// policy-skipped key leaves a nil slot; its error, if any, is appended to
// errs under errsMu.
func decodeAll(keys []uint32, workers int, decodeFn func(uint32) (*decoded, error), errsMu *sync.Mutex, errs *[]error) []*decoded {
	out := make([]*decoded, len(keys))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			d, err := decodeFn(key)
			if err != nil {
				errsMu.Lock()
				*errs = append(*errs, fmt.Errorf("record %08X: %w", key, err))
				errsMu.Unlock()
				return nil
			}
			out[i] = d
			return nil
		})
	}
	g.Wait()
	return out
}

// ExportAll drives both passes over a — every 0x05 texture with
// image_type 2, then every 0x06 UI bitmap — and writes one gr%04d.bmp per
// hit into outDir, using a filename counter shared across both passes in
// the order spec.md requires. It returns the manifest lines for every
// record actually emitted, stable-ordered by index, plus every per-record
// error encountered (export continues past them rather than aborting: a
// single missing palette should not kill a ~5600-file batch export).
//
// Decoding and encoding run across a bounded pool of goroutines since each
// record is independent once the key list is known (spec §5); the worker
// count caps concurrent file descriptors and memory, not correctness.
func ExportAll(a *archive.Archive, outDir string, workers int) ([]ManifestLine, []error) {
	if workers < 1 {
		workers = 1
	}

	var texKeys, uiKeys []uint32
	_ = a.Dir.Enumerate(a.Root, archive.HasTypeTag(0x05), func(t archive.Triple) error {
		texKeys = append(texKeys, t.Key)
		return nil
	})
	_ = a.Dir.Enumerate(a.Root, archive.HasTypeTag(0x06), func(t archive.Triple) error {
		uiKeys = append(uiKeys, t.Key)
		return nil
	})

	var errsMu sync.Mutex
	var errs []error

	texDecoded := decodeAll(texKeys, workers, func(k uint32) (*decoded, error) { return decodeTexture(a, k) }, &errsMu, &errs)
	uiDecoded := decodeAll(uiKeys, workers, func(k uint32) (*decoded, error) { return decodeDirectColor(a, k) }, &errsMu, &errs)

	// Index assignment happens only now, over records that actually survived
	// decoding, in the order spec.md requires: all 0x05 hits, then all 0x06
	// hits, each group in ascending key order.
	eligible := make([]*decoded, 0, len(texDecoded)+len(uiDecoded))
	for _, d := range texDecoded {
		if d != nil {
			eligible = append(eligible, d)
		}
	}
	for _, d := range uiDecoded {
		if d != nil {
			eligible = append(eligible, d)
		}
	}

	lines := make([]ManifestLine, len(eligible))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, d := range eligible {
		i, d := i, d
		g.Go(func() error {
			path := filepath.Join(outDir, fmt.Sprintf("gr%04d.bmp", i))
			if err := writeBMP(path, d.width, d.height, d.src); err != nil {
				errsMu.Lock()
				errs = append(errs, fmt.Errorf("record %08X: %w", d.key, err))
				errsMu.Unlock()
				return nil
			}
			lines[i] = ManifestLine{
				Index: i, GraphicKey: d.key, PaletteKey: d.paletteKey,
				Width: d.width, Height: d.height, Path: path,
			}
			return nil
		})
	}
	g.Wait()

	out := make([]ManifestLine, 0, len(lines))
	for _, l := range lines {
		if l.Path != "" {
			out = append(out, l)
		}
	}
	return out, errs
}

func writeBMP(path string, width, height uint32, src PixelSource) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeBMP(f, width, height, src)
}
