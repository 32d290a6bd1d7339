package bitmap

import (
	"bufio"
	"encoding/binary"
	"io"
)

// bmpHeaderSize is the combined size of the 14-byte BITMAPFILEHEADER and the
// 40-byte BITMAPINFOHEADER this encoder writes, matching the original's
// fixed offset of 54.
const bmpHeaderSize = 54

// rowPad returns the original's padding count for a row of width pixels.
// The original computes this as width&3; for a 3-byte-per-pixel row that is
// exactly the pad the BMP "round stride up to a multiple of 4" rule gives
// (3*width + width&3 is always a multiple of 4), and the header's image and
// file sizes are computed with the same value.
func rowPad(width uint32) int {
	return int(width & 3)
}

// PixelSource supplies one BGR triple per pixel to the BMP encoder. Both
// PalettizedGraphic (resolved through a Palette) and DirectColorGraphic
// are adapted to it by the small adapter types below (PaletteSource,
// DirectColorSource).
type PixelSource interface {
	At(x, y int) (b, g, r byte)
}

// EncodeBMP writes an uncompressed 24-bit Windows BITMAPINFOHEADER bitmap of
// width x height pixels, sourced row-by-row (bottom-up, per BMP convention)
// from src, to w.
func EncodeBMP(w io.Writer, width, height uint32, src PixelSource) error {
	bw := bufio.NewWriter(w)

	pad := rowPad(width)
	imageSize := width*height*3 + uint32(pad)*height
	fileSize := imageSize + bmpHeaderSize

	var hdr [bmpHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], 0x4D42) // "BM"
	binary.LittleEndian.PutUint32(hdr[2:6], fileSize)
	// bytes 6:10 reserved, left zero
	binary.LittleEndian.PutUint32(hdr[10:14], bmpHeaderSize)
	binary.LittleEndian.PutUint32(hdr[14:18], 40) // BITMAPINFOHEADER size
	binary.LittleEndian.PutUint32(hdr[18:22], width)
	binary.LittleEndian.PutUint32(hdr[22:26], height)
	binary.LittleEndian.PutUint16(hdr[26:28], 1)  // planes
	binary.LittleEndian.PutUint16(hdr[28:30], 24) // bits per pixel
	// bytes 30:34 compression, left zero (BI_RGB)
	binary.LittleEndian.PutUint32(hdr[34:38], imageSize)
	// bytes 38:54: XPelsPerMeter, YPelsPerMeter, ColorsUsed, ColorsImportant — all zero
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	padBytes := make([]byte, pad)
	w2 := int(width)
	h2 := int(height)
	for y := h2 - 1; y >= 0; y-- {
		for x := 0; x < w2; x++ {
			b, g, r := src.At(x, y)
			if _, err := bw.Write([]byte{b, g, r}); err != nil {
				return err
			}
		}
		if pad > 0 {
			if _, err := bw.Write(padBytes); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// palettizedSource adapts a PalettizedGraphic + resolved Palette to
// PixelSource.
type palettizedSource struct {
	g   *PalettizedGraphic
	pal Palette
}

func (s palettizedSource) At(x, y int) (b, g, r byte) {
	return s.pal.At(s.g.IndexAt(x, y))
}

// PaletteSource adapts a decoded palettized graphic and its resolved
// palette into a PixelSource for EncodeBMP.
func PaletteSource(g *PalettizedGraphic, pal Palette) PixelSource {
	return palettizedSource{g: g, pal: pal}
}

// directColorSource adapts a DirectColorGraphic to PixelSource.
type directColorSource struct {
	g *DirectColorGraphic
}

func (s directColorSource) At(x, y int) (b, g, r byte) {
	return s.g.At(x, y)
}

// DirectColorSource adapts a decoded direct-color graphic into a
// PixelSource for EncodeBMP.
func DirectColorSource(g *DirectColorGraphic) PixelSource {
	return directColorSource{g: g}
}
