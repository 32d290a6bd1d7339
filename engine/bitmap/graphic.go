// Package bitmap decodes PORTAL graphic records — palettized textures and
// direct-color UI bitmaps — into 24-bit uncompressed BMP files.
package bitmap

import (
	"encoding/binary"
	"fmt"

	"turbinearc/engine/archive"
)

// Image type tags carried in a palettized graphic record's header.
const (
	ImageTypePalettized = 2
	ImageTypeUnknown    = 4 // possibly a bump map; format undocumented, unhandled
)

// palettizedHeaderSize is the byte size of the id/image_type/width/height
// header preceding a palettized record's index data.
const palettizedHeaderSize = 16

// directColorHeaderSize is the byte size of the id/width/height header
// preceding a direct-color record's pixel data.
const directColorHeaderSize = 12

// PalettizedGraphic is a decoded 0x05-prefix texture record: 8-bit indices
// into a palette referenced by key.
type PalettizedGraphic struct {
	ID         uint32
	ImageType  uint32
	Width      uint32
	Height     uint32
	Indices    []byte
	PaletteKey uint32
}

// ParsePalettizedGraphic decodes a record's raw bytes per the layout in
// spec §3: a 4-word header, width*height index bytes, then a list of 32-bit
// palette-reference keys. Only the first palette-reference key is consumed.
// The index region's length is rounded UP to a whole number of 32-bit
// words to locate that list: a fractional trailing word of index data is
// padded out, so the list starts at the first word boundary after the
// last index byte.
func ParsePalettizedGraphic(data []byte) (*PalettizedGraphic, error) {
	if len(data) < palettizedHeaderSize {
		return nil, &archive.RecordShapeError{Reason: fmt.Sprintf("palettized graphic: record too short (%d bytes)", len(data))}
	}

	g := &PalettizedGraphic{
		ID:        binary.LittleEndian.Uint32(data[0:4]),
		ImageType: binary.LittleEndian.Uint32(data[4:8]),
		Width:     binary.LittleEndian.Uint32(data[8:12]),
		Height:    binary.LittleEndian.Uint32(data[12:16]),
	}

	indexLen := int(g.Width) * int(g.Height)
	if palettizedHeaderSize+indexLen > len(data) {
		return nil, &archive.RecordShapeError{Key: g.ID, Reason: fmt.Sprintf("index data (%d bytes) overruns record", indexLen)}
	}
	g.Indices = data[palettizedHeaderSize : palettizedHeaderSize+indexLen]

	wholeWords := (indexLen + 3) / 4
	paletteListOffset := palettizedHeaderSize + wholeWords*4
	if paletteListOffset+4 > len(data) {
		return nil, &archive.RecordShapeError{Key: g.ID, Reason: "no palette-reference key present"}
	}
	g.PaletteKey = binary.LittleEndian.Uint32(data[paletteListOffset : paletteListOffset+4])

	return g, nil
}

// IndexAt returns the palette index for pixel (x,y).
func (g *PalettizedGraphic) IndexAt(x, y int) byte {
	return g.Indices[y*int(g.Width)+x]
}

// Palette is the 256-or-fewer entry B,G,R colour table a palettized graphic
// resolves its indices through. Any alpha/padding byte at +3 is ignored.
type Palette [][3]byte

// paletteHeaderSize is the opaque leading region of a palette record before
// its (B,G,R,_) quadruples begin.
const paletteHeaderSize = 8

// ParsePalette decodes a palette record's raw bytes per spec §3: an opaque
// 8-byte header, then 4-byte (B,G,R,_) entries.
func ParsePalette(data []byte) (Palette, error) {
	if len(data) < paletteHeaderSize {
		return nil, &archive.RecordShapeError{Reason: fmt.Sprintf("palette: record too short (%d bytes)", len(data))}
	}
	n := (len(data) - paletteHeaderSize) / 4
	pal := make(Palette, n)
	for i := 0; i < n; i++ {
		off := paletteHeaderSize + i*4
		pal[i] = [3]byte{data[off], data[off+1], data[off+2]}
	}
	return pal, nil
}

// At returns the B,G,R triple for index i, or black if i is out of range —
// a deliberately permissive fallback since the decoder must never panic on
// a malformed texture's out-of-range index byte.
func (p Palette) At(i byte) (b, g, r byte) {
	if int(i) >= len(p) {
		return 0, 0, 0
	}
	e := p[i]
	return e[0], e[1], e[2]
}

// DirectColorGraphic is a decoded 0x06-prefix UI bitmap: full 24-bit pixels.
type DirectColorGraphic struct {
	ID     uint32
	Width  uint32
	Height uint32
	Pixels []byte
}

// ParseDirectColorGraphic decodes a record's raw bytes per spec §3: a
// 3-word header followed by width*height*3 pixel bytes in R,G,B order.
func ParseDirectColorGraphic(data []byte) (*DirectColorGraphic, error) {
	if len(data) < directColorHeaderSize {
		return nil, &archive.RecordShapeError{Reason: fmt.Sprintf("direct-color graphic: record too short (%d bytes)", len(data))}
	}

	g := &DirectColorGraphic{
		ID:     binary.LittleEndian.Uint32(data[0:4]),
		Width:  binary.LittleEndian.Uint32(data[4:8]),
		Height: binary.LittleEndian.Uint32(data[8:12]),
	}

	pixelLen := int(g.Width) * int(g.Height) * 3
	if directColorHeaderSize+pixelLen > len(data) {
		return nil, &archive.RecordShapeError{Key: g.ID, Reason: fmt.Sprintf("pixel data (%d bytes) overruns record", pixelLen)}
	}
	g.Pixels = data[directColorHeaderSize : directColorHeaderSize+pixelLen]

	return g, nil
}

// At returns the destination B,G,R triple for pixel (x,y): the source bytes
// are stored R,G,B, so this swaps them into BMP's B,G,R order.
func (g *DirectColorGraphic) At(x, y int) (b, g2, r byte) {
	off := (y*int(g.Width) + x) * 3
	r = g.Pixels[off]
	g2 = g.Pixels[off+1]
	b = g.Pixels[off+2]
	return b, g2, r
}
