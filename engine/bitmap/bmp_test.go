package bitmap

import (
	"bytes"
	"image"
	"testing"

	xbmp "golang.org/x/image/bmp"
)

// gridSource is a small PixelSource over an explicit BGR grid, for testing
// EncodeBMP independent of PalettizedGraphic/DirectColorGraphic.
type gridSource struct {
	width int
	px    [][3]byte // row-major, BGR
}

func (s gridSource) At(x, y int) (b, g, r byte) {
	e := s.px[y*s.width+x]
	return e[0], e[1], e[2]
}

func TestEncodeBMPRoundTrip(t *testing.T) {
	width, height := 4, 3
	src := gridSource{width: width, px: make([][3]byte, width*height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src.px[y*width+x] = [3]byte{byte(x * 10), byte(y * 10), byte(x + y)}
		}
	}

	var buf bytes.Buffer
	if err := EncodeBMP(&buf, uint32(width), uint32(height), src); err != nil {
		t.Fatalf("EncodeBMP: %v", err)
	}

	img, err := xbmp.Decode(&buf)
	if err != nil {
		t.Fatalf("x/image/bmp Decode: %v", err)
	}
	if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
		t.Fatalf("decoded bounds = %v, want %dx%d", img.Bounds(), width, height)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b, g, r := src.At(x, y)
			got := color3(img, x, y)
			want := [3]byte{r, g, b}
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func color3(img image.Image, x, y int) [3]byte {
	r, g, b, _ := img.At(x, y).RGBA()
	return [3]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8)}
}

func TestEncodeBMPHeaderFields(t *testing.T) {
	width, height := uint32(5), uint32(2) // width&3 == 1, exercises a 1-byte row pad
	src := gridSource{width: int(width), px: make([][3]byte, width*height)}

	var buf bytes.Buffer
	if err := EncodeBMP(&buf, width, height, src); err != nil {
		t.Fatalf("EncodeBMP: %v", err)
	}

	data := buf.Bytes()
	if data[0] != 'B' || data[1] != 'M' {
		t.Fatalf("signature = %q, want BM", data[0:2])
	}

	pad := rowPad(width)
	if pad != 1 {
		t.Fatalf("rowPad(5) = %d, want 1", pad)
	}
	wantImageSize := width*height*3 + uint32(pad)*height
	wantFileSize := wantImageSize + bmpHeaderSize

	fileSize := uint32(data[2]) | uint32(data[3])<<8 | uint32(data[4])<<16 | uint32(data[5])<<24
	if fileSize != wantFileSize {
		t.Fatalf("fileSize = %d, want %d", fileSize, wantFileSize)
	}
	if int(len(data)) != int(wantFileSize) {
		t.Fatalf("len(data) = %d, want %d", len(data), wantFileSize)
	}

	offset := uint32(data[10]) | uint32(data[11])<<8 | uint32(data[12])<<16 | uint32(data[13])<<24
	if offset != bmpHeaderSize {
		t.Fatalf("pixel data offset = %d, want %d", offset, bmpHeaderSize)
	}
	bitcount := uint16(data[28]) | uint16(data[29])<<8
	if bitcount != 24 {
		t.Fatalf("bitcount = %d, want 24", bitcount)
	}
}

func TestPaletteSourceAdapter(t *testing.T) {
	g := &PalettizedGraphic{Width: 2, Height: 1, Indices: []byte{0, 1}}
	pal := Palette{{1, 2, 3}, {4, 5, 6}}
	src := PaletteSource(g, pal)

	b, gr, r := src.At(0, 0)
	if b != 1 || gr != 2 || r != 3 {
		t.Fatalf("At(0,0) = (%d,%d,%d), want (1,2,3)", b, gr, r)
	}
	b, gr, r = src.At(1, 0)
	if b != 4 || gr != 5 || r != 6 {
		t.Fatalf("At(1,0) = (%d,%d,%d), want (4,5,6)", b, gr, r)
	}
}

func TestDirectColorSourceAdapter(t *testing.T) {
	g := &DirectColorGraphic{Width: 1, Height: 1, Pixels: []byte{9, 8, 7}}
	src := DirectColorSource(g)
	b, gr, r := src.At(0, 0)
	if r != 9 || gr != 8 || b != 7 {
		t.Fatalf("At(0,0) = (%d,%d,%d), want R=9 G=8 B=7", b, gr, r)
	}
}
