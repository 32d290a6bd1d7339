package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildCellChain writes a chain of 256-byte dialect-C sectors at offsets
// 256, 512, 768, ... into a buffer at least big enough to hold them, each
// sector's payload filled with a byte value equal to its position in the
// chain (0, 1, 2, ...) repeated, so truncation/concatenation is easy to
// verify byte-by-byte. The last sector's next_pointer is 0.
func buildCellChain(n int) []byte {
	const secSize = 256
	buf := make([]byte, secSize*(n+1))
	for i := 0; i < n; i++ {
		off := secSize * (i + 1)
		var next uint32
		if i < n-1 {
			next = uint32(secSize * (i + 2))
		}
		binary.LittleEndian.PutUint32(buf[off:off+4], next)
		for j := off + 4; j < off+secSize; j++ {
			buf[j] = byte(i)
		}
	}
	return buf
}

func TestRecordChainFidelity(t *testing.T) {
	const payloadPerSector = 256 - 4
	cases := []struct {
		sectors int
		length  int
	}{
		{1, 100},
		{2, payloadPerSector + 50},
		{3, payloadPerSector*2 + 1},
		{4, payloadPerSector * 4},
	}

	for _, c := range cases {
		buf := buildCellChain(c.sectors)
		sr := NewSectorReader(bytes.NewReader(buf), DialectCell)
		rr := NewRecordReader(sr)

		got, err := rr.Read(256, c.length)
		if err != nil {
			t.Fatalf("sectors=%d length=%d: %v", c.sectors, c.length, err)
		}
		if len(got) != c.length {
			t.Fatalf("sectors=%d length=%d: got %d bytes", c.sectors, c.length, len(got))
		}

		remaining := c.length
		for i := 0; i < c.sectors && remaining > 0; i++ {
			take := payloadPerSector
			if take > remaining {
				take = remaining
			}
			for j := 0; j < take; j++ {
				idx := i*payloadPerSector + j
				if got[idx] != byte(i) {
					t.Fatalf("byte %d = %d, want %d (sector %d)", idx, got[idx], i, i)
				}
			}
			remaining -= take
		}
	}
}

func TestRecordZeroLength(t *testing.T) {
	sr := NewSectorReader(bytes.NewReader(make([]byte, 512)), DialectCell)
	rr := NewRecordReader(sr)

	got, err := rr.Read(256, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}
}

func TestRecordExactlyOneSectorDoesNotAdvance(t *testing.T) {
	const secSize = 256
	buf := make([]byte, secSize*2)
	// First sector's next_pointer points at an offset beyond the buffer;
	// if Read ever tried to follow it, ReadSector would fail.
	binary.LittleEndian.PutUint32(buf[256:260], 0xDEAD0000)
	for j := 260; j < 512; j++ {
		buf[j] = 0x42
	}

	sr := NewSectorReader(bytes.NewReader(buf), DialectCell)
	rr := NewRecordReader(sr)

	got, err := rr.Read(256, secSize-4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != secSize-4 {
		t.Fatalf("len(got) = %d, want %d", len(got), secSize-4)
	}
	for i, b := range got {
		if b != 0x42 {
			t.Fatalf("byte %d = %02X, want 42", i, b)
		}
	}
}

func TestRecordHighBitMaskedInNextPointer(t *testing.T) {
	const secSize = 256
	buf := make([]byte, secSize*3)
	// Sector at 256 has its next_pointer's high bit set, low 31 bits point
	// at 512 — a valid successor. The high bit must be masked off and 512
	// followed transparently.
	binary.LittleEndian.PutUint32(buf[256:260], 0x80000000|512)
	for j := 260; j < 512; j++ {
		buf[j] = 0xAA
	}
	binary.LittleEndian.PutUint32(buf[512:516], 0)
	for j := 516; j < 768; j++ {
		buf[j] = 0xBB
	}

	sr := NewSectorReader(bytes.NewReader(buf), DialectCell)
	rr := NewRecordReader(sr)

	length := (secSize - 4) + 10
	got, err := rr.Read(256, length)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i := 0; i < secSize-4; i++ {
		if got[i] != 0xAA {
			t.Fatalf("byte %d = %02X, want AA", i, got[i])
		}
	}
	for i := secSize - 4; i < length; i++ {
		if got[i] != 0xBB {
			t.Fatalf("byte %d = %02X, want BB", i, got[i])
		}
	}
}

func TestRecordNullPointerMidChainIsCorrupt(t *testing.T) {
	const secSize = 256
	buf := make([]byte, secSize*2)
	binary.LittleEndian.PutUint32(buf[256:260], 0) // terminates after one sector

	sr := NewSectorReader(bytes.NewReader(buf), DialectCell)
	rr := NewRecordReader(sr)

	_, err := rr.Read(256, (secSize-4)+1)
	if !errors.Is(err, ErrNullPointer) {
		t.Fatalf("Read = %v, want ErrNullPointer", err)
	}
}
