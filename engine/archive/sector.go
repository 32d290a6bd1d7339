package archive

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Dialect distinguishes the two archive layouts the host files come in. They
// differ only in sector size and, downstream, in how directory nodes are
// reconstituted from sector chains (see directory.go).
type Dialect int

const (
	// DialectPortal is the 1024-byte-sector layout used by PORTAL.DAT.
	DialectPortal Dialect = iota
	// DialectCell is the 256-byte-sector layout used by CELL.DAT.
	DialectCell
)

func (d Dialect) String() string {
	switch d {
	case DialectPortal:
		return "portal"
	case DialectCell:
		return "cell"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// SectorSize returns the fixed block size for the dialect.
func (d Dialect) SectorSize() int {
	switch d {
	case DialectCell:
		return 256
	default:
		return 1024
	}
}

// rootDirPtrOffset is the byte offset, within the reserved header, of the
// little-endian word holding the root directory sector offset.
const rootDirPtrOffset = 0x148

// nextPointerMask strips the reserved high-bit flag from a next_pointer word,
// leaving only the 31-bit offset it encodes.
const nextPointerMask = 0x7FFFFFFF

// SectorReader delivers fixed-size blocks from a host archive file at
// arbitrary byte offsets. It holds no cache: every call re-reads from the
// underlying file, since higher layers are specified to read each sector at
// most once per logical operation.
type SectorReader struct {
	r    io.ReaderAt
	size int
}

// NewSectorReader wraps r for dialect-sized positional reads.
func NewSectorReader(r io.ReaderAt, dialect Dialect) *SectorReader {
	return &SectorReader{r: r, size: dialect.SectorSize()}
}

// SectorSize reports the fixed block size this reader was built for.
func (s *SectorReader) SectorSize() int { return s.size }

// ReadSector returns exactly SectorSize() bytes starting at offset.
func (s *SectorReader) ReadSector(offset uint32) ([]byte, error) {
	if offset == 0 {
		return nil, ErrNullPointer
	}
	buf := make([]byte, s.size)
	n, err := s.r.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: offset %08X: %v", ErrSeek, offset, err)
	}
	if n != s.size {
		return nil, fmt.Errorf("%w: offset %08X: got %d of %d bytes", ErrShortRead, offset, n, s.size)
	}
	return buf, nil
}

// ReadWord reads a single little-endian 32-bit word at offset, independent of
// the sector size — used for isolated header fields like the root directory
// pointer.
func (s *SectorReader) ReadWord(offset int64) (uint32, error) {
	var buf [4]byte
	n, err := s.r.ReadAt(buf[:], offset)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w: offset %08X: %v", ErrSeek, offset, err)
	}
	if n != 4 {
		return 0, fmt.Errorf("%w: offset %08X: got %d of 4 bytes", ErrShortRead, offset, n)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// RootDirectoryOffset reads the root directory sector pointer from the
// reserved header.
func (s *SectorReader) RootDirectoryOffset() (uint32, error) {
	return s.ReadWord(rootDirPtrOffset)
}

// nextPointer extracts the masked successor offset from a sector's first word.
func nextPointer(sector []byte) uint32 {
	return binary.LittleEndian.Uint32(sector[0:4]) & nextPointerMask
}
