package archive

import (
	"fmt"
	"io"
	"os"
)

// Archive bundles the three layers a consumer actually needs: a positional
// sector reader, a record reassembler, and a directory index, all opened
// against the same host file and dialect. It also remembers the root
// directory pointer read from the reserved header so callers don't have to
// thread it through separately.
type Archive struct {
	f       *os.File
	Dialect Dialect
	Sectors *SectorReader
	Records *RecordReader
	Dir     *DirectoryIndex
	Root    uint32
}

// Open opens path for read-only positional access, builds the layered
// readers for dialect, and reads the root directory pointer from the
// reserved header. The caller must call Close when done; every driver
// opens its own Archive for the duration of one operation and releases it
// on every exit path, per spec's resource-scope design note.
func Open(path string, dialect Dialect) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	sr := NewSectorReader(f, dialect)
	root, err := sr.RootDirectoryOffset()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: read root directory pointer: %w", path, err)
	}

	return &Archive{
		f:       f,
		Dialect: dialect,
		Sectors: sr,
		Records: NewRecordReader(sr),
		Dir:     NewDirectoryIndex(sr, dialect),
		Root:    root,
	}, nil
}

// Close releases the underlying host file handle.
func (a *Archive) Close() error {
	return a.f.Close()
}

// Fetch locates key and returns its fully reassembled record bytes. This is
// the common path every consumer (extract, BitmapDecoder, LandblockAggregator)
// drives: Locate then Read.
func (a *Archive) Fetch(key uint32) ([]byte, error) {
	loc, err := a.Dir.Locate(a.Root, key)
	if err != nil {
		return nil, err
	}
	return a.Records.Read(loc.Offset, int(loc.Length))
}

// TypeTag returns the high 8 bits of a key: the record's type tag.
func TypeTag(key uint32) byte { return byte(key >> 24) }

// HasTypeTag builds an Enumerate predicate matching every key whose type
// tag equals tag, e.g. HasTypeTag(0x05) for PORTAL texture records.
func HasTypeTag(tag byte) func(uint32) bool {
	return func(key uint32) bool { return TypeTag(key) == tag }
}

// LowWordEquals builds an Enumerate predicate matching every key whose low
// 16 bits equal v — the landblock-record pattern (xxyyFFFF has low word
// 0xFFFF).
func LowWordEquals(v uint16) func(uint32) bool {
	return func(key uint32) bool { return uint32(uint16(key)) == uint32(v) }
}

// SniffDialect inspects the root-directory pointer at the conventional
// header offset under both sector granularities and reports which dialect's
// sector size the pointer is a plausible multiple of. PORTAL.DAT and
// CELL.DAT carry no dialect tag of their own — a caller must otherwise know
// which file it opened — so this is a heuristic, not a format field: ties
// and ambiguous pointers resolve to DialectPortal, since a unified tool's
// users are more likely to be pointed at the larger, texture-bearing
// archive than at CELL.
func SniffDialect(path string) (Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return DialectPortal, &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	var buf [4]byte
	if _, err := f.ReadAt(buf[:], rootDirPtrOffset); err != nil && err != io.EOF {
		return DialectPortal, fmt.Errorf("%s: read root directory pointer: %w", path, err)
	}
	root := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24

	portalAligned := root%uint32(DialectPortal.SectorSize()) == 0
	cellAligned := root%uint32(DialectCell.SectorSize()) == 0

	if cellAligned && !portalAligned {
		return DialectCell, nil
	}
	return DialectPortal, nil
}
