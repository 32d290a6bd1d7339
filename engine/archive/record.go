package archive

import "fmt"

// RecordReader reassembles a logical record of declared length from the
// chain of sectors that stores it.
type RecordReader struct {
	sr *SectorReader
}

// NewRecordReader builds a RecordReader over sr.
func NewRecordReader(sr *SectorReader) *RecordReader {
	return &RecordReader{sr: sr}
}

// Read walks the sector chain starting at startOffset and returns exactly
// length bytes, concatenating the payload region (bytes [4, sectorSize)) of
// each sector in order and truncating the final sector's contribution to fit.
//
// A length of zero returns an empty buffer without reading any sector, per
// the chain-length invariant ceil(L/(sectorSize-4)) == 0 for L == 0.
func (rr *RecordReader) Read(startOffset uint32, length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	out := make([]byte, 0, length)
	offset := startOffset
	remaining := length

	for {
		if offset == 0 {
			return nil, fmt.Errorf("%w: record truncated after %d of %d bytes", ErrNullPointer, length-remaining, length)
		}
		sector, err := rr.sr.ReadSector(offset)
		if err != nil {
			return nil, err
		}
		payload := sector[4:]
		take := len(payload)
		if take > remaining {
			take = remaining
		}
		out = append(out, payload[:take]...)
		remaining -= take

		if remaining == 0 {
			return out, nil
		}
		offset = nextPointer(sector)
	}
}
