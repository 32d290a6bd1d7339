package archive

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions spec'd in the archive's error taxonomy.
// Callers should compare with errors.Is, since most returned errors are
// wrapped with the offset or key at fault.
var (
	ErrNullPointer      = errors.New("archive: null sector pointer")
	ErrCorruptDirectory = errors.New("archive: corrupt directory node")
	ErrNotFound         = errors.New("archive: key not found")
	ErrShortRead        = errors.New("archive: short sector read")
	ErrSeek             = errors.New("archive: seek failed")
)

// OpenError reports that the host archive file could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("archive: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// RecordShapeError reports that a record's decoded shape did not match what a
// consumer required (wrong length, unsupported image_type, and so on).
type RecordShapeError struct {
	Key    uint32
	Reason string
}

func (e *RecordShapeError) Error() string {
	return fmt.Sprintf("archive: record %08X: %s", e.Key, e.Reason)
}
