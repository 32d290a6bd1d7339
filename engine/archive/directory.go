package archive

import (
	"encoding/binary"
	"fmt"
)

// numFilesWord is the logical word index holding the entry count (NUMFILES).
const numFilesWord = 0x3F

// entriesStartWord is the logical word index where the (key,offset,length)
// triples begin.
const entriesStartWord = 0x40

// maxEntries is the largest legal NUMFILES value (exclusive) — a node with
// NUMFILES >= maxEntries is corrupt.
const maxEntries = 0x3F

// maxDepth bounds traversal recursion. The on-disk structure is specified as
// a tree but nothing prevents a corrupt or adversarial file from encoding a
// cycle; depth is checked instead of a visited set so the index stays
// stateless across calls.
const maxDepth = 32

// Locator is the (offset, length) pair a directory lookup resolves a key to.
type Locator struct {
	Offset uint32
	Length uint32
}

// Triple is one directory entry as seen during enumeration.
type Triple struct {
	Key    uint32
	Offset uint32
	Length uint32
}

// dirNode is a directory page reconstituted into its logical word array, as
// described in spec §4.3.1 — independent of how many on-disk sectors it took
// to build.
type dirNode struct {
	words []uint32
}

func (n *dirNode) numFiles() uint32 { return n.words[numFilesWord] }

func (n *dirNode) isLeaf() bool { return n.words[0] == 0 }

func (n *dirNode) child(i uint32) uint32 { return n.words[i] }

func (n *dirNode) entryKey(i uint32) uint32 { return n.words[entriesStartWord+i*3] }

func (n *dirNode) entryOffset(i uint32) uint32 { return n.words[entriesStartWord+i*3+1] }

func (n *dirNode) entryLength(i uint32) uint32 { return n.words[entriesStartWord+i*3+2] }

// DirectoryIndex answers key lookups and range enumerations against the
// on-disk B-tree rooted at a caller-supplied offset. It holds no state of
// its own beyond the sector reader and dialect: a failed call never poisons
// a later one.
type DirectoryIndex struct {
	sr      *SectorReader
	dialect Dialect
}

// NewDirectoryIndex builds a DirectoryIndex over sr for the given dialect.
func NewDirectoryIndex(sr *SectorReader, dialect Dialect) *DirectoryIndex {
	return &DirectoryIndex{sr: sr, dialect: dialect}
}

// wordsFromBytes reinterprets a raw sector as little-endian 32-bit words.
func wordsFromBytes(dst []uint32, raw []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
}

// reconstituteNode reads the one (dialect P) or up-to-four linked (dialect C)
// sectors at offset and assembles the node's logical word array.
func (di *DirectoryIndex) reconstituteNode(offset uint32) (*dirNode, error) {
	if di.dialect == DialectPortal {
		sector, err := di.sr.ReadSector(offset)
		if err != nil {
			return nil, err
		}
		words := make([]uint32, len(sector)/4)
		wordsFromBytes(words, sector)
		return &dirNode{words: words}, nil
	}

	// Dialect C: up to four 256-byte sectors chained by next_pointer. The
	// logical array is contiguous from the start of sector 1; each
	// successor's header word is consumed as the pointer to the sector
	// after it and discarded rather than copied into the array.
	words := make([]uint32, 256)

	s1, err := di.sr.ReadSector(offset)
	if err != nil {
		return nil, err
	}
	wordsFromBytes(words[0:64], s1)

	next := nextPointer(s1)
	if next != 0 {
		s2, err := di.sr.ReadSector(next)
		if err != nil {
			return nil, err
		}
		wordsFromBytes(words[64:127], s2[4:])

		next = nextPointer(s2)
		if next != 0 {
			s3, err := di.sr.ReadSector(next)
			if err != nil {
				return nil, err
			}
			wordsFromBytes(words[127:190], s3[4:])

			next = nextPointer(s3)
			if next != 0 {
				s4, err := di.sr.ReadSector(next)
				if err != nil {
					return nil, err
				}
				wordsFromBytes(words[190:253], s4[4:])
			}
		}
	}

	return &dirNode{words: words}, nil
}

// loadNode reconstitutes a node and validates its entry count.
func (di *DirectoryIndex) loadNode(offset uint32) (*dirNode, error) {
	node, err := di.reconstituteNode(offset)
	if err != nil {
		return nil, err
	}
	if node.numFiles() >= maxEntries {
		return nil, fmt.Errorf("%w: NUMFILES=%d at offset %08X", ErrCorruptDirectory, node.numFiles(), offset)
	}
	return node, nil
}

// scan finds the smallest entry index i in [0,N) with entryKey(i) >= key.
func scan(node *dirNode, key uint32) uint32 {
	n := node.numFiles()
	lo, hi := uint32(0), n
	for lo < hi {
		mid := (lo + hi) / 2
		if node.entryKey(mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Locate resolves key to its (offset,length) under the B-tree rooted at root.
func (di *DirectoryIndex) Locate(root uint32, key uint32) (Locator, error) {
	offset := root
	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return Locator{}, fmt.Errorf("%w: depth exceeded %d while locating %08X", ErrCorruptDirectory, maxDepth, key)
		}
		node, err := di.loadNode(offset)
		if err != nil {
			return Locator{}, err
		}

		n := node.numFiles()
		i := scan(node, key)
		if i < n && node.entryKey(i) == key {
			return Locator{Offset: node.entryOffset(i), Length: node.entryLength(i)}, nil
		}
		if node.isLeaf() {
			return Locator{}, fmt.Errorf("%w: %08X", ErrNotFound, key)
		}

		next := node.child(i)
		if next == 0 {
			return Locator{}, fmt.Errorf("%w: descended into null child for %08X", ErrNullPointer, key)
		}
		offset = next
	}
}

// NodeStats summarizes a directory subtree's shape: the total number of
// nodes visited and the total number of entries stored across them. It
// exists for diagnostic tools (`inspect`) that want a shape summary without
// needing every key.
type NodeStats struct {
	Nodes   int
	Entries int
}

// CountNodes walks the subtree rooted at root and reports its NodeStats.
func (di *DirectoryIndex) CountNodes(root uint32) (NodeStats, error) {
	var stats NodeStats
	err := di.countNodes(root, &stats, 0)
	return stats, err
}

func (di *DirectoryIndex) countNodes(offset uint32, stats *NodeStats, depth int) error {
	if offset == 0 {
		return nil
	}
	if depth >= maxDepth {
		return fmt.Errorf("%w: depth exceeded %d while counting nodes", ErrCorruptDirectory, maxDepth)
	}
	node, err := di.loadNode(offset)
	if err != nil {
		return err
	}
	stats.Nodes++
	stats.Entries += int(node.numFiles())

	if !node.isLeaf() {
		n := node.numFiles()
		for i := uint32(0); i <= n; i++ {
			if err := di.countNodes(node.child(i), stats, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Enumerate performs an in-order traversal of the subtree rooted at root,
// invoking visit for every entry whose key satisfies pred. Traversal order
// is child[0], entry[0], child[1], entry[1], ..., child[N], matching the
// ascending-key order entries are stored in. visit returning a non-nil error
// aborts the traversal and propagates that error.
func (di *DirectoryIndex) Enumerate(root uint32, pred func(key uint32) bool, visit func(Triple) error) error {
	return di.enumerate(root, pred, visit, 0)
}

func (di *DirectoryIndex) enumerate(offset uint32, pred func(key uint32) bool, visit func(Triple) error, depth int) error {
	if offset == 0 {
		return nil
	}
	if depth >= maxDepth {
		return fmt.Errorf("%w: depth exceeded %d during enumeration", ErrCorruptDirectory, maxDepth)
	}
	node, err := di.loadNode(offset)
	if err != nil {
		return err
	}

	n := node.numFiles()
	for i := uint32(0); i <= n; i++ {
		if !node.isLeaf() {
			if err := di.enumerate(node.child(i), pred, visit, depth+1); err != nil {
				return err
			}
		}
		if i == n {
			break
		}
		key := node.entryKey(i)
		if pred(key) {
			if err := visit(Triple{Key: key, Offset: node.entryOffset(i), Length: node.entryLength(i)}); err != nil {
				return err
			}
		}
	}
	return nil
}
