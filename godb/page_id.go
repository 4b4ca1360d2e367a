package godb

import (
	"hash/fnv"
	"path/filepath"
)

// PageID identifies a page uniquely across the whole database: the table it
// belongs to, plus its zero-based page number within that table's file.
// Both halves serialize as 32-bit integers on disk (log records and,
// indirectly, any future multi-file catalog).
type PageID struct {
	TableID int32
	PageNo  int32
}

// RecordID identifies a tuple's location: the page it lives on and its slot
// index within that page's header bitmap.
type RecordID struct {
	PID  PageID
	Slot int32
}

// tableIDForPath computes the stable table identifier for a backing file:
// the FNV-1a hash of its absolute path, folded into 32 bits. Two HeapFiles
// opened against the same path (even via different relative spellings)
// always get the same TableID.
func tableIDForPath(path string) int32 {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(abs))
	sum := h.Sum64()
	return int32(uint32(sum ^ (sum >> 32)))
}

// toInts serializes a PageID into the (discriminator-free) int array format
// the log file uses to reconstruct ids without reflection: every page-id
// kind implements a pure fromInts factory instead of being built through a
// reflective constructor call.
func (p PageID) toInts() []int32 {
	return []int32{p.TableID, p.PageNo}
}

// pageIDFromInts is the factory counterpart of toInts.
func pageIDFromInts(ints []int32) (PageID, error) {
	if len(ints) != 2 {
		return PageID{}, &IllegalStateError{Msg: "page id requires exactly 2 int args"}
	}
	return PageID{TableID: ints[0], PageNo: ints[1]}, nil
}
