package godb

import (
	"bytes"
	"testing"

	"github.com/d4l3k/messagediff"
)

// parse(serialize(p)) = p (invariant 1), checked at the byte level since
// that's the contract toBuffer/initFromBuffer actually promise.
func TestHeapPageRoundTrip(t *testing.T) {
	td := testTupleDesc()
	hf := &HeapFile{tupleDesc: td}
	pid := PageID{TableID: 1, PageNo: 0}

	hp, err := newHeapPage(pid, td, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	for i, name := range []string{"a", "b", "c"} {
		if _, err := hp.insertTuple(testTuple(int64(i), name)); err != nil {
			t.Fatalf("insertTuple: %v", err)
		}
	}

	buf, err := hp.toBuffer()
	if err != nil {
		t.Fatalf("toBuffer: %v", err)
	}
	if len(buf) != PageSize {
		t.Fatalf("serialized page is %d bytes, want %d", len(buf), PageSize)
	}

	parsed, err := newHeapPageFromBytes(pid, td, hf, buf)
	if err != nil {
		t.Fatalf("newHeapPageFromBytes: %v", err)
	}
	reserialized, err := parsed.toBuffer()
	if err != nil {
		t.Fatalf("toBuffer (2nd): %v", err)
	}
	if !bytes.Equal(buf, reserialized) {
		diff, _ := messagediff.PrettyDiff(buf, reserialized)
		t.Fatalf("parse(serialize(p)) != p:\n%s", diff)
	}
}

// Insert then delete the same tuple leaves the page image equal to the
// original bytes, modulo slot-bit churn on empty reinsert (here: no churn at
// all, since the slot starts and ends empty with the same bit cleared).
func TestHeapPageInsertDeleteRoundTrip(t *testing.T) {
	td := testTupleDesc()
	hf := &HeapFile{tupleDesc: td}
	pid := PageID{TableID: 1, PageNo: 0}

	hp, err := newHeapPage(pid, td, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	before, err := hp.toBuffer()
	if err != nil {
		t.Fatalf("toBuffer: %v", err)
	}

	rid, err := hp.insertTuple(testTuple(1, "x"))
	if err != nil {
		t.Fatalf("insertTuple: %v", err)
	}
	if err := hp.deleteTuple(rid); err != nil {
		t.Fatalf("deleteTuple: %v", err)
	}

	after, err := hp.toBuffer()
	if err != nil {
		t.Fatalf("toBuffer (after): %v", err)
	}
	if !bytes.Equal(before, after) {
		diff, _ := messagediff.PrettyDiff(before, after)
		t.Fatalf("insert-then-delete changed the page image:\n%s", diff)
	}
}

// Boundary behavior: a page with exactly one free slot accepts one more
// insert, and the next insert reports page-full.
func TestHeapPageFullBoundary(t *testing.T) {
	td := testTupleDesc()
	hf := &HeapFile{tupleDesc: td}
	pid := PageID{TableID: 1, PageNo: 0}

	hp, err := newHeapPage(pid, td, hf)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}

	for hp.numEmptySlots() > 1 {
		if _, err := hp.insertTuple(testTuple(0, "filler")); err != nil {
			t.Fatalf("filling page: %v", err)
		}
	}
	if hp.numEmptySlots() != 1 {
		t.Fatalf("expected exactly one empty slot, got %d", hp.numEmptySlots())
	}

	if _, err := hp.insertTuple(testTuple(99, "last")); err != nil {
		t.Fatalf("insert into last free slot: %v", err)
	}
	if hp.numEmptySlots() != 0 {
		t.Fatalf("expected zero empty slots after filling, got %d", hp.numEmptySlots())
	}

	if _, err := hp.insertTuple(testTuple(100, "overflow")); err == nil {
		t.Fatalf("expected page-full error, got nil")
	} else if gerr, ok := err.(GoDBError); !ok || gerr.code != PageFullError {
		t.Fatalf("expected PageFullError, got %v (%T)", err, err)
	}
}
