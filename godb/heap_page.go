package godb

// heap_page.go implements HeapPage, the Page for HeapFiles. A page is a
// fixed PageSize-byte image: a bitmap header recording which of the page's
// fixed-width slots are occupied, followed by the slots themselves, followed
// by zero padding out to PageSize. Unlike the lab this module started from,
// slot occupancy lives in an explicit bitmap rather than being inferred from
// a nil pointer, so that parse(serialize(p)) is bit-exact and the header
// length depends only on the tuple size and the page size.

import (
	"bytes"
	"fmt"
)

type heapPage struct {
	pid         PageID
	desc        *TupleDesc
	file        *HeapFile
	numSlots    int
	header      []byte // ceil(numSlots/8) bytes, bit i <=> slot i occupied
	tuples      []*Tuple
	dirtier     TransactionID
	isDirtyFlag bool
	beforeImage []byte // snapshot taken by setBeforeImage
}

// tupleSize returns the on-disk width, in bytes, of a single tuple for the
// supplied descriptor.
func tupleSize(desc *TupleDesc) (int, error) {
	size := 0
	for _, f := range desc.Fields {
		switch f.Ftype {
		case IntType:
			size += 8
		case StringType:
			size += StringLength
		default:
			return 0, fmt.Errorf("invalid field type in descriptor: %v", f.Ftype)
		}
	}
	if size == 0 {
		return 0, fmt.Errorf("descriptor has no fields")
	}
	return size, nil
}

// numSlotsForDesc computes S = floor((PageSize*8) / (tupleSize*8 + 1)), the
// number of slots that fit on a page once the one bit of header overhead per
// slot is accounted for.
func numSlotsForDesc(desc *TupleDesc) (int, error) {
	ts, err := tupleSize(desc)
	if err != nil {
		return 0, err
	}
	return (PageSize * 8) / (ts*8 + 1), nil
}

func headerSizeForSlots(numSlots int) int {
	return (numSlots + 7) / 8
}

// newHeapPage constructs an empty page: pid and desc determine its slot
// layout, f is the owning file.
func newHeapPage(pid PageID, desc *TupleDesc, f *HeapFile) (*heapPage, error) {
	numSlots, err := numSlotsForDesc(desc)
	if err != nil {
		return nil, err
	}
	hp := &heapPage{
		pid:      pid,
		desc:     desc,
		file:     f,
		numSlots: numSlots,
		header:   make([]byte, headerSizeForSlots(numSlots)),
		tuples:   make([]*Tuple, numSlots),
	}
	buf, err := hp.toBuffer()
	if err != nil {
		return nil, err
	}
	hp.beforeImage = buf
	return hp, nil
}

// newHeapPageFromBytes parses a PageSize-byte on-disk image into a page.
func newHeapPageFromBytes(pid PageID, desc *TupleDesc, f *HeapFile, data []byte) (*heapPage, error) {
	hp, err := newHeapPage(pid, desc, f)
	if err != nil {
		return nil, err
	}
	if err := hp.initFromBuffer(data); err != nil {
		return nil, err
	}
	// Always take a clone of the parsed image as the initial before-image.
	clone := make([]byte, len(data))
	copy(clone, data)
	hp.beforeImage = clone
	return hp, nil
}

func (h *heapPage) bitSet(i int) bool {
	return h.header[i/8]&(1<<uint(i%8)) != 0
}

func (h *heapPage) setBit(i int, v bool) {
	if v {
		h.header[i/8] |= 1 << uint(i%8)
	} else {
		h.header[i/8] &^= 1 << uint(i%8)
	}
}

// isSlotUsed reports whether slot i is occupied.
func (h *heapPage) isSlotUsed(i int) bool {
	return h.bitSet(i)
}

// numEmptySlots counts the zero bits among the page's numSlots slots.
func (h *heapPage) numEmptySlots() int {
	empty := 0
	for i := 0; i < h.numSlots; i++ {
		if !h.bitSet(i) {
			empty++
		}
	}
	return empty
}

// insertTuple writes t into the lowest-index empty slot, stamping t's
// RecordID, or fails if the page is full or t's descriptor doesn't match.
func (h *heapPage) insertTuple(t *Tuple) (*RecordID, error) {
	if !t.Desc.equals(h.desc) {
		return nil, newGoDBError(DescriptorMismatchError, "tuple descriptor does not match page descriptor")
	}
	for slot := 0; slot < h.numSlots; slot++ {
		if h.bitSet(slot) {
			continue
		}
		rid := &RecordID{PID: h.pid, Slot: int32(slot)}
		stored := &Tuple{Desc: *h.desc, Fields: t.Fields, Rid: rid}
		h.tuples[slot] = stored
		h.setBit(slot, true)
		t.Rid = rid
		return rid, nil
	}
	return nil, newGoDBError(PageFullError, "no empty slot on page")
}

// deleteTuple clears the slot identified by rid, or fails if the rid does
// not reference this page or the slot is already empty.
func (h *heapPage) deleteTuple(rid *RecordID) error {
	if rid == nil || rid.PID != h.pid {
		return newGoDBError(TupleNotOnPageError, "record id does not reference this page")
	}
	slot := int(rid.Slot)
	if slot < 0 || slot >= h.numSlots || !h.bitSet(slot) {
		return newGoDBError(SlotEmptyError, "slot is already empty")
	}
	h.tuples[slot] = nil
	h.setBit(slot, false)
	return nil
}

func (h *heapPage) isDirty() (TransactionID, bool) {
	return h.dirtier, h.isDirtyFlag
}

func (h *heapPage) setDirty(tid TransactionID, dirty bool) {
	h.isDirtyFlag = dirty
	if dirty {
		h.dirtier = tid
	}
}

func (h *heapPage) getFile() DBFile {
	return h.file
}

func (h *heapPage) pageID() PageID {
	return h.pid
}

func (h *heapPage) PageNo() int {
	return int(h.pid.PageNo)
}

// toBuffer serializes the page: header bytes, then numSlots tuple-sized
// slots (occupied slots hold their tuple's bytes, empty slots are zeroed),
// then zero padding to PageSize.
func (h *heapPage) toBuffer() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(h.header)

	ts, err := tupleSize(h.desc)
	if err != nil {
		return nil, err
	}
	for slot := 0; slot < h.numSlots; slot++ {
		if h.bitSet(slot) && h.tuples[slot] != nil {
			if err := h.tuples[slot].writeTo(buf); err != nil {
				return nil, err
			}
		} else {
			buf.Write(make([]byte, ts))
		}
	}
	if buf.Len() > PageSize {
		return nil, fmt.Errorf("serialized page exceeds PageSize: %d > %d", buf.Len(), PageSize)
	}
	padded := make([]byte, PageSize)
	copy(padded, buf.Bytes())
	return padded, nil
}

// initFromBuffer parses a PageSize-byte image, populating the bitmap and
// every occupied slot's tuple. data must be exactly PageSize bytes.
func (h *heapPage) initFromBuffer(data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("heap page image must be %d bytes, got %d", PageSize, len(data))
	}
	headerLen := headerSizeForSlots(h.numSlots)
	header := make([]byte, headerLen)
	copy(header, data[:headerLen])
	h.header = header

	ts, err := tupleSize(h.desc)
	if err != nil {
		return err
	}
	h.tuples = make([]*Tuple, h.numSlots)
	body := data[headerLen:]
	for slot := 0; slot < h.numSlots; slot++ {
		start := slot * ts
		slotBytes := body[start : start+ts]
		if !h.bitSet(slot) {
			continue
		}
		tup, err := readTupleFrom(bytes.NewBuffer(slotBytes), h.desc)
		if err != nil {
			return fmt.Errorf("parsing occupied slot %d: %w", slot, err)
		}
		tup.Rid = &RecordID{PID: h.pid, Slot: int32(slot)}
		h.tuples[slot] = tup
	}
	return nil
}

// tupleIter returns a cursor over the page's live tuples in slot order.
func (h *heapPage) tupleIter() func() (*Tuple, error) {
	slot := 0
	return func() (*Tuple, error) {
		for slot < h.numSlots {
			t := h.tuples[slot]
			slot++
			if t != nil {
				return t, nil
			}
		}
		return nil, nil
	}
}

// getBeforeImage returns a fresh page parsed from the last snapshot taken by
// setBeforeImage.
func (h *heapPage) getBeforeImage() (Page, error) {
	if h.beforeImage == nil {
		return nil, fmt.Errorf("no before image recorded for page %v", h.pid)
	}
	return newHeapPageFromBytes(h.pid, h.desc, h.file, h.beforeImage)
}

// setBeforeImage snapshots the page's current serialized bytes.
func (h *heapPage) setBeforeImage() {
	buf, err := h.toBuffer()
	if err != nil {
		// toBuffer only fails on a corrupt descriptor, which would already
		// have failed every prior insert/delete on this page.
		return
	}
	h.beforeImage = buf
}
