package godb

// heap_file.go implements HeapFile, an unordered collection of fixed-width
// tuples stored as a sequence of PageSize pages on disk. Tuple-level insert
// follows a find-or-append policy: scan the file's pages for a free slot under
// a cheap read lock, upgrading to a write lock only on the page actually
// mutated, and append a new page only when every existing page is full.

import (
	"fmt"
	"os"
	"sync"
)

// HeapFile is a public type because external callers (loaders, the catalog)
// instantiate tables by path.
type HeapFile struct {
	backingFile string
	tableID     int32
	tupleDesc   *TupleDesc
	bufPool     *BufferPool

	growMu sync.Mutex // serializes file-extension (appending a new page)
}

// NewHeapFile opens (or creates) a HeapFile backed by fromFile. td is the
// descriptor every tuple in the file shares; bp is the buffer pool pages of
// this file are cached through.
func NewHeapFile(fromFile string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	if _, err := os.OpenFile(fromFile, os.O_CREATE|os.O_RDONLY, 0644); err != nil {
		return nil, &IoError{Op: "open heap file", Err: err}
	}
	return &HeapFile{
		backingFile: fromFile,
		tableID:     tableIDForPath(fromFile),
		tupleDesc:   td,
		bufPool:     bp,
	}, nil
}

// BackingFile returns the name of the backing file.
func (f *HeapFile) BackingFile() string {
	return f.backingFile
}

func (f *HeapFile) id() int32 {
	return f.tableID
}

// TableID returns the stable table identifier callers outside the package
// (the catalog's own callers, a CLI) need to pass to BufferPool.InsertTuple.
func (f *HeapFile) TableID() int32 {
	return f.tableID
}

// NumPages returns the number of pages currently in the file.
func (f *HeapFile) NumPages() int {
	fi, err := os.Stat(f.backingFile)
	if err != nil {
		return 0
	}
	return int(fi.Size() / PageSize)
}

func (f *HeapFile) pageID(pageNo int) PageID {
	return PageID{TableID: f.tableID, PageNo: int32(pageNo)}
}

func (f *HeapFile) pageKey(pageNo int) any {
	return f.pageID(pageNo)
}

// Descriptor returns the TupleDesc shared by every tuple in the file.
func (f *HeapFile) Descriptor() *TupleDesc {
	return f.tupleDesc
}

// readPage reads page pageNo directly from disk, bypassing the buffer pool.
func (f *HeapFile) readPage(pageNo int) (Page, error) {
	file, err := os.OpenFile(f.backingFile, os.O_RDWR, 0644)
	if err != nil {
		return nil, &IoError{Op: "open for read", Err: err}
	}
	defer file.Close()

	data := make([]byte, PageSize)
	if _, err := file.ReadAt(data, int64(pageNo)*PageSize); err != nil {
		return nil, &IoError{Op: "read page", Err: err}
	}
	return newHeapPageFromBytes(f.pageID(pageNo), f.tupleDesc, f, data)
}

// writePage seeks to p's offset in the backing file and overwrites it.
func (f *HeapFile) writePage(p Page) error {
	hp, ok := p.(*heapPage)
	if !ok {
		return fmt.Errorf("heap file cannot write page of type %T", p)
	}
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return &IoError{Op: "open for write", Err: err}
	}
	defer file.Close()

	buf, err := hp.toBuffer()
	if err != nil {
		return err
	}
	if _, err := file.WriteAt(buf, int64(hp.PageNo())*PageSize); err != nil {
		return &IoError{Op: "write page", Err: err}
	}
	return nil
}

// insertTuple implements the find-or-append policy described in the package
// doc comment. It always goes through the buffer pool so that scanning
// traffic is properly locked.
func (f *HeapFile) insertTuple(t *Tuple, tid TransactionID) (Page, error) {
	if !t.Desc.equals(f.tupleDesc) {
		return nil, newGoDBError(DescriptorMismatchError, "tuple descriptor does not match file descriptor")
	}

	numPages := f.NumPages()
	for pageNo := 0; pageNo < numPages; pageNo++ {
		pg, err := f.bufPool.getPage(tid, f.pageID(pageNo), f, ReadPerm)
		if err != nil {
			return nil, err
		}
		hp := pg.(*heapPage)
		if hp.numEmptySlots() == 0 {
			f.bufPool.releasePage(tid, f.pageID(pageNo))
			continue
		}
		// Upgrade in place: we already hold S, LockManager grants X as an
		// upgrade rather than making us wait on ourselves.
		pg, err = f.bufPool.getPage(tid, f.pageID(pageNo), f, WritePerm)
		if err != nil {
			return nil, err
		}
		hp = pg.(*heapPage)
		if _, err := hp.insertTuple(t); err != nil {
			return nil, err
		}
		return hp, nil
	}

	return f.appendPageWith(t, tid)
}

// appendPageWith extends the file by one page, inserts t into it, and
// returns it. The page is fetched through the buffer pool, so it is already
// resident when returned.
func (f *HeapFile) appendPageWith(t *Tuple, tid TransactionID) (Page, error) {
	f.growMu.Lock()
	defer f.growMu.Unlock()

	// Re-read the page count under the growth lock, so a page another
	// inserter appended while we were scanning is not overwritten. That page
	// is not checked for room; a new page is always appended.
	pageNo := f.NumPages()
	newPage, err := newHeapPage(f.pageID(pageNo), f.tupleDesc, f)
	if err != nil {
		return nil, err
	}
	if err := f.writePage(newPage); err != nil {
		return nil, err
	}
	// Acquire the write lock on the freshly materialized page through the
	// pool so the transaction's lock bookkeeping stays consistent, then
	// re-insert into the pool's own copy (readPage re-parses what we just
	// wrote).
	pg, err := f.bufPool.getPage(tid, f.pageID(pageNo), f, WritePerm)
	if err != nil {
		return nil, err
	}
	hp := pg.(*heapPage)
	if _, err := hp.insertTuple(t); err != nil {
		return nil, err
	}
	return hp, nil
}

// deleteTuple removes t, identified by its Rid, from the page it names.
func (f *HeapFile) deleteTuple(t *Tuple, tid TransactionID) (Page, error) {
	if t.Rid == nil {
		return nil, newGoDBError(TupleNotOnPageError, "tuple has no record id")
	}
	pg, err := f.bufPool.getPage(tid, t.Rid.PID, f, WritePerm)
	if err != nil {
		return nil, err
	}
	hp := pg.(*heapPage)
	if err := hp.deleteTuple(t.Rid); err != nil {
		return nil, err
	}
	return hp, nil
}

// Iterator returns a forward cursor over every live tuple in the file, in
// page-number order, fetching pages READ-ONLY through the buffer pool.
func (f *HeapFile) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	pageNo := 0
	var pageIter func() (*Tuple, error)

	return func() (*Tuple, error) {
		for {
			if pageIter == nil {
				if pageNo >= f.NumPages() {
					return nil, nil
				}
				pg, err := f.bufPool.getPage(tid, f.pageID(pageNo), f, ReadPerm)
				if err != nil {
					return nil, err
				}
				pageIter = pg.(*heapPage).tupleIter()
			}
			t, err := pageIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				pageIter = nil
				pageNo++
				continue
			}
			out := *t
			out.Desc = *f.tupleDesc
			return &out, nil
		}
	}, nil
}

// LoadFromCSV bulk-loads rows from a delimited file, one transaction per
// row; hasHeader skips the first line, sep is the field delimiter, and
// skipLastField drops a trailing empty field some exports include.
func (f *HeapFile) LoadFromCSV(file *os.File, hasHeader bool, sep string, skipLastField bool) error {
	return loadHeapFileFromCSV(f, file, hasHeader, sep, skipLastField)
}
