package godb

// types.go collects the constants and shared interfaces that every other
// file in the package builds on: page geometry, the transaction id space, and
// the Page/DBFile/Operator contracts that let the buffer pool, the heap
// storage layer, and the query operators interoperate without knowing about
// each other's concrete types.

import (
	"sync/atomic"
)

// PageSize is the fixed size, in bytes, of every page in every HeapFile and
// of every before/after image written to the log. Changing it changes the
// on-disk layout of every table.
const PageSize = 4096

// StringLength is the fixed, padded width of a STRING field, in bytes.
const StringLength = 32

// TransactionID is an opaque, globally unique, monotonically increasing
// identifier for a transaction. The zero value is never issued by NewTID.
type TransactionID int64

var nextTID int64

// NewTID allocates a fresh TransactionID. Safe for concurrent use.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&nextTID, 1))
}

// RWPerm is the permission requested when a caller asks the buffer pool or
// lock manager for a page: read-only (shared) or read-write (exclusive).
type RWPerm int

const (
	ReadPerm  RWPerm = iota
	WritePerm RWPerm = iota
)

// Page is implemented by every in-memory page representation cached by the
// BufferPool. HeapPage is, for now, the only implementation.
type Page interface {
	// isDirty reports the transaction that last wrote this page, or ok=false
	// if the page has no writes that have not yet been flushed to its home
	// file. A page committed but not yet flushed reports the zero
	// TransactionID with ok=true.
	isDirty() (tid TransactionID, ok bool)
	// setDirty records (or clears) which transaction last wrote this page.
	setDirty(tid TransactionID, dirty bool)
	// getFile returns the DBFile this page belongs to.
	getFile() DBFile
	// pageID returns the page's identity, used by the log to tag before/after
	// images and by the buffer pool to key its cache.
	pageID() PageID
	// toBuffer serializes the page to its fixed PageSize on-disk image.
	toBuffer() ([]byte, error)
	// getBeforeImage returns a fresh Page built from the last snapshot taken
	// by setBeforeImage -- the bytes as they stood at the last commit.
	getBeforeImage() (Page, error)
	// setBeforeImage snapshots the page's current serialized bytes. Called by
	// the buffer pool immediately after a transaction's update to this page
	// has been forced to the log.
	setBeforeImage()
}

// DBFile is implemented by on-disk table storage. HeapFile is the only
// implementation the core ships; a DBFile is always registered with a
// Catalog under a stable table id.
type DBFile interface {
	// insertTuple adds t to the file on behalf of tid, returning the single
	// page that was dirtied by the insert. The page is fetched through the
	// buffer pool, so it is already resident there; the caller is responsible
	// for marking it dirty.
	insertTuple(t *Tuple, tid TransactionID) (Page, error)
	// deleteTuple removes t (identified by its Rid) from the file, returning
	// the page it was removed from.
	deleteTuple(t *Tuple, tid TransactionID) (Page, error)
	// readPage reads page pageNo from disk, bypassing the buffer pool cache.
	readPage(pageNo int) (Page, error)
	// writePage seeks to p's slot in the backing file and overwrites it.
	// Used directly by BufferPool.flushPage (after the WAL force) and by log
	// rollback/recovery, both of which bypass the buffer pool cache entirely.
	writePage(p Page) error
	// pageKey returns the cache key the buffer pool uses for page pageNo of
	// this file.
	pageKey(pageNo int) any
	// id returns the stable table identifier for this file.
	id() int32
	// Descriptor returns the TupleDesc that every tuple in the file has.
	Descriptor() *TupleDesc
	// Iterator returns a forward cursor over every live tuple in the file, in
	// page-number order, fetching pages through the buffer pool.
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}

// Operator is the interface exposed by every query-execution node (scan,
// filter, join, ...). The core depends only on this shape; it does not know
// about the optimizer or the parser that build Operator trees.
type Operator interface {
	Descriptor() *TupleDesc
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}
