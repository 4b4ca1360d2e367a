package godb

// buffer_pool.go implements BufferPool: a bounded, shared cache of pages
// that is also where transaction discipline lives. Every page access goes
// through getPage, which acquires the appropriate lock before ever touching
// the cache or disk; every write-back goes through a path that forces the
// transaction's log record before the bytes reach their home file.
//
// The monitor ordering required by section 5 (BufferPool monitor before
// LogFile monitor) falls out naturally here: bp.mu is only ever held while
// calling into lf -- never the reverse. LogFile.LogAbort and
// LogCheckpoint, which need to touch the pool, take bp's monitor themselves
// before their own (see log_file.go).

import (
	"math/rand"
	"sync"
)

type BufferPool struct {
	mu       sync.Mutex
	capacity int
	pages    map[PageID]Page

	lockMgr *lockManager
	logFile *LogFile
	catalog *Catalog
}

// NewBufferPool creates a BufferPool holding at most numPages pages.
func NewBufferPool(numPages int) (*BufferPool, error) {
	if numPages <= 0 {
		return nil, newGoDBError(BufferPoolFullError, "buffer pool must hold at least one page")
	}
	return &BufferPool{
		capacity: numPages,
		pages:    make(map[PageID]Page),
		lockMgr:  newLockManager(),
	}, nil
}

// SetCatalog wires the catalog the pool uses to resolve a PageID's TableID
// to a DBFile for the public GetPage/InsertTuple/DeleteTuple entry points.
func (bp *BufferPool) SetCatalog(c *Catalog) {
	bp.catalog = c
}

// SetLogFile wires the log the pool forces before any dirty page leaves
// memory or is committed.
func (bp *BufferPool) SetLogFile(lf *LogFile) {
	bp.logFile = lf
}

// GetPage resolves pid's table via the catalog and fetches the page,
// acquiring perm on behalf of tid. This is the interface external callers
// (query operators, the catalog's own loaders) use; HeapFile uses the
// file-qualified getPage directly since it already knows its own DBFile.
func (bp *BufferPool) GetPage(tid TransactionID, pid PageID, perm RWPerm) (Page, error) {
	file, err := bp.catalog.GetDBFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	return bp.getPage(tid, pid, file, perm)
}

// getPage acquires perm on pid (blocking or aborting per the lock manager),
// then returns the cached page, reading it from file and evicting room for
// it first if necessary.
func (bp *BufferPool) getPage(tid TransactionID, pid PageID, file DBFile, perm RWPerm) (Page, error) {
	if err := bp.lockMgr.acquire(tid, pid, perm); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if pg, ok := bp.pages[pid]; ok {
		return pg, nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	pg, err := file.readPage(int(pid.PageNo))
	if err != nil {
		return nil, err
	}
	bp.pages[pid] = pg
	return pg, nil
}

// evictLocked removes one clean resident page from the cache. bp.mu must be
// held. NO-STEAL forbids evicting a dirty page, so a dirty pick is skipped
// in favor of another; if every resident page is dirty, eviction fails and
// the caller's fetch fails with it.
func (bp *BufferPool) evictLocked() error {
	// Shuffle the resident page ids for a uniform-random pick, then try every
	// candidate in that order before giving up.
	candidates := make([]PageID, 0, len(bp.pages))
	for pid := range bp.pages {
		candidates = append(candidates, pid)
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, pid := range candidates {
		if _, dirty := bp.pages[pid].isDirty(); dirty {
			continue
		}
		delete(bp.pages, pid)
		return nil
	}
	return newGoDBError(BufferPoolFullError, "buffer pool full of dirty pages")
}

// InsertTuple delegates to tableId's DBFile and marks the page it dirtied.
func (bp *BufferPool) InsertTuple(tid TransactionID, tableId int32, t *Tuple) error {
	file, err := bp.catalog.GetDBFile(tableId)
	if err != nil {
		return err
	}
	pg, err := file.insertTuple(t, tid)
	if err != nil {
		return err
	}
	pg.setDirty(tid, true)
	return nil
}

// DeleteTuple delegates to t.Rid's table's DBFile and marks the page it was
// removed from.
func (bp *BufferPool) DeleteTuple(tid TransactionID, t *Tuple) error {
	if t.Rid == nil {
		return newGoDBError(TupleNotOnPageError, "tuple has no record id")
	}
	file, err := bp.catalog.GetDBFile(t.Rid.PID.TableID)
	if err != nil {
		return err
	}
	pg, err := file.deleteTuple(t, tid)
	if err != nil {
		return err
	}
	pg.setDirty(tid, true)
	return nil
}

// TransactionComplete ends tid, either installing or discarding its dirty
// pages, and in both cases releasing every lock it holds.
func (bp *BufferPool) TransactionComplete(tid TransactionID, commit bool) error {
	bp.mu.Lock()
	var commitErr error
	if commit {
		commitErr = bp.commitLocked(tid)
	} else {
		bp.abortLocked(tid)
	}
	bp.mu.Unlock()

	bp.lockMgr.releaseAll(tid)
	return commitErr
}

// commitLocked forces tid's updates to the log and rebases their
// before-image, but -- per NO-FORCE -- never writes them to their home
// file. The page stays resident and dirty, just no longer owned by any
// active transaction (dirtier becomes the zero TransactionID, which NewTID
// never issues), so it is durable via the forced log but still pinned
// against eviction until a checkpoint or explicit flush syncs it to disk.
// bp.mu must be held.
func (bp *BufferPool) commitLocked(tid TransactionID) error {
	for _, pg := range bp.pages {
		dtid, dirty := pg.isDirty()
		if !dirty || dtid != tid {
			continue
		}
		before, err := pg.getBeforeImage()
		if err != nil {
			return err
		}
		if bp.logFile != nil {
			if err := bp.logFile.logWrite(tid, before, pg); err != nil {
				return err
			}
			if err := bp.logFile.Force(); err != nil {
				return err
			}
		}
		pg.setBeforeImage()
		pg.setDirty(TransactionID(0), true)
	}
	return nil
}

// abortLocked discards tid's in-memory changes by re-reading every page it
// dirtied straight from disk -- safe because NO-STEAL guarantees none of
// those pages ever reached disk in the first place. bp.mu must be held.
func (bp *BufferPool) abortLocked(tid TransactionID) {
	for pid, pg := range bp.pages {
		dtid, dirty := pg.isDirty()
		if !dirty || dtid != tid {
			continue
		}
		fresh, err := pg.getFile().readPage(int(pid.PageNo))
		if err != nil {
			continue
		}
		bp.pages[pid] = fresh
	}
}

// flushPage writes a single page's log record, forces it, then flushes the
// page itself and clears its dirty marker.
func (bp *BufferPool) flushPage(pid PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	pg, ok := bp.pages[pid]
	if !ok {
		return nil
	}
	return bp.flushPageLocked(pg)
}

func (bp *BufferPool) flushPageLocked(pg Page) error {
	tid, dirty := pg.isDirty()
	if !dirty {
		return nil
	}
	before, err := pg.getBeforeImage()
	if err != nil {
		return err
	}
	if bp.logFile != nil {
		if err := bp.logFile.logWrite(tid, before, pg); err != nil {
			return err
		}
		if err := bp.logFile.Force(); err != nil {
			return err
		}
	}
	if err := pg.getFile().writePage(pg); err != nil {
		return err
	}
	pg.setBeforeImage()
	pg.setDirty(tid, false)
	return nil
}

// FlushAllPages writes every dirty cached page to disk. This entry point is
// unsafe under NO-STEAL if called mid-transaction (it can publish
// uncommitted data). Nothing in the package calls it; LogFile.LogCheckpoint
// runs its own loop over flushPageLocked instead.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, pg := range bp.pages {
		if _, dirty := pg.isDirty(); !dirty {
			continue
		}
		if err := bp.flushPageLocked(pg); err != nil {
			return err
		}
	}
	return nil
}

// discardPage removes pid from the cache with no flush. Used by log
// rollback and recovery, both of which have already restored the on-disk
// bytes directly via DBFile.writePage.
func (bp *BufferPool) discardPage(pid PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.discardPageLocked(pid)
}

// discardPageLocked is discardPage for a caller that already holds bp.mu --
// LogFile's abort/recovery paths, which take the pool monitor before their
// own per the fixed monitor order and must not re-enter it.
func (bp *BufferPool) discardPageLocked(pid PageID) {
	delete(bp.pages, pid)
}

// releasePage releases tid's lock on pid without ending the transaction.
// Used by HeapFile.insertTuple's scan to drop the read lock on pages it
// decides not to mutate.
func (bp *BufferPool) releasePage(tid TransactionID, pid PageID) {
	bp.lockMgr.release(tid, pid)
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (bp *BufferPool) HoldsLock(tid TransactionID, pid PageID) bool {
	return bp.lockMgr.holdsLock(tid, pid)
}
