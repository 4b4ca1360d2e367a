package godb

// lock_manager.go implements page-level multiple-granularity locking: shared
// (S) and exclusive (X) locks per PageID, upgrade of a sole S holder to X,
// and deadlock detection by rebuilding the waiting transaction's outgoing
// wait-for edges on every blocking step and searching for a cycle. A
// transaction that would complete a cycle aborts itself -- the acquirer is
// always the victim, which means no cascading wakeups are needed.
//
// Grounded in the cycle-detection approach the buffer pool used inline in
// this package's ancestor (transactionDependencies + DFS), pulled out into
// its own component and switched from a sleep-and-poll loop to a
// sync.Cond-based monitor so blocked goroutines wake exactly when a release
// might free them up, rather than on a fixed timer.

import (
	"fmt"
	"sync"
)

type lockMode int

const (
	sharedLock lockMode = iota
	exclusiveLock
)

type lockManager struct {
	mu   sync.Mutex
	cond *sync.Cond

	sHolders map[PageID]map[TransactionID]struct{}
	xHolder  map[PageID]TransactionID

	tidLocks map[TransactionID]map[PageID]struct{}
	waitFor  map[TransactionID]map[TransactionID]struct{}
}

func newLockManager() *lockManager {
	lm := &lockManager{
		sHolders: make(map[PageID]map[TransactionID]struct{}),
		xHolder:  make(map[PageID]TransactionID),
		tidLocks: make(map[TransactionID]map[PageID]struct{}),
		waitFor:  make(map[TransactionID]map[TransactionID]struct{}),
	}
	lm.cond = sync.NewCond(&lm.mu)
	return lm
}

func (lm *lockManager) modeFor(perm RWPerm) lockMode {
	if perm == WritePerm {
		return exclusiveLock
	}
	return sharedLock
}

// compatible reports whether tid's request for mode on pid can be granted
// right now, per section 4.3's compatibility rules.
func (lm *lockManager) compatible(tid TransactionID, pid PageID, mode lockMode) bool {
	switch mode {
	case sharedLock:
		holder, hasX := lm.xHolder[pid]
		return !hasX || holder == tid
	case exclusiveLock:
		holder, hasX := lm.xHolder[pid]
		if hasX {
			return holder == tid
		}
		s := lm.sHolders[pid]
		if len(s) == 0 {
			return true
		}
		if len(s) == 1 {
			_, onlyTid := s[tid]
			return onlyTid
		}
		return false
	}
	return false
}

// rebuildWaitFor recomputes tid's outgoing edges: tid -> holder, for every
// current holder of pid other than tid itself.
func (lm *lockManager) rebuildWaitFor(tid TransactionID, pid PageID) {
	edges := make(map[TransactionID]struct{})
	if holder, ok := lm.xHolder[pid]; ok && holder != tid {
		edges[holder] = struct{}{}
	}
	for holder := range lm.sHolders[pid] {
		if holder != tid {
			edges[holder] = struct{}{}
		}
	}
	if len(edges) == 0 {
		delete(lm.waitFor, tid)
		return
	}
	lm.waitFor[tid] = edges
}

func (lm *lockManager) clearWaitFor(tid TransactionID) {
	delete(lm.waitFor, tid)
}

// hasCycle runs a DFS from tid over the wait-for graph, reporting whether a
// back-edge (a cycle involving tid) exists.
func (lm *lockManager) hasCycle(tid TransactionID) bool {
	visiting := make(map[TransactionID]bool)
	var dfs func(TransactionID) bool
	dfs = func(cur TransactionID) bool {
		if cur == tid && visiting[cur] {
			return true
		}
		if visiting[cur] {
			return false
		}
		visiting[cur] = true
		for next := range lm.waitFor[cur] {
			if next == tid {
				return true
			}
			if dfs(next) {
				return true
			}
		}
		visiting[cur] = false
		return false
	}
	for next := range lm.waitFor[tid] {
		if next == tid || dfs(next) {
			return true
		}
	}
	return false
}

// acquire blocks until tid holds at least `perm` on pid, or returns a
// TransactionAbortedError if granting the request would complete a cycle in
// the wait-for graph.
func (lm *lockManager) acquire(tid TransactionID, pid PageID, perm RWPerm) error {
	mode := lm.modeFor(perm)

	lm.mu.Lock()
	defer lm.mu.Unlock()

	for !lm.compatible(tid, pid, mode) {
		lm.rebuildWaitFor(tid, pid)
		if lm.hasCycle(tid) {
			lm.clearWaitFor(tid)
			return &TransactionAbortedError{Tid: tid, Reason: "deadlock detected"}
		}
		lm.cond.Wait()
	}
	lm.clearWaitFor(tid)
	lm.grant(tid, pid, mode)
	return nil
}

func (lm *lockManager) grant(tid TransactionID, pid PageID, mode lockMode) {
	if mode == exclusiveLock {
		// An upgrade: tid may already be the sole S holder. Drop the S entry
		// so holders bookkeeping stays exact.
		delete(lm.sHolders[pid], tid)
		if len(lm.sHolders[pid]) == 0 {
			delete(lm.sHolders, pid)
		}
		lm.xHolder[pid] = tid
	} else if lm.xHolder[pid] != tid {
		// An X holder's implicit S rights are never recorded as a separate
		// S entry, preserving "X holder => no S holders".
		if lm.sHolders[pid] == nil {
			lm.sHolders[pid] = make(map[TransactionID]struct{})
		}
		lm.sHolders[pid][tid] = struct{}{}
	}
	if lm.tidLocks[tid] == nil {
		lm.tidLocks[tid] = make(map[PageID]struct{})
	}
	lm.tidLocks[tid][pid] = struct{}{}
}

// holdsLock reports whether tid currently holds any lock on pid.
func (lm *lockManager) holdsLock(tid TransactionID, pid PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	_, hasS := lm.sHolders[pid][tid]
	hasX := lm.xHolder[pid] == tid
	return hasS || hasX
}

// release drops every lock tid holds on pid and wakes all waiters.
func (lm *lockManager) release(tid TransactionID, pid PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
	lm.cond.Broadcast()
}

func (lm *lockManager) releaseLocked(tid TransactionID, pid PageID) {
	delete(lm.sHolders[pid], tid)
	if len(lm.sHolders[pid]) == 0 {
		delete(lm.sHolders, pid)
	}
	if lm.xHolder[pid] == tid {
		delete(lm.xHolder, pid)
	}
	delete(lm.tidLocks[tid], pid)
	if len(lm.tidLocks[tid]) == 0 {
		delete(lm.tidLocks, tid)
	}
	delete(lm.waitFor, tid)
}

// releaseAll releases every page tid holds a lock on.
func (lm *lockManager) releaseAll(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid := range lm.tidLocks[tid] {
		lm.releaseLocked(tid, pid)
	}
	delete(lm.tidLocks, tid)
	delete(lm.waitFor, tid)
	lm.cond.Broadcast()
}

// String renders the lock table for diagnostics (e.g. a stuck-transaction
// report); not used on any hot path.
func (lm *lockManager) String() string {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return fmt.Sprintf("lockManager{xHolders=%d sHolderSets=%d waiting=%d}", len(lm.xHolder), len(lm.sHolders), len(lm.waitFor))
}
