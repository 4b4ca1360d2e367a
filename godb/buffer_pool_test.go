package godb

import (
	"os"
	"testing"
)

// Scenario 1: basic persistence. Begin T1, insert two tuples, commit, crash
// (simulated by closing and reopening the log/buffer pool over the same
// files), recover, scan yields both tuples in page-number order.
func TestBasicPersistenceScenario(t *testing.T) {
	db := newTestDB(t, 8)

	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(1, "a")); err != nil {
		t.Fatalf("insert (1,a): %v", err)
	}
	if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(2, "b")); err != nil {
		t.Fatalf("insert (2,b): %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Simulate a crash: reopen a fresh BufferPool/Catalog/LogFile over the
	// same on-disk files and run recovery before scanning.
	fresh := reopenTestDB(t, db, 8)
	if err := fresh.lf.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	rows := scanAll(t, fresh)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after recovery, got %d", len(rows))
	}
	if intOf(t, rows[0].Fields[0]) != 1 || stringOf(t, rows[0].Fields[1]) != "a" {
		t.Fatalf("row 0 = %v, want (1,a)", rows[0].Fields)
	}
	if intOf(t, rows[1].Fields[0]) != 2 || stringOf(t, rows[1].Fields[1]) != "b" {
		t.Fatalf("row 1 = %v, want (2,b)", rows[1].Fields)
	}
}

// Scenario 2: abort rollback. Two inserts under T1, then abort; neither
// tuple is visible to a later scan.
func TestAbortRollbackScenario(t *testing.T) {
	db := newTestDB(t, 8)

	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(3, "c")); err != nil {
		t.Fatalf("insert (3,c): %v", err)
	}
	if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(4, "d")); err != nil {
		t.Fatalf("insert (4,d): %v", err)
	}
	if err := tx.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	rows := scanAll(t, db)
	for _, r := range rows {
		id := intOf(t, r.Fields[0])
		if id == 3 || id == 4 {
			t.Fatalf("aborted tuple (%d,...) is visible after abort", id)
		}
	}
}

// Scenario 6: NO-STEAL crash. A transaction writes several tuples, never
// triggering eviction (buffer pool capacity comfortably exceeds one page),
// then "crashes" without committing. Recovery against the reopened files
// finds nothing to redo, and the table on disk holds no rows, as before the
// transaction started.
func TestNoStealCrashScenario(t *testing.T) {
	db := newTestDB(t, 8)

	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	for i := int64(0); i < 5; i++ {
		if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(i, "row")); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	// Crash: never call Commit or Abort. Under NO-STEAL those dirty pages
	// never reached disk, so the backing file holds only the empty page the
	// first insert appended.

	fresh := reopenTestDB(t, db, 8)
	if err := fresh.lf.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	rows := scanAll(t, fresh)
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows after NO-STEAL crash + recovery, got %d", len(rows))
	}
}

// Eviction at capacity N replaces exactly one resident. Three empty pages
// are written directly to a table's backing file (bypassing HeapFile.insert
// so the test doesn't need hundreds of tuples to force a third page), then
// read into a capacity-2 pool: the third read must evict exactly one of the
// first two, never growing the cache past capacity.
func TestEvictionAtCapacity(t *testing.T) {
	db := newTestDB(t, 2)

	for pageNo := 0; pageNo < 3; pageNo++ {
		pid := db.hf.pageID(pageNo)
		pg, err := newHeapPage(pid, db.td, db.hf)
		if err != nil {
			t.Fatalf("newHeapPage %d: %v", pageNo, err)
		}
		if err := db.hf.writePage(pg); err != nil {
			t.Fatalf("writePage %d: %v", pageNo, err)
		}
	}

	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	for pageNo := 0; pageNo < 2; pageNo++ {
		if _, err := db.bp.getPage(tx.ID(), db.hf.pageID(pageNo), db.hf, ReadPerm); err != nil {
			t.Fatalf("getPage %d: %v", pageNo, err)
		}
		db.bp.releasePage(tx.ID(), db.hf.pageID(pageNo))
	}
	db.bp.mu.Lock()
	if n := len(db.bp.pages); n != 2 {
		db.bp.mu.Unlock()
		t.Fatalf("cache holds %d pages after filling to capacity, want 2", n)
	}
	db.bp.mu.Unlock()

	if _, err := db.bp.getPage(tx.ID(), db.hf.pageID(2), db.hf, ReadPerm); err != nil {
		t.Fatalf("getPage 2 (triggers eviction): %v", err)
	}
	db.bp.releasePage(tx.ID(), db.hf.pageID(2))

	db.bp.mu.Lock()
	n := len(db.bp.pages)
	_, has2 := db.bp.pages[db.hf.pageID(2)]
	db.bp.mu.Unlock()
	if n != 2 {
		t.Fatalf("cache holds %d pages after eviction, want 2 (exactly one resident replaced)", n)
	}
	if !has2 {
		t.Fatalf("page 2, the one just fetched, should be resident after eviction")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

// reopenTestDB builds a fresh BufferPool/Catalog/LogFile/HeapFile set
// rooted at db's same on-disk directory -- the test-harness equivalent of
// a process restart after a crash.
func reopenTestDB(t *testing.T, db *testDB, numPages int) *testDB {
	t.Helper()
	bp, err := NewBufferPool(numPages)
	if err != nil {
		t.Fatalf("NewBufferPool (reopen): %v", err)
	}
	cat := NewCatalog()
	bp.SetCatalog(cat)

	lf, err := NewLogFile(db.lf.file.Name(), bp, cat)
	if err != nil {
		t.Fatalf("NewLogFile (reopen): %v", err)
	}
	bp.SetLogFile(lf)

	hf, err := NewHeapFile(db.hf.BackingFile(), db.td, bp)
	if err != nil {
		t.Fatalf("NewHeapFile (reopen): %v", err)
	}
	cat.AddTable("r", hf)

	if _, err := os.Stat(db.hf.BackingFile()); err != nil {
		t.Fatalf("backing file missing on reopen: %v", err)
	}
	return &testDB{dir: db.dir, bp: bp, cat: cat, lf: lf, hf: hf, td: db.td}
}
