package godb

import "testing"

// Scenario 5: crash mid-update. T1 writes (5,"e"); the page is forced to
// disk via the buffer pool's test-only flush hook (as design note 9 on
// flushAllPages plus NO-STEAL says: "ensure production code paths never
// call it mid-transaction" -- this test is exactly the case that hook
// exists to let us exercise). T1 never commits. Recovery must undo the
// page back to its pre-(5,"e") state.
func TestCrashMidUpdateScenario(t *testing.T) {
	db := newTestDB(t, 8)

	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(5, "e")); err != nil {
		t.Fatalf("insert (5,e): %v", err)
	}

	pid := db.hf.pageID(0)
	if err := db.bp.flushPage(pid); err != nil {
		t.Fatalf("flushPage (simulated force): %v", err)
	}
	// Crash: T1 never commits or aborts.

	fresh := reopenTestDB(t, db, 8)
	if err := fresh.lf.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	rows := scanAll(t, fresh)
	for _, r := range rows {
		if intOf(t, r.Fields[0]) == 5 {
			t.Fatalf("uncommitted (5,e) survived recovery: %v", r.Fields)
		}
	}
}

// Invariant 6 / round-trip law: recover() applied twice has the same effect
// as once.
func TestRecoverIsIdempotent(t *testing.T) {
	db := newTestDB(t, 8)

	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := db.bp.InsertTuple(tx.ID(), db.hf.TableID(), testTuple(1, "a")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	fresh := reopenTestDB(t, db, 8)
	if err := fresh.lf.Recover(); err != nil {
		t.Fatalf("Recover (1st): %v", err)
	}
	first := scanAll(t, fresh)

	if err := fresh.lf.Recover(); err != nil {
		t.Fatalf("Recover (2nd): %v", err)
	}
	second := scanAll(t, fresh)

	if len(first) != len(second) {
		t.Fatalf("recover() is not idempotent: %d rows then %d rows", len(first), len(second))
	}
	for i := range first {
		if intOf(t, first[i].Fields[0]) != intOf(t, second[i].Fields[0]) {
			t.Fatalf("row %d differs across recover() calls: %v vs %v", i, first[i].Fields, second[i].Fields)
		}
	}
}

// Log truncation preserves the semantics of recovery for still-live
// transactions: a checkpoint taken mid-transaction, followed by a crash
// before that transaction commits, still rolls it back correctly.
func TestCheckpointThenCrashStillRollsBack(t *testing.T) {
	db := newTestDB(t, 8)

	committed, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction (committed): %v", err)
	}
	if err := db.bp.InsertTuple(committed.ID(), db.hf.TableID(), testTuple(1, "a")); err != nil {
		t.Fatalf("insert (1,a): %v", err)
	}
	if err := committed.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	live, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction (live): %v", err)
	}
	if err := db.bp.InsertTuple(live.ID(), db.hf.TableID(), testTuple(2, "b")); err != nil {
		t.Fatalf("insert (2,b): %v", err)
	}

	if err := db.lf.LogCheckpoint(); err != nil {
		t.Fatalf("LogCheckpoint: %v", err)
	}
	// Crash: live never commits or aborts, even after the checkpoint.

	fresh := reopenTestDB(t, db, 8)
	if err := fresh.lf.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	rows := scanAll(t, fresh)
	sawCommitted := false
	for _, r := range rows {
		id := intOf(t, r.Fields[0])
		if id == 2 {
			t.Fatalf("live transaction's (2,b) survived a checkpoint + crash, should have been undone")
		}
		if id == 1 {
			sawCommitted = true
		}
	}
	if !sawCommitted {
		t.Fatalf("committed row (1,a) missing after checkpoint + crash + recover")
	}
}
