package godb

// testutil_test.go collects small fixtures shared by the package's other
// _test.go files: a two-column (id int, name string) table wired to a fresh
// BufferPool and LogFile rooted in a scratch directory, torn down with
// testing.T.TempDir so nothing outsurvives the test.

import (
	"path/filepath"
	"testing"
)

func testTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "id", Ftype: IntType},
		{Fname: "name", Ftype: StringType},
	}}
}

// testDB wires a BufferPool, Catalog and LogFile together over a single
// HeapFile table named "r", the way cmd/simpledb's main does for a real
// session. numPages caps the buffer pool.
type testDB struct {
	dir string
	bp  *BufferPool
	cat *Catalog
	lf  *LogFile
	hf  *HeapFile
	td  *TupleDesc
}

func newTestDB(t *testing.T, numPages int) *testDB {
	t.Helper()
	dir := t.TempDir()

	bp, err := NewBufferPool(numPages)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	cat := NewCatalog()
	bp.SetCatalog(cat)

	lf, err := NewLogFile(filepath.Join(dir, "wal.log"), bp, cat)
	if err != nil {
		t.Fatalf("NewLogFile: %v", err)
	}
	bp.SetLogFile(lf)

	td := testTupleDesc()
	hf, err := NewHeapFile(filepath.Join(dir, "r.dat"), td, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	cat.AddTable("r", hf)

	return &testDB{dir: dir, bp: bp, cat: cat, lf: lf, hf: hf, td: td}
}

func testTuple(id int64, name string) *Tuple {
	return &Tuple{
		Desc:   *testTupleDesc(),
		Fields: []DBValue{IntField{Value: id}, StringField{Value: name}},
	}
}

// scanAll drains db.hf's iterator under a fresh transaction, auto-committing it,
// and returns every tuple in page-number order.
func scanAll(t *testing.T, db *testDB) []*Tuple {
	t.Helper()
	tx, err := NewTransaction(db.bp, db.lf)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	iter, err := db.hf.Iterator(tx.ID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var out []*Tuple
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if tup == nil {
			break
		}
		out = append(out, tup)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return out
}

func intOf(t *testing.T, v DBValue) int64 {
	t.Helper()
	f, ok := v.(IntField)
	if !ok {
		t.Fatalf("expected IntField, got %T", v)
	}
	return f.Value
}

func stringOf(t *testing.T, v DBValue) string {
	t.Helper()
	f, ok := v.(StringField)
	if !ok {
		t.Fatalf("expected StringField, got %T", v)
	}
	return f.Value
}
