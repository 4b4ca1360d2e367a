package godb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromCSV(t *testing.T) {
	db := newTestDB(t, 8)

	path := filepath.Join(db.dir, "rows.csv")
	content := "id,name\n1,alice\n2,bob\n3,carol\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if err := db.hf.LoadFromCSV(f, true, ",", false); err != nil {
		t.Fatalf("LoadFromCSV: %v", err)
	}

	rows := scanAll(t, db)
	if len(rows) != 3 {
		t.Fatalf("scan after LoadFromCSV = %d rows, want 3", len(rows))
	}
	want := []struct {
		id   int64
		name string
	}{{1, "alice"}, {2, "bob"}, {3, "carol"}}
	for i, w := range want {
		if intOf(t, rows[i].Fields[0]) != w.id || stringOf(t, rows[i].Fields[1]) != w.name {
			t.Fatalf("row %d = %v, want (%d,%s)", i, rows[i].Fields, w.id, w.name)
		}
	}
}

func TestLoadFromCSVRejectsWrongFieldCount(t *testing.T) {
	db := newTestDB(t, 8)

	path := filepath.Join(db.dir, "bad.csv")
	if err := os.WriteFile(path, []byte("1,alice,extra\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	err = db.hf.LoadFromCSV(f, false, ",", false)
	if err == nil {
		t.Fatalf("expected an error loading a row with the wrong field count")
	}
	gerr, ok := err.(GoDBError)
	if !ok {
		t.Fatalf("expected GoDBError, got %T", err)
	}
	if gerr.code != MalformedDataError {
		t.Fatalf("expected MalformedDataError, got %v", gerr.code)
	}
}
