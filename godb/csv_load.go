package godb

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// csv_load.go backs HeapFile.LoadFromCSV. Each row is inserted under its own
// Transaction, logged and committed exactly like an application write, so a
// crash mid-load leaves the log in a state Recover can clean up rather than
// a half-written heap file.
func loadHeapFileFromCSV(f *HeapFile, file *os.File, hasHeader bool, sep string, skipLastField bool) error {
	desc := f.Descriptor()
	if desc == nil || desc.Fields == nil {
		return newGoDBError(MalformedDataError, "descriptor was nil")
	}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, sep)
		if skipLastField {
			fields = fields[:len(fields)-1]
		}
		lineNo++
		if lineNo == 1 && hasHeader {
			continue
		}
		if len(fields) != len(desc.Fields) {
			return newGoDBError(MalformedDataError, fmt.Sprintf(
				"LoadFromCSV: line %d (%s) does not have expected number of fields (expected %d, got %d)",
				lineNo, line, len(desc.Fields), len(fields)))
		}

		newFields := make([]DBValue, len(fields))
		for fno, raw := range fields {
			switch desc.Fields[fno].Ftype {
			case IntType:
				raw = strings.TrimSpace(raw)
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return newGoDBError(TypeMismatchError, fmt.Sprintf(
						"LoadFromCSV: couldn't convert value %q to int, line %d", raw, lineNo))
				}
				newFields[fno] = IntField{Value: v}
			case StringType:
				if len(raw) > StringLength {
					raw = raw[:StringLength]
				}
				newFields[fno] = StringField{Value: raw}
			}
		}

		t := &Tuple{Desc: *desc, Fields: newFields}

		tx, err := NewTransaction(f.bufPool, f.bufPool.logFile)
		if err != nil {
			return err
		}
		if err := f.bufPool.InsertTuple(tx.ID(), f.id(), t); err != nil {
			_ = tx.Abort()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return scanner.Err()
}
