package godb

// InsertOp drains its child and installs every tuple it produces into a
// table through the buffer pool, so that each insert is locked, logged and
// dirtied exactly like any other write rather than bypassing that path by
// writing straight to the DBFile.
type InsertOp struct {
	insertFile DBFile
	bp         *BufferPool
	child      Operator
	res        *TupleDesc
}

// NewInsertOp constructs an insert operator that inserts the records in the
// child Operator into insertFile via bp.
func NewInsertOp(insertFile DBFile, bp *BufferPool, child Operator) *InsertOp {
	return &InsertOp{
		insertFile: insertFile,
		bp:         bp,
		child:      child,
		res: &TupleDesc{[]FieldType{{
			Fname: "count",
			Ftype: IntType,
		}}},
	}
}

// The insert TupleDesc is a one column descriptor with an integer field named "count"
func (i *InsertOp) Descriptor() *TupleDesc {
	return i.res
}

// Iterator drains the child, inserting each tuple through the buffer pool,
// and returns a single one-field tuple counting how many were inserted.
func (iop *InsertOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {

	child_iter, err := iop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	counter := int64(0)
	done := false

	return func() (*Tuple, error) {
		if done {
			return nil, nil
		}
		for {
			t, err := child_iter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}

			if err := iop.bp.InsertTuple(tid, iop.insertFile.id(), t); err != nil {
				return nil, err
			}
			counter += 1
		}

		done = true
		return &Tuple{
			Desc:   *iop.Descriptor(),
			Fields: []DBValue{IntField{counter}},
		}, nil
	}, nil
}
