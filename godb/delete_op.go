package godb

// DeleteOp drains its child and removes every tuple it produces through the
// buffer pool, so deletes acquire their write lock and dirty their page
// exactly like any other mutation rather than going straight to disk.
type DeleteOp struct {
	bp    *BufferPool
	child Operator
	res   *TupleDesc
}

// NewDeleteOp constructs a delete operator that removes, via bp, every
// record produced by child.
func NewDeleteOp(bp *BufferPool, child Operator) *DeleteOp {
	return &DeleteOp{
		bp:    bp,
		child: child,
		res: &TupleDesc{[]FieldType{{
			Fname: "count",
			Ftype: IntType,
		}}},
	}
}

// The delete TupleDesc is a one column descriptor with an integer field named
// "count".
func (i *DeleteOp) Descriptor() *TupleDesc {
	return i.res
}

// Iterator drains the child, deleting each tuple through the buffer pool,
// and returns a single one-field tuple counting how many were deleted.
func (dop *DeleteOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	child_iter, err := dop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	count := int64(0)
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

			if err := dop.bp.DeleteTuple(tid, t); err != nil {
				return nil, err
			}
			count++
		}

		done = true
		return &Tuple{
			Desc:   *dop.Descriptor(),
			Fields: []DBValue{IntField{count}},
		}, nil
	}, nil
}
