package godb

type LimitOp struct {
	child     Operator
	limitTups Expr
}

// Construct a new limit operator. lim is how many tuples to return and child is
// the child operator.
func NewLimitOp(lim Expr, child Operator) *LimitOp {
	return &LimitOp{
		child:     child,
		limitTups: lim,
	}
}

// Return a TupleDescriptor for this limit.
func (l *LimitOp) Descriptor() *TupleDesc {
	return l.child.Descriptor()
}

// Iterator yields at most the first lim tuples of the child iterator, where
// lim is the value of the limit expression given to the constructor.
func (l *LimitOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	count := 0
	expr, err := l.limitTups.EvalExpr(nil)
	if err != nil {
		return nil, err
	}
	child_iter, err := l.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	return func() (*Tuple, error) {
		for {
			tuple, err := child_iter()
			if err != nil {
				return nil, err
			}
			if tuple == nil || count >= int(expr.(IntField).Value) {
				return nil, nil
			}
			count += 1
			return tuple, nil
		}
	}, nil
}
