package godb

// expr.go defines the small expression language the thin operator layer
// evaluates against tuples: field references, constants, and the boolean
// comparison operators used by Filter and OrderBy. None of this is
// part of the storage and transaction core; it exists only so the operators
// that exercise DBFile/BufferPool in tests have something to drive them with.

// BoolOp is a comparison operator usable in a Filter predicate.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpGt
	OpGe
	OpLt
	OpLe
)

// Expr evaluates to a DBValue when applied to a tuple.
type Expr interface {
	EvalExpr(t *Tuple) (DBValue, error)
	GetExprType() FieldType
}

// FieldExpr extracts a single named field from a tuple.
type FieldExpr struct {
	Field FieldType
}

func (f *FieldExpr) EvalExpr(t *Tuple) (DBValue, error) {
	idx, err := findFieldInTd(f.Field, &t.Desc)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

func (f *FieldExpr) GetExprType() FieldType {
	return f.Field
}

// ConstExpr evaluates to a fixed value regardless of the tuple supplied.
type ConstExpr struct {
	Val   DBValue
	Ftype DBType
}

func (c *ConstExpr) EvalExpr(t *Tuple) (DBValue, error) {
	return c.Val, nil
}

func (c *ConstExpr) GetExprType() FieldType {
	return FieldType{Fname: "", Ftype: c.Ftype}
}

func (f IntField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(IntField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNeq:
		return f.Value != other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	default:
		return false
	}
}

func (f StringField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(StringField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNeq:
		return f.Value != other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	default:
		return false
	}
}
