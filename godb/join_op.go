package godb

import (
	"errors"
	"sort"
)

type EqualityJoin struct {
	// Expressions that when applied to tuples from the left or right operators,
	// respectively, return the value of the left or right side of the join
	leftField, rightField Expr

	left, right *Operator // Operators for the two inputs of the join

	// Unused by the current sort-merge implementation; retained for callers
	// that still size a join's intermediate buffer.
	maxBufferSize int
}

// Constructor for an equality join of two int or two string expressions.
//
// Returns an error if the two expressions differ in type or are of any other
// type.
func NewJoin(left Operator, leftField Expr, right Operator, rightField Expr, maxBufferSize int) (*EqualityJoin, error) {
	if leftField.GetExprType().Ftype != rightField.GetExprType().Ftype {
		return nil, errors.New("not proper types")
	}
	switch leftField.GetExprType().Ftype {
	case IntType:
		return &EqualityJoin{leftField, rightField, &left, &right, maxBufferSize}, nil
	case StringType:
		return &EqualityJoin{leftField, rightField, &left, &right, maxBufferSize}, nil
	}
	return nil, errors.New("not proper types")
}

// Descriptor returns the union of the left and right child descriptors.
func (hj *EqualityJoin) Descriptor() *TupleDesc {
	return (*hj.left).Descriptor().merge((*hj.right).Descriptor())
}

// Iterator materializes both children, sorts each by its join field, and
// merge-joins them on equality, applying leftField/rightField per tuple.
func (joinOp *EqualityJoin) Iterator(transactionID TransactionID) (func() (*Tuple, error), error) {
	leftIterator, err := (*joinOp.left).Iterator(transactionID)
	if err != nil {
		return nil, err
	}
	leftTuples, err := fetchAllTuples(leftIterator)
	if err != nil {
		return nil, err
	}

	rightIterator, err := (*joinOp.right).Iterator(transactionID)
	if err != nil {
		return nil, err
	}
	rightTuples, err := fetchAllTuples(rightIterator)
	if err != nil {
		return nil, err
	}

	sortTupleList(leftTuples, joinOp.leftField)
	sortTupleList(rightTuples, joinOp.rightField)

	joinedTuples := mergeAndJoinTuples(leftTuples, rightTuples, joinOp.leftField, joinOp.rightField)

	currentIndex := 0
	return func() (*Tuple, error) {
		if currentIndex >= len(joinedTuples) {
			return nil, nil
		}
		currentIndex += 1
		return joinedTuples[currentIndex-1], nil
	}, nil
}

func fetchAllTuples(iterator func() (*Tuple, error)) ([]*Tuple, error) {
	tuples := []*Tuple{}
	for {
		tuple, err := iterator()
		if err != nil {
			return nil, err
		}
		if tuple == nil {
			return tuples, nil
		}
		tuples = append(tuples, tuple)
	}
}

func sortTupleList(tuples []*Tuple, field Expr) {
	sort.Slice(tuples, func(i, j int) bool {
		compareResult, _ := tuples[i].compareField(tuples[j], field)

		return compareResult < OrderedEqual
	})
}

func mergeAndJoinTuples(leftTuples, rightTuples []*Tuple, leftField, rightField Expr) []*Tuple {
	joinedTuples := []*Tuple{}
	leftIndex, rightIndex := 0, 0

	for leftIndex < len(leftTuples) && rightIndex < len(rightTuples) {
		order, err := compare(leftTuples[leftIndex], rightTuples[rightIndex], leftField, rightField)
		if err != nil {
			break
		}

		switch order {
		case OrderedEqual:
			mergeEqualTuples(leftTuples, rightTuples, leftIndex, rightIndex, leftField, rightField, &joinedTuples)
			leftIndex = findEqualRange(leftTuples, leftIndex, leftField)
			rightIndex = findEqualRange(rightTuples, rightIndex, rightField)
		case OrderedLessThan:
			leftIndex += 1
		case OrderedGreaterThan:
			rightIndex += 1
		}
	}

	return joinedTuples
}

func mergeEqualTuples(leftTuples, rightTuples []*Tuple, leftIndex, rightIndex int, leftField, rightField Expr, joinedTuples *[]*Tuple) {
	leftEnd := findEqualRange(leftTuples, leftIndex, leftField)
	rightEnd := findEqualRange(rightTuples, rightIndex, rightField)

	for i := leftIndex; i < leftEnd; i++ {
		for j := rightIndex; j < rightEnd; j++ {
			*joinedTuples = append(*joinedTuples, joinTuples(leftTuples[i], rightTuples[j]))
		}
	}
}

func compare(leftTuple, rightTuple *Tuple, leftField, rightField Expr) (orderByState, error) {
	leftExpr, err := leftField.EvalExpr(leftTuple)
	if err != nil {
		return 0, err
	}
	rightExpr, err := rightField.EvalExpr(rightTuple)
	if err != nil {
		return 0, err
	}

	switch leftVal := leftExpr.(type) {
	case IntField:
		rightVal := rightExpr.(IntField)
		switch {
		case leftVal.Value < rightVal.Value:
			return OrderedLessThan, nil
		case leftVal.Value > rightVal.Value:
			return OrderedGreaterThan, nil
		default:
			return OrderedEqual, nil
		}
	case StringField:
		rightVal := rightExpr.(StringField)
		switch {
		case leftVal.Value < rightVal.Value:
			return OrderedLessThan, nil
		case leftVal.Value > rightVal.Value:
			return OrderedGreaterThan, nil
		default:
			return OrderedEqual, nil
		}
	default:
		return OrderedEqual, nil
	}
}

// find the range of tuples that are equal based on a field
func findEqualRange(tuples []*Tuple, startIndex int, field Expr) int {
	endIndex := startIndex + 1
	for endIndex < len(tuples) {
		result, err := tuples[endIndex].compareField(tuples[startIndex], field)
		if err != nil || result != OrderedEqual {
			break
		}
		endIndex += 1
	}
	return endIndex
}
