package godb

import "testing"

func TestDistinctCountAggStateCountsDistinctValues(t *testing.T) {
	var a DistinctCountAggState
	expr := &FieldExpr{Field: FieldType{Fname: "id", Ftype: IntType}}
	if err := a.Init("distinct_id", expr); err != nil {
		t.Fatalf("Init: %v", err)
	}

	values := []int64{1, 2, 2, 3, 3, 3, 4}
	for _, v := range values {
		a.AddTuple(testTuple(v, "x"))
	}

	got := intOf(t, a.Finalize().Fields[0])
	if got != 4 {
		t.Fatalf("DistinctCountAggState = %d, want 4 (HyperLogLog estimate over a small set should be exact)", got)
	}
}

func TestDistinctCountAggStateCopyIsIndependent(t *testing.T) {
	var a DistinctCountAggState
	expr := &FieldExpr{Field: FieldType{Fname: "id", Ftype: IntType}}
	if err := a.Init("distinct_id", expr); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a.AddTuple(testTuple(1, "x"))

	cp := a.Copy()
	cp.AddTuple(testTuple(2, "y"))

	if got := intOf(t, a.Finalize().Fields[0]); got != 1 {
		t.Fatalf("original state mutated by copy's AddTuple: got %d, want 1", got)
	}
	if got := intOf(t, cp.Finalize().Fields[0]); got != 2 {
		t.Fatalf("copy = %d, want 2", got)
	}
}

func TestDistinctCountAggStateTupleDesc(t *testing.T) {
	var a DistinctCountAggState
	if err := a.Init("n", &FieldExpr{Field: FieldType{Fname: "id", Ftype: IntType}}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	td := a.GetTupleDesc()
	if len(td.Fields) != 1 || td.Fields[0].Fname != "n" || td.Fields[0].Ftype != IntType {
		t.Fatalf("GetTupleDesc = %+v, want one int field named n", td.Fields)
	}
}
