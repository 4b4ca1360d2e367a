package godb

//This file defines methods for working with tuples, including defining
// the types DBType, FieldType, TupleDesc, DBValue, and Tuple

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DBType is the type of a tuple field, in GoDB, e.g., IntType or StringType
type DBType int

const (
	IntType     DBType = iota
	StringType  DBType = iota
	UnknownType DBType = iota //used internally, during parsing, because sometimes the type is unknown
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// FieldType is the type of a field in a tuple, e.g., its name, table, and [godb.DBType].
// TableQualifier may or may not be an emtpy string, depending on whether the table
// was specified in the query
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
}

// TupleDesc is "type" of the tuple, e.g., the field names and types
type TupleDesc struct {
	Fields []FieldType
}

// Compare two tuple descs, and return true iff
// they are the same length and each pair of fields
// has the same name and type (TableQualifier is not compared)
func (d1 *TupleDesc) equals(d2 *TupleDesc) bool {
	if len(d1.Fields) != len(d2.Fields) {
		return false
	}
	for i := range d1.Fields {
		if d1.Fields[i].Fname != d2.Fields[i].Fname {
			return false
		}
		if d1.Fields[i].Ftype != d2.Fields[i].Ftype {
			return false
		}

	}
	return true

}

// Given a FieldType f and a TupleDesc desc, find the best
// matching field in desc for f.  A match is defined as
// having the same Ftype and the same name, preferring a match
// with the same TableQualifier if f has a TableQualifier
func findFieldInTd(field FieldType, desc *TupleDesc) (int, error) {
	best := -1
	for i, f := range desc.Fields {
		if f.Fname == field.Fname && (f.Ftype == field.Ftype || field.Ftype == UnknownType) {
			if field.TableQualifier == "" && best != -1 {
				return 0, GoDBError{AmbiguousNameError, fmt.Sprintf("select name %s is ambiguous", f.Fname)}
			}
			if f.TableQualifier == field.TableQualifier || best == -1 {
				best = i
			}
		}
	}
	if best != -1 {
		return best, nil
	}
	return -1, GoDBError{IncompatibleTypesError, fmt.Sprintf("field %s.%s not found", field.TableQualifier, field.Fname)}

}

// copy returns a TupleDesc with its own backing Fields slice.
func (td *TupleDesc) copy() *TupleDesc {
	tuple_copy := make([]FieldType, len(td.Fields))
	copy(tuple_copy, td.Fields)
	copy := &TupleDesc{Fields: tuple_copy}
	return copy
}

// setTableAlias assigns the TableQualifier of every field in the TupleDesc
// to the supplied alias.
func (td *TupleDesc) setTableAlias(alias string) {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	for i := range fields {
		fields[i].TableQualifier = alias
	}
	td.Fields = fields
}

// merge returns a TupleDesc whose fields are desc's followed by desc2's.
func (desc *TupleDesc) merge(desc2 *TupleDesc) *TupleDesc {
	return &TupleDesc{Fields: append(desc.Fields, desc2.Fields...)}
}

// ================== Tuple Methods ======================

// Interface for tuple field values
type DBValue interface {
	EvalPred(v DBValue, op BoolOp) bool
}

// Integer field value
type IntField struct {
	Value int64
}

// String field value
type StringField struct {
	Value string
}

// Tuple represents the contents of a tuple read from a database
// It includes the tuple descriptor, and the value of the fields
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordID // identifies the page and slot this tuple occupies, if any
}

// writeStringField pads value to StringLength bytes (zero-filled) and writes
// it to b in little-endian order, so every string field occupies the same
// number of bytes on disk regardless of its actual length.
func writeStringField(b *bytes.Buffer, strField StringField) error {
	bytes := []byte(strField.Value)
	make_pad := make([]byte, StringLength)
	copy(make_pad, bytes)
	result := binary.Write(b, binary.LittleEndian, make_pad)
	return result
}

func writeIntField(b *bytes.Buffer, intField IntField) error {
	int_val := int64(intField.Value)
	if err := binary.Write(b, binary.LittleEndian, int_val); err != nil {
		return err
	}
	return nil
}

func (t *Tuple) writeTo(b *bytes.Buffer) error {
	for _, field := range t.Fields {
		switch v := field.(type) {
		case StringField:
			if err := writeStringField(b, v); err != nil {
				return err
			}
		case IntField:
			if err := writeIntField(b, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported field type: %T", field)
		}
	}
	return nil
}

// readStringField reads a fixed StringLength-byte field from b and trims its
// zero padding.
func readStringField(b *bytes.Buffer) (StringField, error) {
	make_result := make([]byte, StringLength)
	err := binary.Read(b, binary.LittleEndian, make_result)
	if err != nil {
		return StringField{}, err
	}
	return StringField{Value: strings.TrimRight(string(make_result), "\x00")}, nil
}

func readIntField(b *bytes.Buffer) (IntField, error) {
	var val_int int64
	err := binary.Read(b, binary.LittleEndian, &val_int)
	if err != nil {
		return IntField{}, err
	}
	return IntField{Value: val_int}, nil
}

func readTupleFrom(b *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	tuple := &Tuple{Desc: *desc}

	for _, fieldDesc := range desc.Fields {
		switch fieldDesc.Ftype {
		case 1:
			strField, err := readStringField(b)
			if err != nil {
				return nil, err
			}
			tuple.Fields = append(tuple.Fields, strField)
		default:
			intField, err := readIntField(b)
			if err != nil {
				return nil, err
			}
			tuple.Fields = append(tuple.Fields, intField)
		}
	}
	return tuple, nil
}

// equals reports whether t1 and t2 have equal TupleDescs and equal fields.
func (t1 *Tuple) equals(t2 *Tuple) bool {
	if t1 == nil && t2 == nil {
		return true
	}
	if t1 == nil || t2 == nil {
		return false
	}
	if len(t1.Fields) != len(t2.Fields) {
		return false
	}
	if !t1.Desc.equals(&t2.Desc) {
		return false
	}
	for ind := range t1.Fields {
		if t1.Fields[ind] != t2.Fields[ind] {
			return false
		}
	}
	return true
}

// joinTuples concatenates t1's fields and TupleDesc with t2's. A nil operand
// returns the other tuple unchanged, so an outer join can feed one side
// through untouched when there is no match.
func joinTuples(t1 *Tuple, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	mergedTupleDesc := TupleDesc{
		Fields: append(t1.Desc.Fields, t2.Desc.Fields...),
	}
	return &Tuple{
		Desc:   mergedTupleDesc,
		Fields: append(t1.Fields, t2.Fields...),
	}
}

type orderByState int

const (
	OrderedLessThan    orderByState = iota
	OrderedEqual       orderByState = iota
	OrderedGreaterThan orderByState = iota
)

// compareField evaluates field against t and t2 and compares the results,
// returning an orderByState. field is an Expr rather than a bare field name,
// so any expression can serve as the comparison key. Used by the sort-merge
// join to sort and group its inputs.
func (t *Tuple) compareField(t2 *Tuple, field Expr) (orderByState, error) {
	val_1, err := field.EvalExpr(t)
	if err != nil {
		return OrderedEqual, err
	}
	val_2, err := field.EvalExpr(t2)
	if err != nil {
		return OrderedEqual, err
	}
	return compareFields(val_1, val_2)
}

func compareFields(val1, val2 interface{}) (orderByState, error) {
	if val_1, a := val1.(IntField); a {
		if val_2, a := val2.(IntField); a {
			switch {
			case val_1.Value > val_2.Value:
				return OrderedGreaterThan, nil
			case val_1.Value == val_2.Value:
				return OrderedEqual, nil
			default:
				return OrderedLessThan, nil
			}
		}
	}

	if val_1, a := val1.(StringField); a {
		if val_2, a := val2.(StringField); a {
			switch {
			case val_1.Value > val_2.Value:
				return OrderedGreaterThan, nil
			case val_1.Value == val_2.Value:
				return OrderedEqual, nil
			default:
				return OrderedLessThan, nil
			}
		}
	}

	return OrderedEqual, fmt.Errorf("unsupported field comparison between %T and %T", val1, val2)
}

// project returns a new Tuple containing only the named fields, in the order
// given. A field is matched by name and TableQualifier when possible, falling
// back to a name-only match so a projection list need not repeat the
// qualifier of every source field.
func (t *Tuple) project(fields []FieldType) (*Tuple, error) {
	projected := &Tuple{
		Desc:   TupleDesc{},
		Fields: []DBValue{},
	}
	for _, field := range fields {
		matchedIndex := -1
		for i, descField := range t.Desc.Fields {
			if field.Fname == descField.Fname && field.TableQualifier == descField.TableQualifier {
				matchedIndex = i
				break
			}
		}
		if matchedIndex == -1 {
			for i, descField := range t.Desc.Fields {
				if field.Fname == descField.Fname {
					matchedIndex = i
					break
				}
			}
		}
		if matchedIndex == -1 {
			return nil, fmt.Errorf("field %s.%s not found", field.TableQualifier, field.Fname)
		}
		projected.Fields = append(projected.Fields, t.Fields[matchedIndex])
		projected.Desc.Fields = append(projected.Desc.Fields, t.Desc.Fields[matchedIndex])
	}
	return projected, nil
}

// tupleKey returns a value suitable as a map key identifying this tuple's
// field contents, used by distinct projection.
func (t *Tuple) tupleKey() any {
	var buf bytes.Buffer
	t.writeTo(&buf)
	return buf.String()
}

var winWidth int = 120

func fmtCol(v string, ncols int) string {
	colWid := winWidth / ncols
	nextLen := len(v) + 3
	remLen := colWid - nextLen
	if remLen > 0 {
		spacesRight := remLen / 2
		spacesLeft := remLen - spacesRight
		return strings.Repeat(" ", spacesLeft) + v + strings.Repeat(" ", spacesRight) + " |"
	} else {
		return " " + v[0:colWid-4] + " |"
	}
}

// Return a string representing the header of a table for a tuple with the
// supplied TupleDesc.
//
// Aligned indicates if the tuple should be foramtted in a tabular format
func (d *TupleDesc) HeaderString(aligned bool) string {
	outstr := ""
	for i, f := range d.Fields {
		tableName := ""
		if f.TableQualifier != "" {
			tableName = f.TableQualifier + "."
		}

		if aligned {
			outstr = fmt.Sprintf("%s %s", outstr, fmtCol(tableName+f.Fname, len(d.Fields)))
		} else {
			sep := ","
			if i == 0 {
				sep = ""
			}
			outstr = fmt.Sprintf("%s%s%s", outstr, sep, tableName+f.Fname)
		}
	}
	return outstr
}

// Return a string representing the tuple
// Aligned indicates if the tuple should be formatted in a tabular format
func (t *Tuple) PrettyPrintString(aligned bool) string {
	outstr := ""
	for i, f := range t.Fields {
		str := ""
		switch f := f.(type) {
		case IntField:
			str = strconv.FormatInt(f.Value, 10)
		case StringField:
			str = f.Value
		}
		if aligned {
			outstr = fmt.Sprintf("%s %s", outstr, fmtCol(str, len(t.Fields)))
		} else {
			sep := ","
			if i == 0 {
				sep = ""
			}
			outstr = fmt.Sprintf("%s%s%s", outstr, sep, str)
		}
	}
	return outstr
}
