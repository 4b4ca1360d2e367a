// Command simpledb is a line-oriented SQL shell over the godb storage and
// transaction core: every INSERT, SELECT or DELETE it runs opens a
// Transaction, drives a handful of hand-built Operators over it, and commits
// (or aborts, on error) before prompting again. CREATE TABLE runs no
// transaction, and .load commits one transaction per row.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/xwb1989/sqlparser"

	"github.com/wisteria-labs/simpledb/godb"
)

func main() {
	dataDir := flag.String("data", "./data", "directory holding table heap files and the write-ahead log")
	numPages := flag.Int("pages", 128, "buffer pool capacity, in pages")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		fatalf("mkdir %s: %v", *dataDir, err)
	}

	bp, err := godb.NewBufferPool(*numPages)
	if err != nil {
		fatalf("buffer pool: %v", err)
	}
	cat := godb.NewCatalog()
	bp.SetCatalog(cat)

	lf, err := godb.NewLogFile(filepath.Join(*dataDir, "wal.log"), bp, cat)
	if err != nil {
		fatalf("log file: %v", err)
	}
	bp.SetLogFile(lf)

	fmt.Fprintln(os.Stderr, "recovering from write-ahead log...")
	if err := lf.Recover(); err != nil {
		fatalf("recovery: %v", err)
	}

	sh := &shell{dataDir: *dataDir, bp: bp, cat: cat, lf: lf, tables: map[string]*godb.TupleDesc{}}

	rl, err := readline.New("sql> ")
	if err != nil {
		fatalf("readline: %v", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			fatalf("readline: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sh.dispatch(line); err != nil {
			fmt.Println("ERR:", err)
		}
	}

	if err := lf.LogCheckpoint(); err != nil {
		fmt.Fprintln(os.Stderr, "checkpoint on exit:", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// shell holds the session state a line-at-a-time REPL needs beyond what the
// catalog already tracks. tables records the TupleDesc of each table created
// in this session; the other commands take a table's descriptor from its
// HeapFile instead.
type shell struct {
	dataDir string
	bp      *godb.BufferPool
	cat     *godb.Catalog
	lf      *godb.LogFile
	tables  map[string]*godb.TupleDesc
}

func (sh *shell) dispatch(line string) error {
	if strings.HasPrefix(line, ".") {
		return sh.meta(line)
	}

	stmt, err := sqlparser.Parse(strings.TrimSuffix(line, ";"))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	switch s := stmt.(type) {
	case *sqlparser.DDL:
		return sh.createTable(s)
	case *sqlparser.Insert:
		return sh.insert(s)
	case *sqlparser.Select:
		return sh.selectRows(s)
	case *sqlparser.Delete:
		return sh.delete(s)
	default:
		return fmt.Errorf("unsupported statement: %s", sqlparser.String(stmt))
	}
}

// meta handles ".load TABLE FILE [header] [sep]" -- everything else the
// REPL understands goes through the SQL parser.
func (sh *shell) meta(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != ".load" {
		return fmt.Errorf("unknown meta command: %s", line)
	}
	table, path := fields[1], fields[2]
	hasHeader := len(fields) > 3 && fields[3] == "header"
	sep := ","
	if len(fields) > 4 {
		sep = fields[4]
	}

	file, err := sh.cat.GetDBFileByName(table)
	if err != nil {
		return err
	}
	hf, ok := file.(*godb.HeapFile)
	if !ok {
		return fmt.Errorf("%s is not a heap table", table)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return hf.LoadFromCSV(f, hasHeader, sep, false)
}

func (sh *shell) createTable(ddl *sqlparser.DDL) error {
	if ddl.Action != sqlparser.CreateStr || ddl.TableSpec == nil {
		return fmt.Errorf("only CREATE TABLE is supported")
	}
	name := ddl.NewName.Name.String()

	fields := make([]godb.FieldType, 0, len(ddl.TableSpec.Columns))
	for _, col := range ddl.TableSpec.Columns {
		ftype := godb.StringType
		switch strings.ToLower(col.Type.Type) {
		case "int", "integer", "bigint", "smallint", "tinyint":
			ftype = godb.IntType
		}
		fields = append(fields, godb.FieldType{Fname: col.Name.String(), Ftype: ftype})
	}
	td := &godb.TupleDesc{Fields: fields}

	path := filepath.Join(sh.dataDir, name+".dat")
	hf, err := godb.NewHeapFile(path, td, sh.bp)
	if err != nil {
		return err
	}
	sh.cat.AddTable(name, hf)
	sh.tables[name] = td
	fmt.Printf("table %s created (%d columns)\n", name, len(fields))
	return nil
}

func (sh *shell) insert(ins *sqlparser.Insert) error {
	name := ins.Table.Name.String()
	dbFile, err := sh.cat.GetDBFileByName(name)
	if err != nil {
		return err
	}
	file, ok := dbFile.(*godb.HeapFile)
	if !ok {
		return fmt.Errorf("%s is not a heap table", name)
	}
	td := file.Descriptor()

	values, ok := ins.Rows.(sqlparser.Values)
	if !ok {
		return fmt.Errorf("only INSERT ... VALUES is supported")
	}

	tx, err := godb.NewTransaction(sh.bp, sh.lf)
	if err != nil {
		return err
	}
	inserted := 0
	for _, row := range values {
		if len(row) != len(td.Fields) {
			_ = tx.Abort()
			return fmt.Errorf("row has %d values, table %s has %d columns", len(row), name, len(td.Fields))
		}
		vals := make([]godb.DBValue, len(row))
		for i, expr := range row {
			v, err := literalValue(expr, td.Fields[i].Ftype)
			if err != nil {
				_ = tx.Abort()
				return err
			}
			vals[i] = v
		}
		t := &godb.Tuple{Desc: *td, Fields: vals}
		if err := sh.bp.InsertTuple(tx.ID(), file.TableID(), t); err != nil {
			_ = tx.Abort()
			return err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	fmt.Printf("inserted %d row(s)\n", inserted)
	return nil
}

func (sh *shell) selectRows(sel *sqlparser.Select) error {
	if len(sel.From) != 1 {
		return fmt.Errorf("only single-table SELECT is supported")
	}
	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return fmt.Errorf("unsupported FROM clause")
	}
	tableName, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return fmt.Errorf("unsupported FROM clause")
	}
	file, err := sh.cat.GetDBFileByName(tableName.Name.String())
	if err != nil {
		return err
	}

	tx, err := godb.NewTransaction(sh.bp, sh.lf)
	if err != nil {
		return err
	}

	var op godb.Operator = file
	if sel.Where != nil {
		op, err = sh.applyWhere(op, sel.Where)
		if err != nil {
			_ = tx.Abort()
			return err
		}
	}

	iter, err := op.Iterator(tx.ID())
	if err != nil {
		_ = tx.Abort()
		return err
	}

	td := op.Descriptor()
	fmt.Println(td.HeaderString(true))
	rows := 0
	for {
		t, err := iter()
		if err != nil {
			_ = tx.Abort()
			return err
		}
		if t == nil {
			break
		}
		fmt.Println(t.PrettyPrintString(true))
		rows++
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	fmt.Printf("(%d row(s))\n", rows)
	return nil
}

func (sh *shell) delete(del *sqlparser.Delete) error {
	if len(del.TableExprs) != 1 {
		return fmt.Errorf("only single-table DELETE is supported")
	}
	aliased, ok := del.TableExprs[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return fmt.Errorf("unsupported target table")
	}
	tableName, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return fmt.Errorf("unsupported target table")
	}
	file, err := sh.cat.GetDBFileByName(tableName.Name.String())
	if err != nil {
		return err
	}

	tx, err := godb.NewTransaction(sh.bp, sh.lf)
	if err != nil {
		return err
	}

	var scan godb.Operator = file
	if del.Where != nil {
		scan, err = sh.applyWhere(scan, del.Where)
		if err != nil {
			_ = tx.Abort()
			return err
		}
	}

	deleteOp := godb.NewDeleteOp(sh.bp, scan)
	iter, err := deleteOp.Iterator(tx.ID())
	if err != nil {
		_ = tx.Abort()
		return err
	}
	countTuple, err := iter()
	if err != nil {
		_ = tx.Abort()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	fmt.Println(countTuple.PrettyPrintString(true))
	return nil
}

// applyWhere builds a Filter operator for the single "column op literal"
// predicate expr describes. Compound (AND/OR) predicates are not supported.
func (sh *shell) applyWhere(child godb.Operator, where *sqlparser.Where) (godb.Operator, error) {
	cmp, ok := where.Expr.(*sqlparser.ComparisonExpr)
	if !ok {
		return nil, fmt.Errorf("only a single comparison predicate is supported in WHERE")
	}
	col, ok := cmp.Left.(*sqlparser.ColName)
	if !ok {
		return nil, fmt.Errorf("WHERE predicate must compare a column to a literal")
	}
	fname := col.Name.String()

	idx := -1
	desc := child.Descriptor()
	for i, f := range desc.Fields {
		if f.Fname == fname {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("no such column %q", fname)
	}
	ftype := desc.Fields[idx].Ftype

	op, err := boolOpFor(cmp.Operator)
	if err != nil {
		return nil, err
	}
	val, err := literalValue(cmp.Right, ftype)
	if err != nil {
		return nil, err
	}

	left := &godb.FieldExpr{Field: desc.Fields[idx]}
	right := &godb.ConstExpr{Val: val, Ftype: ftype}
	return godb.NewFilter(right, op, left, child)
}

func boolOpFor(op string) (godb.BoolOp, error) {
	switch op {
	case sqlparser.EqualStr:
		return godb.OpEq, nil
	case sqlparser.NotEqualStr:
		return godb.OpNeq, nil
	case sqlparser.GreaterThanStr:
		return godb.OpGt, nil
	case sqlparser.GreaterEqualStr:
		return godb.OpGe, nil
	case sqlparser.LessThanStr:
		return godb.OpLt, nil
	case sqlparser.LessEqualStr:
		return godb.OpLe, nil
	default:
		return 0, fmt.Errorf("unsupported comparison operator %q", op)
	}
}

func literalValue(expr sqlparser.Expr, ftype godb.DBType) (godb.DBValue, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		return nil, fmt.Errorf("expected a literal value, got %s", sqlparser.String(expr))
	}
	switch ftype {
	case godb.IntType:
		n, err := strconv.ParseInt(string(val.Val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %s", val.Val)
		}
		return godb.IntField{Value: n}, nil
	default:
		s := string(val.Val)
		if len(s) > godb.StringLength {
			s = s[:godb.StringLength]
		}
		return godb.StringField{Value: s}, nil
	}
}
