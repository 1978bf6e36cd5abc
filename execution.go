package matidb

import (
	"errors"
	"fmt"
	"strings"
)

// Result is what the executor hands back to whichever front end is
// driving it (REPL or TCP protocol): a schema and the matching rows.
// A statement with no rows to report (CREATE TABLE, INSERT) returns nil.
type Result struct {
	Schema Schema
	Rows   []Row
}

// ErrUnhandledStatement indicates a parsed Statement has no branch set,
// which should never happen for anything sqlParser produces.
var ErrUnhandledStatement = errors.New("unhandled statement")

// Executor runs parsed Statements against a Database, evaluating WHERE
// predicates and column projection — executor-level conveniences that sit
// outside the core's invariants (spec.md §1).
type Executor struct {
	db *Database
}

func NewExecutor(db *Database) *Executor {
	return &Executor{db: db}
}

func (ex *Executor) Execute(stmt *Statement) (*Result, error) {
	switch {
	case stmt.Create != nil:
		return nil, ex.execCreate(stmt.Create)
	case stmt.Insert != nil:
		return nil, ex.execInsert(stmt.Insert)
	case stmt.Select != nil:
		return ex.execSelect(stmt.Select)
	default:
		return nil, ErrUnhandledStatement
	}
}

// FlushDatabase runs the durability checkpoint directly, bypassing SQL —
// backs the "flush" REPL word (spec.md §6).
func (ex *Executor) FlushDatabase() error {
	return ex.db.Flush()
}

// ListTables backs the "tables" REPL word (spec.md §6).
func (ex *Executor) ListTables() []*Table {
	return ex.db.ListTables()
}

func (ex *Executor) execCreate(stmt *CreateTableStmt) error {
	schema, err := stmt.ToSchema()
	if err != nil {
		return err
	}
	return ex.db.CreateTable(stmt.Table, schema)
}

func (ex *Executor) execInsert(stmt *InsertStmt) error {
	for i, row := range stmt.ToRows() {
		if err := ex.db.InsertRow(stmt.Table, row); err != nil {
			return fmt.Errorf("row #%d: %w", i, err)
		}
	}
	return nil
}

func (ex *Executor) execSelect(stmt *SelectStmt) (*Result, error) {
	table, ok := ex.db.GetTable(stmt.Table)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, stmt.Table)
	}

	fieldIndex := make(map[string]int, len(table.Schema.Columns))
	for i, name := range table.Schema.ColumnNames() {
		fieldIndex[strings.ToLower(name)] = i
	}

	var filter func(Row) (bool, error)
	if stmt.Where != nil {
		where := stmt.Where
		filter = func(row Row) (bool, error) {
			v, err := evalExpression(where, fieldIndex, row)
			if err != nil {
				return false, err
			}
			if v.Kind != KindBool {
				return false, fmt.Errorf("WHERE clause must evaluate to a boolean, got %v", v.Kind)
			}
			return v.Bool, nil
		}
	}

	schema := table.Schema
	project := func(row Row) Row { return row }
	if !stmt.Projection.All {
		newSchema, indexes, err := table.Schema.Project(stmt.Projection.Fields)
		if err != nil {
			return nil, err
		}
		schema = newSchema
		project = func(row Row) Row { return row.Project(indexes) }
	}

	var rows []Row
	err := ex.db.Scan(stmt.Table, func(row Row) error {
		if filter != nil {
			ok, err := filter(row)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		rows = append(rows, project(row))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{Schema: schema, Rows: rows}, nil
}

func evalOperand(op *Operand, fieldIndex map[string]int, row Row) (Value, error) {
	switch {
	case op.Const != nil:
		return op.Const.ToValue(), nil
	case op.Field != "":
		idx, ok := fieldIndex[strings.ToLower(op.Field)]
		if !ok {
			return Value{}, fmt.Errorf("no column named %q", op.Field)
		}
		return row[idx], nil
	case op.Subexpr != nil:
		return evalExpression(op.Subexpr, fieldIndex, row)
	default:
		return Value{}, fmt.Errorf("empty operand")
	}
}

func evalComparison(c *Comparison, fieldIndex map[string]int, row Row) (Value, error) {
	left, err := evalOperand(c.Left, fieldIndex, row)
	if err != nil {
		return Value{}, err
	}
	if c.Op == nil {
		return left, nil
	}

	right, err := evalOperand(c.Right, fieldIndex, row)
	if err != nil {
		return Value{}, err
	}
	return compareValues(left, *c.Op, right)
}

func evalExpression(e *Expression, fieldIndex map[string]int, row Row) (Value, error) {
	result, err := evalComparison(e.Left, fieldIndex, row)
	if err != nil {
		return Value{}, err
	}

	for _, tail := range e.Rest {
		rhs, err := evalComparison(tail.Right, fieldIndex, row)
		if err != nil {
			return Value{}, err
		}
		result, err = applyLogic(result, tail.Op, rhs)
		if err != nil {
			return Value{}, err
		}
	}

	return result, nil
}

// compareValues applies a comparison operator. NULL is never equal to
// anything (including another NULL): with a NULL on either side, != is
// true and every other operator is false, which collapses three-valued
// logic onto this engine's boolean WHERE clauses.
func compareValues(left Value, op CmpOp, right Value) (Value, error) {
	if left.Kind == KindNull || right.Kind == KindNull {
		return BoolValue(op == OpNotEq), nil
	}

	if left.Kind != right.Kind {
		return Value{}, fmt.Errorf("cannot compare %v with %v", left.Kind, right.Kind)
	}

	switch left.Kind {
	case KindInt64:
		return BoolValue(compareOrdered(left.Int, right.Int, op)), nil
	case KindText:
		return BoolValue(compareOrdered(strings.Compare(left.Text, right.Text), 0, op)), nil
	case KindBool:
		switch op {
		case OpEq:
			return BoolValue(left.Bool == right.Bool), nil
		case OpNotEq:
			return BoolValue(left.Bool != right.Bool), nil
		default:
			return Value{}, fmt.Errorf("operator %v not defined for booleans", op)
		}
	default:
		return Value{}, fmt.Errorf("unsupported comparison operand kind")
	}
}

func compareOrdered[T int64 | int](a, b T, op CmpOp) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNotEq:
		return a != b
	case OpLess:
		return a < b
	case OpLessOrEq:
		return a <= b
	case OpGreater:
		return a > b
	case OpGreaterOrEq:
		return a >= b
	default:
		return false
	}
}

func applyLogic(left Value, op CmpOp, right Value) (Value, error) {
	if left.Kind != KindBool || right.Kind != KindBool {
		return Value{}, fmt.Errorf("AND/OR require boolean operands")
	}

	switch op {
	case OpAnd:
		return BoolValue(left.Bool && right.Bool), nil
	case OpOr:
		return BoolValue(left.Bool || right.Bool), nil
	default:
		return Value{}, fmt.Errorf("unexpected logic operator %v", op)
	}
}

func (o CmpOp) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNotEq:
		return "!="
	case OpLess:
		return "<"
	case OpLessOrEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterOrEq:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return "<unknown op>"
	}
}
