// Package matidb's SQL front end: a small participle grammar covering the
// three statements the core's executor needs (spec.md §1 treats the
// tokenizer/parser as an external collaborator of the storage engine, but
// a runnable repo needs one).
package matidb

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var queryLexer = lexer.MustSimple([]lexer.Rule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "String", Pattern: `'(?:\\.|[^'])*'`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Operators", Pattern: `!=|<=|>=|[-+*/,.()=<>]`},
	{Name: "comment", Pattern: `[#;][^\n]*`},
	{Name: "whitespace", Pattern: `\s+`},
})

// ColumnTypeName is the raw type name (and optional, ignored, length
// parameter) as written in a CREATE TABLE column definition.
type ColumnTypeName struct {
	Name string `@Ident`
	Len  *int64 `("(" @Int ")")?`
}

// Resolve maps the wider SQL type keywords onto the core's three
// ColumnTypes (spec.md §3): BIGINT/INT/INTEGER/SMALLINT -> Int64,
// TEXT/VARCHAR/CHAR/STRING -> Text, BOOLEAN -> Bool. A length parameter on
// VARCHAR/CHAR is accepted but not enforced — the tuple codec is
// variable-length, so it carries no storage meaning here.
func (t *ColumnTypeName) Resolve() (ColumnType, error) {
	switch strings.ToUpper(t.Name) {
	case "BIGINT", "INT", "INTEGER", "SMALLINT":
		return ColInt64, nil
	case "TEXT", "VARCHAR", "CHAR", "STRING":
		return ColText, nil
	case "BOOLEAN":
		return ColBool, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", t.Name)
	}
}

// ColumnDef is one "name TYPE" entry in a CREATE TABLE column list.
type ColumnDef struct {
	Name string          `@Ident`
	Type *ColumnTypeName `@@`
}

// CreateTableStmt is "CREATE TABLE name (col TYPE, col TYPE, ...)".
type CreateTableStmt struct {
	Table   string      `"CREATE" "TABLE" @Ident`
	Columns []ColumnDef `"(" @@ ("," @@)* ")"`
}

func (c *CreateTableStmt) ToSchema() (Schema, error) {
	columns := make([]Column, len(c.Columns))
	for i, cd := range c.Columns {
		ct, err := cd.Type.Resolve()
		if err != nil {
			return Schema{}, err
		}
		columns[i] = Column{Name: cd.Name, Type: ct}
	}
	return NewSchema(columns), nil
}

// Literal is a constant value as written in SQL: an integer, a quoted
// string, a boolean keyword, or NULL.
type Literal struct {
	Null  bool    `  @"NULL"`
	True  bool    `| @"true"`
	False bool    `| @"false"`
	Int   *int64  `| @Int`
	Str   *string `| @String`
}

func (l *Literal) ToValue() Value {
	switch {
	case l.Null:
		return NullValue()
	case l.True:
		return BoolValue(true)
	case l.False:
		return BoolValue(false)
	case l.Int != nil:
		return Int64Value(*l.Int)
	case l.Str != nil:
		return TextValue(unquoteSQLString(*l.Str))
	default:
		panic("empty literal")
	}
}

// unquoteSQLString strips the surrounding single quotes the String lexer
// rule captures and resolves backslash escapes. participle's built-in
// Unquote post-processor assumes Go double-quoted syntax (via
// strconv.Unquote), which rejects multi-character single-quoted SQL
// strings, so this is done by hand instead.
func unquoteSQLString(raw string) string {
	inner := raw
	if len(inner) >= 2 && inner[0] == '\'' && inner[len(inner)-1] == '\'' {
		inner = inner[1 : len(inner)-1]
	}

	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// TupleLit is one "(v1, v2, ...)" row literal in a VALUES list.
type TupleLit struct {
	Values []Literal `"(" @@ ("," @@)* ")"`
}

func (t *TupleLit) ToRow() Row {
	row := make(Row, len(t.Values))
	for i := range t.Values {
		row[i] = t.Values[i].ToValue()
	}
	return row
}

// InsertStmt is "INSERT INTO name VALUES (...), (...), ...".
type InsertStmt struct {
	Table string     `"INSERT" "INTO" @Ident`
	Rows  []TupleLit `"VALUES" @@ ("," @@)*`
}

func (ins *InsertStmt) ToRows() []Row {
	rows := make([]Row, len(ins.Rows))
	for i := range ins.Rows {
		rows[i] = ins.Rows[i].ToRow()
	}
	return rows
}

// Projection is either "*" or an explicit column list.
type Projection struct {
	All    bool     `  @"*"`
	Fields []string `| @Ident ("," @Ident)*`
}

// CmpOp is a WHERE-clause comparison or boolean operator.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNotEq
	OpLess
	OpLessOrEq
	OpGreater
	OpGreaterOrEq
	OpAnd
	OpOr
)

func (o *CmpOp) Capture(s []string) error {
	switch s[0] {
	case "=":
		*o = OpEq
	case "!=":
		*o = OpNotEq
	case "<":
		*o = OpLess
	case "<=":
		*o = OpLessOrEq
	case ">":
		*o = OpGreater
	case ">=":
		*o = OpGreaterOrEq
	case "AND":
		*o = OpAnd
	case "OR":
		*o = OpOr
	default:
		return fmt.Errorf("unexpected operator %q", s[0])
	}
	return nil
}

// Operand is one leaf of a WHERE expression: a literal, a column
// reference, or a parenthesized sub-expression.
type Operand struct {
	Const   *Literal    `  @@`
	Field   string      `| @Ident`
	Subexpr *Expression `| "(" @@ ")"`
}

// Comparison is "operand (cmp operand)?" — at most one comparison level,
// matching the predicates spec.md's scenarios need (equality/ordering
// over a single column).
type Comparison struct {
	Left  *Operand `@@`
	Op    *CmpOp   `( @("=" | "!=" | "<" | "<=" | ">" | ">=")`
	Right *Operand `  @@ )?`
}

// Expression is a conjunction/disjunction of comparisons:
// comparison ((AND|OR) comparison)*, left-associative.
type Expression struct {
	Left *Comparison       `@@`
	Rest []*ExpressionTail `@@*`
}

type ExpressionTail struct {
	Op    CmpOp       `@("AND" | "OR")`
	Right *Comparison `@@`
}

// SelectStmt is "SELECT projection FROM table [WHERE expr]".
type SelectStmt struct {
	Projection Projection  `"SELECT" @@`
	Table      string      `"FROM" @Ident`
	Where      *Expression `("WHERE" @@)?`
}

// Statement is any one of the three SQL statements the core's executor supports.
type Statement struct {
	Create *CreateTableStmt `  @@`
	Insert *InsertStmt      `| @@`
	Select *SelectStmt      `| @@`
}

var sqlParser = participle.MustBuild(&Statement{},
	participle.Lexer(queryLexer),
)

// ParseStatement parses one SQL statement (no trailing semicolon required).
func ParseStatement(sql string) (*Statement, error) {
	stmt := &Statement{}
	if err := sqlParser.ParseString("", sql, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}
