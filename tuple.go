package matidb

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is the positional type of one column in a Schema.
type ColumnType uint8

const (
	ColInt64 ColumnType = iota
	ColText
	ColBool
)

func (t ColumnType) String() string {
	switch t {
	case ColInt64:
		return "int64"
	case ColText:
		return "text"
	case ColBool:
		return "bool"
	default:
		return "<invalid column type>"
	}
}

// Tag bytes for the tuple wire format (spec.md §4.5).
const (
	tagInt64 byte = 0x00
	tagText  byte = 0x01
	tagBool  byte = 0x02
	tagNull  byte = 0x03
)

// ValueKind distinguishes which field of Value is meaningful.
type ValueKind uint8

const (
	KindInt64 ValueKind = iota
	KindText
	KindBool
	KindNull
)

func (k ValueKind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "<invalid kind>"
	}
}

// Value is one column's value in a Row: exactly one of Int/Text/Bool is
// meaningful, selected by Kind, unless Kind is KindNull.
type Value struct {
	Kind ValueKind
	Int  int64
	Text string
	Bool bool
}

func Int64Value(v int64) Value { return Value{Kind: KindInt64, Int: v} }
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }
func BoolValue(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func NullValue() Value         { return Value{Kind: KindNull} }

// String renders a value the way the interactive CLI and tablewriter output want it.
func (v Value) String() string {
	switch v.Kind {
	case KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNull:
		return "NULL"
	default:
		return "<invalid value>"
	}
}

// matchesColumn reports whether v is an acceptable value for a column of
// type ct. NULL is accepted for any column type; every other kind must
// match exactly (spec.md §9: strict schema checking is the default).
func (v Value) matchesColumn(ct ColumnType) bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindInt64:
		return ct == ColInt64
	case KindText:
		return ct == ColText
	case KindBool:
		return ct == ColBool
	default:
		return false
	}
}

// Row is an ordered sequence of values, one per column of the owning
// table's schema.
type Row []Value

// Project returns a new row containing only the values at indexes, in order.
func (r Row) Project(indexes []int) Row {
	out := make(Row, len(indexes))
	for i, idx := range indexes {
		out[i] = r[idx]
	}
	return out
}

// Column is one (name, type) pair in a Schema. Names are case-preserved
// but matched case-insensitively (spec.md §3).
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a table.
type Schema struct {
	Columns []Column
}

// NewSchema builds a Schema from its columns, in order.
func NewSchema(columns []Column) Schema {
	return Schema{Columns: append([]Column(nil), columns...)}
}

// ColumnNames returns the schema's column names in order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// FieldIndex returns the index of the column named name (case-insensitive), or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Project builds the sub-schema and index list selecting names, in order.
func (s *Schema) Project(names []string) (Schema, []int, error) {
	indexes := make([]int, 0, len(names))
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		idx := s.FieldIndex(name)
		if idx == -1 {
			return Schema{}, nil, fmt.Errorf("no column named %q in schema", name)
		}
		indexes = append(indexes, idx)
		columns = append(columns, s.Columns[idx])
	}
	return NewSchema(columns), indexes, nil
}

// Typecheck reports ErrSchemaMismatch if row's arity or positional types
// don't match the schema.
func (s *Schema) Typecheck(row Row) error {
	if len(row) != len(s.Columns) {
		return fmt.Errorf("%w: expected %d values, got %d", ErrSchemaMismatch, len(s.Columns), len(row))
	}

	for i, col := range s.Columns {
		if !row[i].matchesColumn(col.Type) {
			return fmt.Errorf("%w: column %q expects %v, got %v", ErrSchemaMismatch, col.Name, col.Type, row[i].Kind)
		}
	}

	return nil
}

// MaxTuplePayload is the largest encoded tuple that can ever be inserted
// into an empty page: PAGE_SIZE - HEADER_SIZE - SLOT_SIZE (spec.md §4.5).
const MaxTuplePayload = PageSize - HeaderSize - SlotSize

// EncodeRow serializes row as the concatenation of its tagged values, in
// schema order (spec.md §4.5). Returns ErrTupleTooLarge if the encoding
// would not fit on an empty page.
func EncodeRow(row Row) ([]byte, error) {
	size := 0
	for _, v := range row {
		size += encodedValueSize(v)
	}
	if size > MaxTuplePayload {
		return nil, fmt.Errorf("%w: encoded tuple is %d bytes, max is %d", ErrTupleTooLarge, size, MaxTuplePayload)
	}

	buf := make([]byte, 0, size)
	for _, v := range row {
		buf = appendValue(buf, v)
	}
	return buf, nil
}

func encodedValueSize(v Value) int {
	switch v.Kind {
	case KindInt64:
		return 1 + 8
	case KindText:
		return 1 + 2 + len(v.Text)
	case KindBool:
		return 1 + 1
	case KindNull:
		return 1
	default:
		return 1
	}
}

func appendValue(buf []byte, v Value) []byte {
	switch v.Kind {
	case KindInt64:
		buf = append(buf, tagInt64)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.Int))
		return append(buf, b[:]...)
	case KindText:
		buf = append(buf, tagText)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(len(v.Text)))
		buf = append(buf, b[:]...)
		return append(buf, v.Text...)
	case KindBool:
		buf = append(buf, tagBool)
		if v.Bool {
			return append(buf, 0x01)
		}
		return append(buf, 0x00)
	case KindNull:
		return append(buf, tagNull)
	default:
		panic("unhandled value kind")
	}
}

// DecodeRow decodes len(schema.Columns) tagged values from data, validating
// each tag against the schema's positional type. Returns ErrCorruptTuple on
// a tag mismatch or truncated value.
func DecodeRow(data []byte, schema *Schema) (Row, error) {
	row := make(Row, 0, len(schema.Columns))
	offset := 0

	for _, col := range schema.Columns {
		if offset >= len(data) {
			return nil, fmt.Errorf("%w: truncated tuple at column %q", ErrCorruptTuple, col.Name)
		}

		tag := data[offset]
		offset++

		switch tag {
		case tagInt64:
			if col.Type != ColInt64 {
				return nil, fmt.Errorf("%w: column %q expects %v, got int64 tag", ErrCorruptTuple, col.Name, col.Type)
			}
			if offset+8 > len(data) {
				return nil, fmt.Errorf("%w: truncated int64 at column %q", ErrCorruptTuple, col.Name)
			}
			v := int64(binary.LittleEndian.Uint64(data[offset : offset+8]))
			offset += 8
			row = append(row, Int64Value(v))

		case tagText:
			if col.Type != ColText {
				return nil, fmt.Errorf("%w: column %q expects %v, got text tag", ErrCorruptTuple, col.Name, col.Type)
			}
			if offset+2 > len(data) {
				return nil, fmt.Errorf("%w: truncated text length at column %q", ErrCorruptTuple, col.Name)
			}
			n := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
			offset += 2
			if offset+n > len(data) {
				return nil, fmt.Errorf("%w: truncated text at column %q", ErrCorruptTuple, col.Name)
			}
			row = append(row, TextValue(string(data[offset:offset+n])))
			offset += n

		case tagBool:
			if col.Type != ColBool {
				return nil, fmt.Errorf("%w: column %q expects %v, got bool tag", ErrCorruptTuple, col.Name, col.Type)
			}
			if offset >= len(data) {
				return nil, fmt.Errorf("%w: truncated bool at column %q", ErrCorruptTuple, col.Name)
			}
			b := data[offset]
			if b != 0x00 && b != 0x01 {
				return nil, fmt.Errorf("%w: invalid bool byte at column %q", ErrCorruptTuple, col.Name)
			}
			offset++
			row = append(row, BoolValue(b == 0x01))

		case tagNull:
			row = append(row, NullValue())

		default:
			return nil, fmt.Errorf("%w: unknown tag 0x%02x at column %q", ErrCorruptTuple, tag, col.Name)
		}
	}

	return row, nil
}
