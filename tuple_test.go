package matidb

import (
	"errors"
	"testing"
)

func TestEncodeDecodeRowRoundTrip(t *testing.T) {
	schema := NewSchema([]Column{
		{Name: "id", Type: ColInt64},
		{Name: "name", Type: ColText},
		{Name: "active", Type: ColBool},
		{Name: "note", Type: ColText},
	})

	rows := []Row{
		{Int64Value(1), TextValue("hello"), BoolValue(true), NullValue()},
		{Int64Value(-42), TextValue(""), BoolValue(false), TextValue("non-null")},
		{Int64Value(0), TextValue("unicode: éè"), BoolValue(true), NullValue()},
	}

	for i, row := range rows {
		encoded, err := EncodeRow(row)
		if err != nil {
			t.Fatalf("row %d: EncodeRow() error = %v", i, err)
		}

		decoded, err := DecodeRow(encoded, &schema)
		if err != nil {
			t.Fatalf("row %d: DecodeRow() error = %v", i, err)
		}

		if len(decoded) != len(row) {
			t.Fatalf("row %d: decoded %d values, want %d", i, len(decoded), len(row))
		}
		for j := range row {
			if decoded[j] != row[j] {
				t.Fatalf("row %d, col %d: decoded %+v, want %+v", i, j, decoded[j], row[j])
			}
		}
	}
}

func TestEncodeRowTooLarge(t *testing.T) {
	row := Row{TextValue(string(make([]byte, MaxTuplePayload)))}
	_, err := EncodeRow(row)
	if !errors.Is(err, ErrTupleTooLarge) {
		t.Fatalf("EncodeRow() error = %v, want ErrTupleTooLarge", err)
	}
}

func TestDecodeRowCorruptTag(t *testing.T) {
	schema := NewSchema([]Column{{Name: "id", Type: ColInt64}})
	_, err := DecodeRow([]byte{tagText, 0, 0}, &schema)
	if !errors.Is(err, ErrCorruptTuple) {
		t.Fatalf("DecodeRow() error = %v, want ErrCorruptTuple", err)
	}
}

func TestDecodeRowTruncated(t *testing.T) {
	schema := NewSchema([]Column{{Name: "id", Type: ColInt64}})
	_, err := DecodeRow([]byte{tagInt64, 1, 2, 3}, &schema)
	if !errors.Is(err, ErrCorruptTuple) {
		t.Fatalf("DecodeRow() error = %v, want ErrCorruptTuple", err)
	}
}

func TestSchemaTypecheck(t *testing.T) {
	schema := NewSchema([]Column{
		{Name: "id", Type: ColInt64},
		{Name: "name", Type: ColText},
	})

	if err := schema.Typecheck(Row{Int64Value(1), TextValue("a")}); err != nil {
		t.Fatalf("Typecheck() valid row error = %v", err)
	}

	if err := schema.Typecheck(Row{Int64Value(1), NullValue()}); err != nil {
		t.Fatalf("Typecheck() NULL column error = %v", err)
	}

	if err := schema.Typecheck(Row{Int64Value(1)}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Typecheck() arity mismatch error = %v, want ErrSchemaMismatch", err)
	}

	if err := schema.Typecheck(Row{Int64Value(1), BoolValue(true)}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Typecheck() type mismatch error = %v, want ErrSchemaMismatch", err)
	}
}

func TestSchemaProject(t *testing.T) {
	schema := NewSchema([]Column{
		{Name: "id", Type: ColInt64},
		{Name: "name", Type: ColText},
		{Name: "active", Type: ColBool},
	})

	projected, indexes, err := schema.Project([]string{"active", "id"})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if got := projected.ColumnNames(); got[0] != "active" || got[1] != "id" {
		t.Fatalf("Project() columns = %v, want [active id]", got)
	}

	row := Row{Int64Value(7), TextValue("x"), BoolValue(true)}
	out := row.Project(indexes)
	if out[0] != BoolValue(true) || out[1] != Int64Value(7) {
		t.Fatalf("Row.Project() = %+v, want [true 7]", out)
	}

	if _, _, err := schema.Project([]string{"nope"}); err == nil {
		t.Fatalf("Project() with unknown column: error = nil, want non-nil")
	}
}
