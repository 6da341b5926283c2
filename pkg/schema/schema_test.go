package schema

import (
	"strings"
	"testing"
)

func validTable() *Table {
	return &Table{
		Name: "orders",
		Columns: []Column{
			{Name: "id", Type: TypeDescriptor{Name: TypeInt64}},
			{Name: "customer_id", Type: TypeDescriptor{Name: TypeInt64}},
			{Name: "total", Type: TypeDescriptor{Name: TypeDecimal}},
		},
		PrimaryKey: &PrimaryKey{Columns: []string{"id"}},
		ForeignKeys: []ForeignKey{
			{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"}},
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validTable().Validate(); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Table)
		wantErr string
	}{
		{
			name:    "empty name",
			mutate:  func(tb *Table) { tb.Name = "" },
			wantErr: "name is empty",
		},
		{
			name:    "no columns",
			mutate:  func(tb *Table) { tb.Columns = nil },
			wantErr: "no columns",
		},
		{
			name: "duplicate column case-insensitive",
			mutate: func(tb *Table) {
				tb.Columns = append(tb.Columns, Column{Name: "ID", Type: TypeDescriptor{Name: TypeInt64}})
			},
			wantErr: "duplicate column",
		},
		{
			name:    "primary key unknown column",
			mutate:  func(tb *Table) { tb.PrimaryKey = &PrimaryKey{Columns: []string{"missing"}} },
			wantErr: "unknown column",
		},
		{
			name: "foreign key arity mismatch",
			mutate: func(tb *Table) {
				tb.ForeignKeys[0].RefColumns = []string{"id", "extra"}
			},
			wantErr: "local but",
		},
		{
			name: "index unknown column",
			mutate: func(tb *Table) {
				tb.Indexes = []Index{{Columns: []IndexColumn{{Name: "missing"}}}}
			},
			wantErr: "unknown column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := validTable()
			tt.mutate(tb)
			err := tb.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestColumnLookupIsCaseInsensitive(t *testing.T) {
	tb := validTable()
	if tb.Column("CUSTOMER_ID") == nil {
		t.Fatal("case-insensitive column lookup failed")
	}
	if tb.Column("nope") != nil {
		t.Fatal("lookup of unknown column returned a column")
	}
}

func TestQualifiedName(t *testing.T) {
	tb := validTable()
	if got := tb.QualifiedName(); got != "orders" {
		t.Errorf("QualifiedName() = %q", got)
	}
	tb.Schema = "sales"
	if got := tb.QualifiedName(); got != "sales.orders" {
		t.Errorf("QualifiedName() with schema = %q", got)
	}
}
