package mssql

import (
	"strings"
	"testing"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

func TestQuote(t *testing.T) {
	p := New(nil)
	if got := p.Quote("orders"); got != "[orders]" {
		t.Errorf("Quote = %q", got)
	}
	if got := p.Quote("we]ird"); got != "[we]]ird]" {
		t.Errorf("Quote with bracket = %q", got)
	}
}

func TestDefaultLiteral(t *testing.T) {
	p := New(nil)
	tests := []struct{ in, want string }{
		{"current_timestamp", "GETUTCDATE()"},
		{"NOW()", "GETUTCDATE()"},
		{"true", "1"},
		{"FALSE", "0"},
		{"42", "42"},
	}
	for _, tt := range tests {
		if got := p.DefaultLiteral(tt.in); got != tt.want {
			t.Errorf("DefaultLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderType(t *testing.T) {
	tests := []struct {
		in   schema.SQLTypeDescriptor
		want string
	}{
		{schema.SQLTypeDescriptor{TypeName: "nvarchar", Length: schema.IntPtr(255)}, "NVARCHAR(255)"},
		{schema.SQLTypeDescriptor{TypeName: "nvarchar"}, "NVARCHAR(MAX)"},
		{schema.SQLTypeDescriptor{TypeName: "varbinary"}, "VARBINARY(MAX)"},
		{schema.SQLTypeDescriptor{TypeName: "decimal", Precision: schema.IntPtr(18), Scale: schema.IntPtr(2)}, "DECIMAL(18,2)"},
		{schema.SQLTypeDescriptor{TypeName: "bigint"}, "BIGINT"},
	}
	for _, tt := range tests {
		if got := renderType(tt.in); got != tt.want {
			t.Errorf("renderType(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnDefinition(t *testing.T) {
	p := New(nil)

	def, err := p.columnDefinition(schema.Column{
		Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}, AutoIncrement: true,
	})
	if err != nil {
		t.Fatalf("columnDefinition: %v", err)
	}
	if def != "[id] BIGINT IDENTITY(1,1) NOT NULL" {
		t.Errorf("identity column = %q", def)
	}

	expr := "0"
	def, err = p.columnDefinition(schema.Column{
		Name: "total", Type: schema.TypeDescriptor{Name: schema.TypeDecimal}, Nullable: true, Default: &expr,
	})
	if err != nil {
		t.Fatalf("columnDefinition: %v", err)
	}
	if def != "[total] DECIMAL(18,2) NULL DEFAULT 0" {
		t.Errorf("defaulted column = %q", def)
	}

	_, err = p.columnDefinition(schema.Column{Name: "shape", Type: schema.TypeDescriptor{Name: "geometry"}})
	if err == nil {
		t.Fatal("expected unsupported type error")
	}
}

func TestCreateTableStatements(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Schema: "sales",
		Name:   "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "customer_id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		ForeignKeys: []schema.ForeignKey{
			{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"}, OnDelete: schema.Cascade},
		},
		Indexes: []schema.Index{
			{Columns: []schema.IndexColumn{{Name: "customer_id", Desc: true}}},
		},
	}

	stmts, err := p.createTableStatements(tb)
	if err != nil {
		t.Fatalf("createTableStatements: %v", err)
	}
	if len(stmts) != 4 {
		t.Fatalf("got %d statements: %v", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "CREATE SCHEMA [sales]") {
		t.Errorf("missing schema bootstrap: %q", stmts[0])
	}
	wantTable := "CREATE TABLE [sales].[orders] ([id] BIGINT NOT NULL, [customer_id] BIGINT NOT NULL, CONSTRAINT [orders_pk_id] PRIMARY KEY ([id]))"
	if stmts[1] != wantTable {
		t.Errorf("create table =\n%q\nwant\n%q", stmts[1], wantTable)
	}
	wantFK := "ALTER TABLE [sales].[orders] ADD CONSTRAINT [orders_fk_customerid] FOREIGN KEY ([customer_id]) REFERENCES [dbo].[customers] ([id]) ON DELETE CASCADE"
	if stmts[2] != wantFK {
		t.Errorf("foreign key =\n%q\nwant\n%q", stmts[2], wantFK)
	}
	wantIdx := "CREATE INDEX [orders_ix_customerid] ON [sales].[orders] ([customer_id] DESC)"
	if stmts[3] != wantIdx {
		t.Errorf("index =\n%q\nwant\n%q", stmts[3], wantIdx)
	}
}

func TestConstraintStatementDefault(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Name:    "orders",
		Columns: []schema.Column{{Name: "status", Type: schema.TypeDescriptor{Name: schema.TypeString}}},
	}
	d := schema.Default{Column: "status", Expression: "'new'"}
	stmt, err := p.constraintStatement(tb, dialect.Constraint{Kind: dialect.ConstraintDefault, Default: &d})
	if err != nil {
		t.Fatalf("constraintStatement: %v", err)
	}
	want := "ALTER TABLE [dbo].[orders] ADD CONSTRAINT [orders_df_status] DEFAULT 'new' FOR [status]"
	if stmt != want {
		t.Errorf("default constraint =\n%q\nwant\n%q", stmt, want)
	}
}

func TestIndexStatementUnique(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Name:    "orders",
		Columns: []schema.Column{{Name: "number", Type: schema.TypeDescriptor{Name: schema.TypeString}}},
	}
	idx := schema.Index{Unique: true, Columns: []schema.IndexColumn{{Name: "number"}}}
	want := "CREATE UNIQUE INDEX [orders_ix_number] ON [dbo].[orders] ([number])"
	if got := p.indexStatement(tb, idx); got != want {
		t.Errorf("indexStatement =\n%q\nwant\n%q", got, want)
	}
}
