package postgres

import (
	"strings"
	"testing"

	"github.com/schemaforge/schemaforge/pkg/schema"
)

func TestQuote(t *testing.T) {
	p := New(nil)
	if got := p.Quote("orders"); got != `"orders"` {
		t.Errorf("Quote = %q", got)
	}
	if got := p.Quote(`we"ird`); got != `"we""ird"` {
		t.Errorf("Quote with quote = %q", got)
	}
}

func TestDefaultLiteral(t *testing.T) {
	p := New(nil)
	tests := []struct{ in, want string }{
		{"current_timestamp", "now()"},
		{"NOW", "now()"},
		{"true", "TRUE"},
		{"false", "FALSE"},
		{"'pending'", "'pending'"},
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
		{schema.SQLTypeDescriptor{TypeName: "character varying", Length: schema.IntPtr(255)}, "character varying(255)"},
		{schema.SQLTypeDescriptor{TypeName: "numeric", Precision: schema.IntPtr(18), Scale: schema.IntPtr(2)}, "numeric(18,2)"},
		{schema.SQLTypeDescriptor{TypeName: "character varying[]", Length: schema.IntPtr(64)}, "character varying(64)[]"},
		{schema.SQLTypeDescriptor{TypeName: "integer[]"}, "integer[]"},
		{schema.SQLTypeDescriptor{TypeName: "jsonb"}, "jsonb"},
	}
	for _, tt := range tests {
		if got := renderType(tt.in); got != tt.want {
			t.Errorf("renderType(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnDefinitionIdentity(t *testing.T) {
	p := New(nil)
	def, err := p.columnDefinition(schema.Column{
		Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}, AutoIncrement: true,
	})
	if err != nil {
		t.Fatalf("columnDefinition: %v", err)
	}
	if def != `"id" bigint GENERATED BY DEFAULT AS IDENTITY NOT NULL` {
		t.Errorf("identity column = %q", def)
	}
}

func TestCreateTableStatements(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Schema: "sales",
		Name:   "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "tags", Type: schema.TypeDescriptor{Name: schema.TypeText, IsArray: true}, Nullable: true},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		Uniques: []schema.Unique{
			{Columns: []string{"id"}},
		},
		Indexes: []schema.Index{
			{Columns: []schema.IndexColumn{{Name: "id", Desc: true}}},
		},
	}

	stmts, err := p.createTableStatements(tb)
	if err != nil {
		t.Fatalf("createTableStatements: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements: %v", len(stmts), stmts)
	}
	if stmts[0] != `CREATE SCHEMA IF NOT EXISTS "sales"` {
		t.Errorf("schema bootstrap = %q", stmts[0])
	}
	wantTable := `CREATE TABLE IF NOT EXISTS "sales"."orders" (` +
		`"id" bigint NOT NULL, "tags" text[] NULL, ` +
		`CONSTRAINT "orders_pk_id" PRIMARY KEY ("id"), ` +
		`CONSTRAINT "orders_uq_id" UNIQUE ("id"))`
	if stmts[1] != wantTable {
		t.Errorf("create table =\n%q\nwant\n%q", stmts[1], wantTable)
	}
	wantIdx := `CREATE INDEX IF NOT EXISTS "orders_ix_id" ON "sales"."orders" ("id" DESC)`
	if stmts[2] != wantIdx {
		t.Errorf("index =\n%q\nwant\n%q", stmts[2], wantIdx)
	}
}

func TestDefaultSchemaIsPublic(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Name:    "orders",
		Columns: []schema.Column{{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}}},
	}
	stmts, err := p.createTableStatements(tb)
	if err != nil {
		t.Fatalf("createTableStatements: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("public schema should need no bootstrap: %v", stmts)
	}
	if !strings.HasPrefix(stmts[0], `CREATE TABLE IF NOT EXISTS "public"."orders"`) {
		t.Errorf("create table = %q", stmts[0])
	}
}
