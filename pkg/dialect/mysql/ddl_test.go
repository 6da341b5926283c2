package mysql

import (
	"testing"

	"github.com/schemaforge/schemaforge/pkg/schema"
)

func TestQuote(t *testing.T) {
	p := New(nil)
	if got := p.Quote("orders"); got != "`orders`" {
		t.Errorf("Quote = %q", got)
	}
	if got := p.Quote("we`ird"); got != "`we``ird`" {
		t.Errorf("Quote with backtick = %q", got)
	}
}

func TestRenderType(t *testing.T) {
	tests := []struct {
		in   schema.SQLTypeDescriptor
		want string
	}{
		{schema.SQLTypeDescriptor{TypeName: "varchar", Length: schema.IntPtr(255)}, "VARCHAR(255)"},
		{schema.SQLTypeDescriptor{TypeName: "tinyint", Length: schema.IntPtr(1)}, "TINYINT(1)"},
		{schema.SQLTypeDescriptor{TypeName: "decimal", Precision: schema.IntPtr(10), Scale: schema.IntPtr(0)}, "DECIMAL(10,0)"},
		{schema.SQLTypeDescriptor{TypeName: "longtext"}, "LONGTEXT"},
	}
	for _, tt := range tests {
		if got := renderType(tt.in); got != tt.want {
			t.Errorf("renderType(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnDefinitionAutoIncrement(t *testing.T) {
	p := New(nil)
	def, err := p.columnDefinition(schema.Column{
		Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}, AutoIncrement: true,
	})
	if err != nil {
		t.Fatalf("columnDefinition: %v", err)
	}
	if def != "`id` BIGINT NOT NULL AUTO_INCREMENT" {
		t.Errorf("identity column = %q", def)
	}
}

func TestCreateTableStatements(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "customer_id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "status", Type: schema.TypeDescriptor{Name: schema.TypeString}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		ForeignKeys: []schema.ForeignKey{
			{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"}},
		},
		Checks: []schema.Check{
			{Expression: "`id` > 0"},
		},
		Defaults: []schema.Default{
			{Column: "status", Expression: "'new'"},
		},
		Indexes: []schema.Index{
			{Columns: []schema.IndexColumn{{Name: "customer_id"}}},
		},
	}

	stmts, err := p.createTableStatements(tb)
	if err != nil {
		t.Fatalf("createTableStatements: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements: %v", len(stmts), stmts)
	}

	wantTable := "CREATE TABLE IF NOT EXISTS `orders` (" +
		"`id` BIGINT NOT NULL, `customer_id` BIGINT NOT NULL, `status` VARCHAR(255) NOT NULL, " +
		"CONSTRAINT `orders_pk_id` PRIMARY KEY (`id`), " +
		"CONSTRAINT `orders_ck_1` CHECK (`id` > 0), " +
		"CONSTRAINT `orders_fk_customerid` FOREIGN KEY (`customer_id`) REFERENCES `customers` (`id`))"
	if stmts[0] != wantTable {
		t.Errorf("create table =\n%q\nwant\n%q", stmts[0], wantTable)
	}

	wantDefault := "ALTER TABLE `orders` ALTER COLUMN `status` SET DEFAULT 'new'"
	if stmts[1] != wantDefault {
		t.Errorf("default =\n%q\nwant\n%q", stmts[1], wantDefault)
	}

	wantIdx := "CREATE INDEX `orders_ix_customerid` ON `orders` (`customer_id`)"
	if stmts[2] != wantIdx {
		t.Errorf("index =\n%q\nwant\n%q", stmts[2], wantIdx)
	}
}

func TestForeignKeyClauseActions(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Name:    "orders",
		Columns: []schema.Column{{Name: "customer_id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}}},
	}
	fk := schema.ForeignKey{
		Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"},
		OnDelete: schema.Cascade, OnUpdate: schema.SetNull,
	}
	want := "CONSTRAINT `orders_fk_customerid` FOREIGN KEY (`customer_id`) REFERENCES `customers` (`id`) ON DELETE CASCADE ON UPDATE SET NULL"
	if got := p.foreignKeyClause(tb, fk); got != want {
		t.Errorf("foreignKeyClause =\n%q\nwant\n%q", got, want)
	}
}
