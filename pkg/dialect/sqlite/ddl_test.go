package sqlite

import (
	"testing"

	"github.com/schemaforge/schemaforge/pkg/schema"
)

func TestSingleIntegerPK(t *testing.T) {
	tb := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "code", Type: schema.TypeDescriptor{Name: schema.TypeString}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
	}
	if !singleIntegerPK(tb, tb.Columns[0]) {
		t.Error("integer pk column not detected")
	}
	if singleIntegerPK(tb, tb.Columns[1]) {
		t.Error("non-pk column detected")
	}

	tb.PrimaryKey.Columns = []string{"id", "code"}
	if singleIntegerPK(tb, tb.Columns[0]) {
		t.Error("composite pk should not qualify")
	}
}

func TestCreateTableSQL(t *testing.T) {
	p := New(nil)
	tb := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}, AutoIncrement: true},
			{Name: "name", Type: schema.TypeDescriptor{Name: schema.TypeString, Length: schema.IntPtr(80)}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		Checks: []schema.Check{
			{Expression: `"name" <> ''`},
		},
	}

	got, err := p.createTableSQL(tb, "", true)
	if err != nil {
		t.Fatalf("createTableSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "orders" (` +
		`"id" INTEGER PRIMARY KEY AUTOINCREMENT, ` +
		`"name" VARCHAR(80) NOT NULL, ` +
		`CONSTRAINT "orders_ck_1" CHECK ("name" <> ''))`
	if got != want {
		t.Errorf("createTableSQL =\n%q\nwant\n%q", got, want)
	}

	// A name override targets the shadow table during rebuilds.
	got, err = p.createTableSQL(tb, "orders__rebuild", false)
	if err != nil {
		t.Fatalf("createTableSQL: %v", err)
	}
	if got[:len(`CREATE TABLE "orders__rebuild"`)] != `CREATE TABLE "orders__rebuild"` {
		t.Errorf("override = %q", got)
	}
}

func TestParseDeclaredType(t *testing.T) {
	tests := []struct {
		in   string
		want schema.SQLTypeDescriptor
	}{
		{"VARCHAR(255)", schema.SQLTypeDescriptor{TypeName: "varchar", Length: schema.IntPtr(255)}},
		{"NUMERIC(18,2)", schema.SQLTypeDescriptor{TypeName: "numeric", Precision: schema.IntPtr(18), Scale: schema.IntPtr(2)}},
		{"INTEGER", schema.SQLTypeDescriptor{TypeName: "integer"}},
		{" text ", schema.SQLTypeDescriptor{TypeName: "text"}},
	}
	for _, tt := range tests {
		if got := parseDeclaredType(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseDeclaredType(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseChecks(t *testing.T) {
	createSQL := `CREATE TABLE "orders" (` +
		`"id" INTEGER NOT NULL, ` +
		`"total" NUMERIC(18,2), ` +
		`CONSTRAINT "orders_ck_1" CHECK ("total" >= 0), ` +
		`CONSTRAINT "orders_fk_id" FOREIGN KEY ("id") REFERENCES "other" ("id"), ` +
		`CONSTRAINT "orders_ck_2" CHECK ("id" > 0 AND ("total" IS NULL OR "total" < 100)))`

	checks := parseChecks(createSQL)
	if len(checks) != 2 {
		t.Fatalf("got %d checks: %+v", len(checks), checks)
	}
	if checks[0].Name != "orders_ck_1" || checks[0].Expression != `"total" >= 0` {
		t.Errorf("first check = %+v", checks[0])
	}
	if checks[1].Name != "orders_ck_2" || checks[1].Expression != `"id" > 0 AND ("total" IS NULL OR "total" < 100)` {
		t.Errorf("second check = %+v", checks[1])
	}
}

func TestTakeIdentifier(t *testing.T) {
	tests := []struct {
		in, wantName string
	}{
		{`"quoted" CHECK (1)`, "quoted"},
		{"`ticked` CHECK (1)", "ticked"},
		{"[bracketed] CHECK (1)", "bracketed"},
		{"bare CHECK (1)", "bare"},
	}
	for _, tt := range tests {
		name, _ := takeIdentifier(tt.in)
		if name != tt.wantName {
			t.Errorf("takeIdentifier(%q) = %q, want %q", tt.in, name, tt.wantName)
		}
	}
}

func TestDropColumnFromModel(t *testing.T) {
	tb := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "customer_id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		ForeignKeys: []schema.ForeignKey{
			{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"}},
		},
		Uniques: []schema.Unique{
			{Columns: []string{"customer_id"}},
			{Columns: []string{"id"}},
		},
		Indexes: []schema.Index{
			{Columns: []schema.IndexColumn{{Name: "customer_id"}}},
		},
	}

	out := dropColumnFromModel(tb, "customer_id")
	if len(out.Columns) != 1 || out.Columns[0].Name != "id" {
		t.Errorf("columns = %+v", out.Columns)
	}
	if out.PrimaryKey == nil {
		t.Error("primary key on a surviving column was dropped")
	}
	if len(out.ForeignKeys) != 0 {
		t.Errorf("foreign keys = %+v", out.ForeignKeys)
	}
	if len(out.Uniques) != 1 || out.Uniques[0].Columns[0] != "id" {
		t.Errorf("uniques = %+v", out.Uniques)
	}
	if len(out.Indexes) != 0 {
		t.Errorf("indexes = %+v", out.Indexes)
	}
}
