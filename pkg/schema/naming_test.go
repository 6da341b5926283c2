package schema

import (
	"fmt"
	"testing"
)

func TestGeneratedNamesAreDeterministic(t *testing.T) {
	tb := &Table{
		Name: "Orders",
		Columns: []Column{
			{Name: "ID", Type: TypeDescriptor{Name: TypeInt64}},
			{Name: "CustomerID", Type: TypeDescriptor{Name: TypeInt64}},
		},
		PrimaryKey: &PrimaryKey{Columns: []string{"ID"}},
	}

	if got := tb.PrimaryKeyName(); got != "orders_pk_id" {
		t.Errorf("PrimaryKeyName() = %q", got)
	}

	fk := ForeignKey{Columns: []string{"CustomerID"}, RefTable: "Customers", RefColumns: []string{"ID"}}
	if got := tb.ForeignKeyName(fk); got != "orders_fk_customerid" {
		t.Errorf("ForeignKeyName() = %q", got)
	}

	u := Unique{Columns: []string{"CustomerID", "ID"}}
	if got := tb.UniqueName(u); got != "orders_uq_customerid_id" {
		t.Errorf("UniqueName() = %q", got)
	}

	d := Default{Column: "CustomerID"}
	if got := tb.DefaultName(d); got != "orders_df_customerid" {
		t.Errorf("DefaultName() = %q", got)
	}

	idx := Index{Columns: []IndexColumn{{Name: "CustomerID"}}}
	if got := tb.IndexName(idx); got != "orders_ix_customerid" {
		t.Errorf("IndexName() = %q", got)
	}

	// Re-describing the same model yields the same identifiers.
	if tb.ForeignKeyName(fk) != tb.ForeignKeyName(fk) {
		t.Error("foreign key name not stable")
	}
}

func TestExplicitNamesWin(t *testing.T) {
	tb := &Table{
		Name:       "orders",
		Columns:    []Column{{Name: "id", Type: TypeDescriptor{Name: TypeInt64}}},
		PrimaryKey: &PrimaryKey{Name: "pk_orders_custom", Columns: []string{"id"}},
	}
	if got := tb.PrimaryKeyName(); got != "pk_orders_custom" {
		t.Errorf("PrimaryKeyName() = %q, want explicit name", got)
	}
}

func TestCheckNameUsesPosition(t *testing.T) {
	tb := &Table{
		Name:    "orders",
		Columns: []Column{{Name: "total", Type: TypeDescriptor{Name: TypeDecimal}}},
		Checks: []Check{
			{Expression: "total >= 0"},
			{Expression: "total < 1000000"},
		},
	}
	if got := tb.CheckName(tb.Checks[0]); got != "orders_ck_1" {
		t.Errorf("first check name = %q", got)
	}
	if got := tb.CheckName(tb.Checks[1]); got != "orders_ck_2" {
		t.Errorf("second check name = %q", got)
	}

	// Positions keep rendering past two digits.
	tb.Checks = make([]Check, 120)
	for i := range tb.Checks {
		tb.Checks[i] = Check{Expression: fmt.Sprintf("total > %d", i)}
	}
	if got := tb.CheckName(tb.Checks[119]); got != "orders_ck_120" {
		t.Errorf("120th check name = %q", got)
	}
}

func TestTopologicalSortOrdersReferencedFirst(t *testing.T) {
	tables := []Table{
		{
			Name:    "order_items",
			Columns: []Column{{Name: "order_id", Type: TypeDescriptor{Name: TypeInt64}}},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"order_id"}, RefTable: "orders", RefColumns: []string{"id"}},
			},
		},
		{
			Name:    "orders",
			Columns: []Column{{Name: "customer_id", Type: TypeDescriptor{Name: TypeInt64}}},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"}},
			},
		},
		{
			Name:    "customers",
			Columns: []Column{{Name: "id", Type: TypeDescriptor{Name: TypeInt64}}},
		},
	}

	sorted, err := TopologicalSort(tables)
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	order := []string{sorted[0].Name, sorted[1].Name, sorted[2].Name}
	want := []string{"customers", "orders", "order_items"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	tables := []Table{
		{
			Name:    "a",
			Columns: []Column{{Name: "b_id", Type: TypeDescriptor{Name: TypeInt64}}},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"b_id"}, RefTable: "b", RefColumns: []string{"id"}},
			},
		},
		{
			Name:    "b",
			Columns: []Column{{Name: "a_id", Type: TypeDescriptor{Name: TypeInt64}}},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"a_id"}, RefTable: "a", RefColumns: []string{"id"}},
			},
		},
	}
	if _, err := TopologicalSort(tables); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestTopologicalSortIgnoresSelfReference(t *testing.T) {
	tables := []Table{
		{
			Name:    "employees",
			Columns: []Column{{Name: "manager_id", Type: TypeDescriptor{Name: TypeInt64}}},
			ForeignKeys: []ForeignKey{
				{Columns: []string{"manager_id"}, RefTable: "employees", RefColumns: []string{"id"}},
			},
		},
	}
	sorted, err := TopologicalSort(tables)
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if len(sorted) != 1 {
		t.Fatalf("got %d tables", len(sorted))
	}
}
