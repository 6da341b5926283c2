package engine

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// wrapMemoryDB binds an engine connection to an in-memory SQLite handle.
// The pool is pinned to one connection so every statement sees the same
// database.
func wrapMemoryDB(t *testing.T, e *Engine) *Conn {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	conn, err := e.Wrap(db, dbcap.SQLite)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	return conn
}

func customersTable() schema.Table {
	return schema.Table{
		Name: "customers",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "email", Type: schema.TypeDescriptor{Name: schema.TypeString, Length: schema.IntPtr(120)}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
	}
}

func ordersTable() schema.Table {
	return schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
			{Name: "customer_id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		ForeignKeys: []schema.ForeignKey{
			{Columns: []string{"customer_id"}, RefTable: "customers", RefColumns: []string{"id"}},
		},
	}
}

func TestEnsureTableReachesSteadyState(t *testing.T) {
	ctx := context.Background()
	conn := wrapMemoryDB(t, New(Options{}))

	desired := customersTable()
	changed, err := conn.EnsureTable(ctx, &desired)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !changed {
		t.Fatal("first ensure reported no change")
	}

	desired = customersTable()
	changed, err = conn.EnsureTable(ctx, &desired)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if changed {
		t.Fatal("second ensure reported a change on an up-to-date table")
	}
}

func TestEnsureTableAppliesDiff(t *testing.T) {
	ctx := context.Background()
	conn := wrapMemoryDB(t, New(Options{}))

	base := customersTable()
	if _, err := conn.EnsureTable(ctx, &base); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	grown := customersTable()
	grown.Columns = append(grown.Columns, schema.Column{
		Name: "note", Type: schema.TypeDescriptor{Name: schema.TypeText}, Nullable: true,
	})
	grown.Indexes = []schema.Index{
		{Columns: []schema.IndexColumn{{Name: "email"}}},
	}

	changed, err := conn.EnsureTable(ctx, &grown)
	if err != nil {
		t.Fatalf("ensure diff: %v", err)
	}
	if !changed {
		t.Fatal("diff reported no change")
	}

	got, err := conn.GetTable(ctx, dialect.TableRef{Name: "customers"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Column("note") == nil {
		t.Error("added column missing")
	}
	if len(got.Indexes) != 1 {
		t.Errorf("indexes = %+v", got.Indexes)
	}

	// A third pass over the grown model settles.
	again := grown
	changed, err = conn.EnsureTable(ctx, &again)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if changed {
		t.Fatal("settled model still reported a change")
	}
}

func TestEnsureTableConvergesDefaults(t *testing.T) {
	ctx := context.Background()
	conn := wrapMemoryDB(t, New(Options{}))

	withDefault := func(expr string) schema.Table {
		tb := customersTable()
		tb.Columns = append(tb.Columns, schema.Column{
			Name: "status", Type: schema.TypeDescriptor{Name: schema.TypeString, Length: schema.IntPtr(20)},
		})
		if expr != "" {
			tb.Defaults = []schema.Default{{Column: "status", Expression: expr}}
		}
		return tb
	}

	desired := withDefault("'old'")
	if _, err := conn.EnsureTable(ctx, &desired); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	moved := withDefault("'new'")
	changed, err := conn.EnsureTable(ctx, &moved)
	if err != nil {
		t.Fatalf("ensure new default: %v", err)
	}
	if !changed {
		t.Fatal("changed default reported no change")
	}
	got, err := conn.GetTable(ctx, dialect.TableRef{Name: "customers"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	status := got.Column("status")
	if status == nil || status.Default == nil || *status.Default != "'new'" {
		t.Fatalf("status column = %+v", status)
	}

	moved = withDefault("'new'")
	changed, err = conn.EnsureTable(ctx, &moved)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if changed {
		t.Fatal("settled default still reported a change")
	}

	cleared := withDefault("")
	changed, err = conn.EnsureTable(ctx, &cleared)
	if err != nil {
		t.Fatalf("ensure without default: %v", err)
	}
	if !changed {
		t.Fatal("removed default reported no change")
	}
	got, err = conn.GetTable(ctx, dialect.TableRef{Name: "customers"})
	if err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if status := got.Column("status"); status == nil || status.Default != nil {
		t.Fatalf("status column after clear = %+v", status)
	}
}

func TestCreateTablesRespectsDependencies(t *testing.T) {
	ctx := context.Background()
	conn := wrapMemoryDB(t, New(Options{}))

	// orders references customers; the batch arrives in the wrong order.
	created, err := conn.CreateTablesIfNotExist(ctx, []schema.Table{ordersTable(), customersTable()})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	created, err = conn.CreateTablesIfNotExist(ctx, []schema.Table{ordersTable(), customersTable()})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if created != 0 {
		t.Fatalf("second pass created %d tables", created)
	}
}

func TestAuthorizationHookDeniesOperation(t *testing.T) {
	ctx := context.Background()
	e := New(Options{
		Authorize: func(_ context.Context, op OperationContext) bool {
			return op.Operation != "tables/drop"
		},
	})
	conn := wrapMemoryDB(t, e)

	desired := customersTable()
	if _, err := conn.EnsureTable(ctx, &desired); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	_, err := conn.DropTableIfExists(ctx, dialect.TableRef{Name: "customers"})
	if !errors.Is(err, dialect.ErrNotAuthorized) {
		t.Fatalf("got %v, want ErrNotAuthorized", err)
	}

	// The denied drop must not have touched the table.
	exists, err := conn.TableExists(ctx, dialect.TableRef{Name: "customers"})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("table vanished despite denial")
	}
}

func TestWrapRejectsUnknownDialect(t *testing.T) {
	e := New(Options{})
	if _, err := e.Wrap(nil, dbcap.ID("db2")); err == nil {
		t.Fatal("expected error for unregistered dialect")
	}
}
