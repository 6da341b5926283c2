package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB opens an in-memory database. The pool is pinned to one
// connection; each new connection would otherwise get its own empty
// in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func ordersTable() *schema.Table {
	return &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeDescriptor{Name: schema.TypeInt64}, AutoIncrement: true},
			{Name: "label", Type: schema.TypeDescriptor{Name: schema.TypeString, Length: schema.IntPtr(80)}},
			{Name: "total", Type: schema.TypeDescriptor{Name: schema.TypeDecimal, Precision: schema.IntPtr(18), Scale: schema.IntPtr(2)}, Nullable: true},
		},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		Indexes: []schema.Index{
			{Columns: []schema.IndexColumn{{Name: "total"}}},
		},
	}
}

func TestCreateTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)

	created, err := p.CreateTableIfNotExists(ctx, db, ordersTable())
	require.NoError(t, err)
	assert.True(t, created, "first create should report a change")

	created, err = p.CreateTableIfNotExists(ctx, db, ordersTable())
	require.NoError(t, err)
	assert.False(t, created, "second create should be a no-op")
}

func TestGetTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)

	_, err := p.CreateTableIfNotExists(ctx, db, ordersTable())
	require.NoError(t, err)

	got, err := p.GetTable(ctx, db, dialect.TableRef{Name: "orders"})
	require.NoError(t, err)

	require.Len(t, got.Columns, 3)
	id := got.Column("id")
	require.NotNil(t, id)
	assert.Equal(t, schema.TypeInt64, id.Type.Name)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)

	label := got.Column("label")
	require.NotNil(t, label)
	assert.Equal(t, schema.TypeString, label.Type.Name)
	require.NotNil(t, label.Type.Length)
	assert.Equal(t, 80, *label.Type.Length)
	assert.False(t, label.Nullable, "label should be NOT NULL")

	total := got.Column("total")
	require.NotNil(t, total)
	assert.Equal(t, schema.TypeDecimal, total.Type.Name)
	assert.True(t, total.Nullable)

	require.NotNil(t, got.PrimaryKey)
	require.Len(t, got.PrimaryKey.Columns, 1)
	assert.True(t, schema.NamesEqual(got.PrimaryKey.Columns[0], "id"))

	require.Len(t, got.Indexes, 1)
	assert.Equal(t, "orders_ix_total", got.Indexes[0].Name)
}

func TestCreateTableAppliesTableDefaults(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)

	tb := ordersTable()
	tb.Columns = append(tb.Columns, schema.Column{
		Name: "status", Type: schema.TypeDescriptor{Name: schema.TypeString, Length: schema.IntPtr(20)},
	})
	tb.Defaults = []schema.Default{{Column: "status", Expression: "'new'"}}

	_, err := p.CreateTableIfNotExists(ctx, db, tb)
	require.NoError(t, err)

	got, err := p.GetTable(ctx, db, dialect.TableRef{Name: "orders"})
	require.NoError(t, err)
	status := got.Column("status")
	require.NotNil(t, status)
	require.NotNil(t, status.Default, "table-level default was not rendered")
	assert.Equal(t, "'new'", *status.Default)

	_, err = db.ExecContext(ctx, `INSERT INTO "orders" ("label") VALUES (?)`, "a")
	require.NoError(t, err)
	var applied string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT "status" FROM "orders"`).Scan(&applied))
	assert.Equal(t, "new", applied)
}

func TestAddColumnIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)
	tb := ordersTable()

	_, err := p.CreateTableIfNotExists(ctx, db, tb)
	require.NoError(t, err)

	col := schema.Column{Name: "note", Type: schema.TypeDescriptor{Name: schema.TypeText}, Nullable: true}
	added, err := p.AddColumnIfNotExists(ctx, db, tb, col)
	require.NoError(t, err)
	assert.True(t, added, "add should report a change")

	added, err = p.AddColumnIfNotExists(ctx, db, tb, col)
	require.NoError(t, err)
	assert.False(t, added, "second add should be a no-op")
}

func TestAddCheckConstraintRebuildsAndKeepsRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)
	tb := ordersTable()

	_, err := p.CreateTableIfNotExists(ctx, db, tb)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO "orders" ("label", "total") VALUES (?, ?), (?, ?)`,
		"a", 10.50, "b", 0)
	require.NoError(t, err)

	check := schema.Check{Expression: `"total" IS NULL OR "total" >= 0`}
	changed, err := p.AddConstraintIfNotExists(ctx, db, tb, dialect.Constraint{Kind: dialect.ConstraintCheck, Check: &check})
	require.NoError(t, err)
	require.True(t, changed, "add constraint should report a change")

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "orders"`).Scan(&n))
	assert.Equal(t, 2, n, "rebuild must not lose rows")

	_, err = db.ExecContext(ctx, `INSERT INTO "orders" ("label", "total") VALUES (?, ?)`, "bad", -1)
	assert.Error(t, err, "check constraint not enforced after rebuild")

	changed, err = p.AddConstraintIfNotExists(ctx, db, tb, dialect.Constraint{Kind: dialect.ConstraintCheck, Check: &check})
	require.NoError(t, err)
	assert.False(t, changed, "re-add should be a no-op")
}

func TestAlterColumnTypeRebuilds(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)
	tb := ordersTable()

	_, err := p.CreateTableIfNotExists(ctx, db, tb)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO "orders" ("label") VALUES (?)`, "keep me")
	require.NoError(t, err)

	col := schema.Column{Name: "label", Type: schema.TypeDescriptor{Name: schema.TypeText}}
	require.NoError(t, p.AlterColumnType(ctx, db, tb, col))

	got, err := p.GetTable(ctx, db, dialect.TableRef{Name: "orders"})
	require.NoError(t, err)
	label := got.Column("label")
	require.NotNil(t, label)
	assert.Equal(t, schema.TypeText, label.Type.Name)

	var kept string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT "label" FROM "orders"`).Scan(&kept))
	assert.Equal(t, "keep me", kept)
}

func TestDropIndexedColumnFallsBackToRebuild(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)
	tb := ordersTable()

	_, err := p.CreateTableIfNotExists(ctx, db, tb)
	require.NoError(t, err)

	dropped, err := p.DropColumnIfExists(ctx, db, dialect.TableRef{Name: "orders"}, "total")
	require.NoError(t, err)
	assert.True(t, dropped, "drop should report a change")

	exists, err := p.ColumnExists(ctx, db, dialect.TableRef{Name: "orders"}, "total")
	require.NoError(t, err)
	assert.False(t, exists, "column survived the drop")

	exists, err = p.IndexExists(ctx, db, dialect.TableRef{Name: "orders"}, "orders_ix_total")
	require.NoError(t, err)
	assert.False(t, exists, "index on the dropped column survived")
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := New(nil)

	_, err := p.CreateTableIfNotExists(ctx, db, ordersTable())
	require.NoError(t, err)

	v := &schema.View{Name: "order_labels", Definition: `SELECT "label" FROM "orders"`}
	created, err := p.CreateViewIfNotExists(ctx, db, v)
	require.NoError(t, err)
	assert.True(t, created, "create view should report a change")

	got, err := p.GetView(ctx, db, dialect.TableRef{Name: "order_labels"})
	require.NoError(t, err)
	assert.Equal(t, v.Definition, got.Definition)

	dropped, err := p.DropViewIfExists(ctx, db, dialect.TableRef{Name: "order_labels"})
	require.NoError(t, err)
	assert.True(t, dropped, "drop view should report a change")

	dropped, err = p.DropViewIfExists(ctx, db, dialect.TableRef{Name: "order_labels"})
	require.NoError(t, err)
	assert.False(t, dropped, "second drop should be a no-op")
}
