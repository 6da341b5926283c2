package engine

import (
	"context"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// The operation surface: thin authorized wrappers over the provider
// primitives. Every method honors cancellation between statements and
// returns the provider's idempotent (changed, error) result unchanged.

// TableExists reports whether the table exists.
func (c *Conn) TableExists(ctx context.Context, ref dialect.TableRef) (bool, error) {
	if err := c.guard(ctx, "tables/exists", ref.Name); err != nil {
		return false, err
	}
	return c.provider.TableExists(ctx, c.db, ref)
}

// GetTable introspects the table into the neutral model.
func (c *Conn) GetTable(ctx context.Context, ref dialect.TableRef) (*schema.Table, error) {
	if err := c.guard(ctx, "tables/get", ref.Name); err != nil {
		return nil, err
	}
	return c.provider.GetTable(ctx, c.db, ref)
}

// GetTables introspects every table matching the LIKE pattern; an empty
// pattern matches all.
func (c *Conn) GetTables(ctx context.Context, pattern string) ([]schema.Table, error) {
	if err := c.guard(ctx, "tables/list", pattern); err != nil {
		return nil, err
	}
	return c.provider.ListTables(ctx, c.db, pattern)
}

// CreateTableIfNotExists creates the table with all its constraints and
// indexes. Returns false when the table already exists.
func (c *Conn) CreateTableIfNotExists(ctx context.Context, t *schema.Table) (bool, error) {
	if err := c.guard(ctx, "tables/create", t.QualifiedName()); err != nil {
		return false, err
	}
	return c.provider.CreateTableIfNotExists(ctx, c.db, t)
}

// CreateTablesIfNotExist creates a batch of tables in foreign key
// dependency order. Returns the number of tables actually created.
func (c *Conn) CreateTablesIfNotExist(ctx context.Context, tables []schema.Table) (int, error) {
	sorted, err := schema.TopologicalSort(tables)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range sorted {
		changed, err := c.CreateTableIfNotExists(ctx, &sorted[i])
		if err != nil {
			return created, err
		}
		if changed {
			created++
		}
	}
	return created, nil
}

// DropTableIfExists drops the table. Returns false when it is absent.
func (c *Conn) DropTableIfExists(ctx context.Context, ref dialect.TableRef) (bool, error) {
	if err := c.guard(ctx, "tables/drop", ref.Name); err != nil {
		return false, err
	}
	return c.provider.DropTableIfExists(ctx, c.db, ref)
}

// ColumnExists reports whether the column exists on the table.
func (c *Conn) ColumnExists(ctx context.Context, ref dialect.TableRef, column string) (bool, error) {
	if err := c.guard(ctx, "columns/exists", ref.Name+"."+column); err != nil {
		return false, err
	}
	return c.provider.ColumnExists(ctx, c.db, ref, column)
}

// AddColumnIfNotExists adds the column. Returns false when it is already
// present.
func (c *Conn) AddColumnIfNotExists(ctx context.Context, t *schema.Table, col schema.Column) (bool, error) {
	if err := c.guard(ctx, "columns/add", t.QualifiedName()+"."+col.Name); err != nil {
		return false, err
	}
	return c.provider.AddColumnIfNotExists(ctx, c.db, t, col)
}

// DropColumnIfExists drops the column. Returns false when it is absent.
func (c *Conn) DropColumnIfExists(ctx context.Context, ref dialect.TableRef, column string) (bool, error) {
	if err := c.guard(ctx, "columns/drop", ref.Name+"."+column); err != nil {
		return false, err
	}
	return c.provider.DropColumnIfExists(ctx, c.db, ref, column)
}

// AlterColumnType changes a column's type, rebuilding the table on
// dialects that cannot express the change incrementally.
func (c *Conn) AlterColumnType(ctx context.Context, t *schema.Table, col schema.Column) error {
	if err := c.guard(ctx, "columns/alter", t.QualifiedName()+"."+col.Name); err != nil {
		return err
	}
	return c.provider.AlterColumnType(ctx, c.db, t, col)
}

// IndexExists reports whether the index exists on the table.
func (c *Conn) IndexExists(ctx context.Context, ref dialect.TableRef, name string) (bool, error) {
	if err := c.guard(ctx, "indexes/exists", name); err != nil {
		return false, err
	}
	return c.provider.IndexExists(ctx, c.db, ref, name)
}

// CreateIndexIfNotExists creates the index. Returns false when it already
// exists.
func (c *Conn) CreateIndexIfNotExists(ctx context.Context, t *schema.Table, idx schema.Index) (bool, error) {
	if err := c.guard(ctx, "indexes/create", t.IndexName(idx)); err != nil {
		return false, err
	}
	return c.provider.CreateIndexIfNotExists(ctx, c.db, t, idx)
}

// DropIndexIfExists drops the index. Returns false when it is absent.
func (c *Conn) DropIndexIfExists(ctx context.Context, ref dialect.TableRef, name string) (bool, error) {
	if err := c.guard(ctx, "indexes/drop", name); err != nil {
		return false, err
	}
	return c.provider.DropIndexIfExists(ctx, c.db, ref, name)
}

// ConstraintExists reports whether a constraint with the name exists on
// the table.
func (c *Conn) ConstraintExists(ctx context.Context, ref dialect.TableRef, name string) (bool, error) {
	if err := c.guard(ctx, "constraints/exists", name); err != nil {
		return false, err
	}
	return c.provider.ConstraintExists(ctx, c.db, ref, name)
}

// AddConstraintIfNotExists adds the constraint. Returns false when a
// constraint of the same name is already present.
func (c *Conn) AddConstraintIfNotExists(ctx context.Context, t *schema.Table, con dialect.Constraint) (bool, error) {
	if err := c.guard(ctx, "constraints/add", con.Name(t)); err != nil {
		return false, err
	}
	return c.provider.AddConstraintIfNotExists(ctx, c.db, t, con)
}

// DropConstraintIfExists drops the constraint. Returns false when it is
// absent.
func (c *Conn) DropConstraintIfExists(ctx context.Context, ref dialect.TableRef, kind dialect.ConstraintKind, name string) (bool, error) {
	if err := c.guard(ctx, "constraints/drop", name); err != nil {
		return false, err
	}
	return c.provider.DropConstraintIfExists(ctx, c.db, ref, kind, name)
}

// ViewExists reports whether the view exists.
func (c *Conn) ViewExists(ctx context.Context, ref dialect.TableRef) (bool, error) {
	if err := c.guard(ctx, "views/exists", ref.Name); err != nil {
		return false, err
	}
	return c.provider.ViewExists(ctx, c.db, ref)
}

// GetView introspects the view definition.
func (c *Conn) GetView(ctx context.Context, ref dialect.TableRef) (*schema.View, error) {
	if err := c.guard(ctx, "views/get", ref.Name); err != nil {
		return nil, err
	}
	return c.provider.GetView(ctx, c.db, ref)
}

// CreateViewIfNotExists creates the view. Returns false when it already
// exists.
func (c *Conn) CreateViewIfNotExists(ctx context.Context, v *schema.View) (bool, error) {
	if err := c.guard(ctx, "views/create", v.Name); err != nil {
		return false, err
	}
	return c.provider.CreateViewIfNotExists(ctx, c.db, v)
}

// DropViewIfExists drops the view. Returns false when it is absent.
func (c *Conn) DropViewIfExists(ctx context.Context, ref dialect.TableRef) (bool, error) {
	if err := c.guard(ctx, "views/drop", ref.Name); err != nil {
		return false, err
	}
	return c.provider.DropViewIfExists(ctx, c.db, ref)
}
