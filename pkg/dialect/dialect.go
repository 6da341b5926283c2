// Package dialect defines the capability set every supported database
// dialect implements: catalog introspection into the neutral schema model
// and idempotent DDL synthesis out of it. One provider exists per dialect;
// selection happens once at configuration time through the Registry.
package dialect

import (
	"context"
	"database/sql"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// TableRef names a table within a connection's catalog. Schema may be
// empty, in which case the dialect's default schema applies.
type TableRef struct {
	Schema string
	Name   string
}

// Ref builds a TableRef from a model table.
func Ref(t *schema.Table) TableRef {
	return TableRef{Schema: t.Schema, Name: t.Name}
}

// ConstraintKind enumerates the constraint variants providers can add and
// drop individually.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintDefault    ConstraintKind = "default"
)

// Constraint is the sum of the model constraint variants; exactly one of
// the pointers is set, matching Kind.
type Constraint struct {
	Kind       ConstraintKind
	PrimaryKey *schema.PrimaryKey
	ForeignKey *schema.ForeignKey
	Unique     *schema.Unique
	Check      *schema.Check
	Default    *schema.Default
}

// Name returns the constraint's name, generating the deterministic one
// when the model left it unset.
func (c Constraint) Name(t *schema.Table) string {
	switch c.Kind {
	case ConstraintPrimaryKey:
		return t.PrimaryKeyName()
	case ConstraintForeignKey:
		return t.ForeignKeyName(*c.ForeignKey)
	case ConstraintUnique:
		return t.UniqueName(*c.Unique)
	case ConstraintCheck:
		return t.CheckName(*c.Check)
	case ConstraintDefault:
		return t.DefaultName(*c.Default)
	}
	return ""
}

// Provider is the per-dialect capability set. All methods are synchronous;
// every method honors context cancellation between statements, never
// mid-statement. The bool results of the *IfNotExists/*IfExists methods
// report whether the call changed anything: already-exists and not-found
// races against concurrent DDL are swallowed into false, not surfaced.
//
// Providers never hand-build identifiers outside Quote, and they perform
// no connection management: the caller scopes the *sql.DB.
type Provider interface {
	ID() dbcap.ID
	Capability() dbcap.Capability

	// Quote renders an identifier in the dialect's quoting convention.
	Quote(name string) string

	// DefaultLiteral renders a model default expression in the dialect's
	// vocabulary (current-timestamp function, boolean spelling, ...).
	DefaultLiteral(expr string) string

	// Table operations.
	TableExists(ctx context.Context, db *sql.DB, ref TableRef) (bool, error)
	GetTable(ctx context.Context, db *sql.DB, ref TableRef) (*schema.Table, error)
	ListTables(ctx context.Context, db *sql.DB, pattern string) ([]schema.Table, error)
	CreateTableIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table) (bool, error)
	DropTableIfExists(ctx context.Context, db *sql.DB, ref TableRef) (bool, error)

	// Column operations. AlterColumnType changes an existing column's
	// type; dialects that cannot express the change incrementally either
	// rebuild the table (sqlite) or return an UnsupportedOperationError.
	ColumnExists(ctx context.Context, db *sql.DB, ref TableRef, column string) (bool, error)
	AddColumnIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) (bool, error)
	DropColumnIfExists(ctx context.Context, db *sql.DB, ref TableRef, column string) (bool, error)
	AlterColumnType(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) error

	// Index operations.
	IndexExists(ctx context.Context, db *sql.DB, ref TableRef, name string) (bool, error)
	CreateIndexIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, idx schema.Index) (bool, error)
	DropIndexIfExists(ctx context.Context, db *sql.DB, ref TableRef, name string) (bool, error)

	// Constraint operations, uniform across the five variants.
	ConstraintExists(ctx context.Context, db *sql.DB, ref TableRef, name string) (bool, error)
	AddConstraintIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, c Constraint) (bool, error)
	DropConstraintIfExists(ctx context.Context, db *sql.DB, ref TableRef, kind ConstraintKind, name string) (bool, error)

	// View operations.
	ViewExists(ctx context.Context, db *sql.DB, ref TableRef) (bool, error)
	GetView(ctx context.Context, db *sql.DB, ref TableRef) (*schema.View, error)
	CreateViewIfNotExists(ctx context.Context, db *sql.DB, v *schema.View) (bool, error)
	DropViewIfExists(ctx context.Context, db *sql.DB, ref TableRef) (bool, error)
}
