// Package sqlite implements the dialect provider for SQLite. Catalog
// access goes through sqlite_master and the PRAGMA table functions;
// identifiers are double quoted. Constraints can only be declared inline
// in CREATE TABLE, so constraint and column-type changes fall back to a
// full table rebuild.
package sqlite

import (
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
	"github.com/schemaforge/schemaforge/pkg/typemap"
)

// Provider implements dialect.Provider for SQLite.
type Provider struct {
	types *typemap.Registry
}

// New creates a SQLite provider using the given type registry, or the
// builtin registry when nil.
func New(types *typemap.Registry) *Provider {
	if types == nil {
		types = typemap.ForDialect(dbcap.SQLite)
	}
	return &Provider{types: types}
}

// ID returns the dialect identifier.
func (p *Provider) ID() dbcap.ID {
	return dbcap.SQLite
}

// Capability returns the dialect capability metadata.
func (p *Provider) Capability() dbcap.Capability {
	return dbcap.MustGet(dbcap.SQLite)
}

// Quote renders an identifier in double quotes, doubling embedded quotes.
func (p *Provider) Quote(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

// DefaultLiteral renders a model default expression in SQLite vocabulary.
func (p *Provider) DefaultLiteral(expr string) string {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "current_timestamp", "now", "now()":
		return "CURRENT_TIMESTAMP"
	case "true":
		return "1"
	case "false":
		return "0"
	}
	return expr
}

// qualify renders the table name. SQLite has no schemas; the model schema
// field is ignored here.
func (p *Provider) qualify(ref dialect.TableRef) string {
	return p.Quote(ref.Name)
}

// renderType renders a SQL type descriptor in SQLite spelling. The
// declared type only steers affinity, but facets are kept so the model
// round-trips.
func renderType(t schema.SQLTypeDescriptor) string {
	switch t.TypeName {
	case "varchar", "char":
		if t.Length != nil && *t.Length > 0 {
			return strings.ToUpper(t.TypeName) + "(" + strconv.Itoa(*t.Length) + ")"
		}
	case "numeric", "decimal":
		if t.Precision != nil {
			s := 0
			if t.Scale != nil {
				s = *t.Scale
			}
			return strings.ToUpper(t.TypeName) + "(" + strconv.Itoa(*t.Precision) + "," + strconv.Itoa(s) + ")"
		}
	}
	return strings.ToUpper(t.TypeName)
}
