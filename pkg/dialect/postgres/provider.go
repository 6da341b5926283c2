// Package postgres implements the dialect provider for PostgreSQL.
// Catalog access goes through information_schema and pg_catalog;
// identifiers are double quoted. DDL is transactional, so multi-statement
// operations roll back as a unit on failure. The stdlib adapter of pgx
// carries the connection.
package postgres

import (
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
	"github.com/schemaforge/schemaforge/pkg/typemap"
)

// Provider implements dialect.Provider for PostgreSQL.
type Provider struct {
	types *typemap.Registry
}

// New creates a PostgreSQL provider using the given type registry, or the
// builtin registry when nil.
func New(types *typemap.Registry) *Provider {
	if types == nil {
		types = typemap.ForDialect(dbcap.PostgreSQL)
	}
	return &Provider{types: types}
}

// ID returns the dialect identifier.
func (p *Provider) ID() dbcap.ID {
	return dbcap.PostgreSQL
}

// Capability returns the dialect capability metadata.
func (p *Provider) Capability() dbcap.Capability {
	return dbcap.MustGet(dbcap.PostgreSQL)
}

// Quote renders an identifier in double quotes, doubling embedded quotes.
func (p *Provider) Quote(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

// DefaultLiteral renders a model default expression in PostgreSQL
// vocabulary.
func (p *Provider) DefaultLiteral(expr string) string {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "current_timestamp", "now", "now()":
		return "now()"
	case "true":
		return "TRUE"
	case "false":
		return "FALSE"
	}
	return expr
}

// schemaOrDefault falls back to public when the caller named no schema.
func (p *Provider) schemaOrDefault(name string) string {
	if name == "" {
		return "public"
	}
	return name
}

// qualify renders schema.table with both parts quoted.
func (p *Provider) qualify(ref dialect.TableRef) string {
	return p.Quote(p.schemaOrDefault(ref.Schema)) + "." + p.Quote(ref.Name)
}

// renderType renders a SQL type descriptor in PostgreSQL spelling. Array
// type names carry a [] suffix; facets apply to the element type.
func renderType(t schema.SQLTypeDescriptor) string {
	if strings.HasSuffix(t.TypeName, "[]") {
		elem := t
		elem.TypeName = strings.TrimSuffix(elem.TypeName, "[]")
		return renderType(elem) + "[]"
	}
	switch t.TypeName {
	case "character varying", "varchar", "character", "char":
		if t.Length != nil && *t.Length > 0 {
			return t.TypeName + "(" + strconv.Itoa(*t.Length) + ")"
		}
	case "numeric", "decimal":
		if t.Precision != nil {
			s := 0
			if t.Scale != nil {
				s = *t.Scale
			}
			return t.TypeName + "(" + strconv.Itoa(*t.Precision) + "," + strconv.Itoa(s) + ")"
		}
	}
	return t.TypeName
}
