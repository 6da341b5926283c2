// Package mssql implements the dialect provider for Microsoft SQL Server.
// Catalog access goes through the sys.* views; identifiers are bracket
// quoted. SQL Server has no IF NOT EXISTS clause on CREATE TABLE, so the
// idempotent operations check the catalog first and swallow the
// already-exists race.
package mssql

import (
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
	"github.com/schemaforge/schemaforge/pkg/typemap"
)

// Provider implements dialect.Provider for SQL Server.
type Provider struct {
	types *typemap.Registry
}

// New creates a SQL Server provider using the given type registry, or the
// builtin registry when nil.
func New(types *typemap.Registry) *Provider {
	if types == nil {
		types = typemap.ForDialect(dbcap.SQLServer)
	}
	return &Provider{types: types}
}

// ID returns the dialect identifier.
func (p *Provider) ID() dbcap.ID {
	return dbcap.SQLServer
}

// Capability returns the dialect capability metadata.
func (p *Provider) Capability() dbcap.Capability {
	return dbcap.MustGet(dbcap.SQLServer)
}

// Quote renders an identifier in brackets, doubling embedded closing
// brackets.
func (p *Provider) Quote(name string) string {
	return "[" + strings.Replace(name, "]", "]]", -1) + "]"
}

// DefaultLiteral renders a model default expression in SQL Server
// vocabulary.
func (p *Provider) DefaultLiteral(expr string) string {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "current_timestamp", "now", "now()":
		return "GETUTCDATE()"
	case "true":
		return "1"
	case "false":
		return "0"
	}
	return expr
}

// schemaOrDefault falls back to dbo when the caller named no schema.
func (p *Provider) schemaOrDefault(name string) string {
	if name == "" {
		return "dbo"
	}
	return name
}

// qualify renders schema.table with both parts quoted.
func (p *Provider) qualify(ref dialect.TableRef) string {
	return p.Quote(p.schemaOrDefault(ref.Schema)) + "." + p.Quote(ref.Name)
}

// renderType renders a SQL type descriptor. A missing length on the
// variable-size types means (MAX).
func renderType(t schema.SQLTypeDescriptor) string {
	switch t.TypeName {
	case "nvarchar", "varchar", "varbinary":
		if t.Length == nil || *t.Length <= 0 {
			return strings.ToUpper(t.TypeName) + "(MAX)"
		}
		return strings.ToUpper(t.TypeName) + "(" + strconv.Itoa(*t.Length) + ")"
	case "nchar", "char":
		if t.Length != nil {
			return strings.ToUpper(t.TypeName) + "(" + strconv.Itoa(*t.Length) + ")"
		}
	case "decimal", "numeric":
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
