// Package mysql implements the dialect provider for MySQL and MariaDB.
// Catalog access goes through information_schema; identifiers are backtick
// quoted. DDL is not transactional on this dialect, so multi-statement
// operations run sequentially and a midway failure leaves the earlier
// statements applied.
package mysql

import (
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
	"github.com/schemaforge/schemaforge/pkg/typemap"
)

// Provider implements dialect.Provider for MySQL and MariaDB.
type Provider struct {
	types *typemap.Registry
}

// New creates a MySQL provider using the given type registry, or the
// builtin registry when nil.
func New(types *typemap.Registry) *Provider {
	if types == nil {
		types = typemap.ForDialect(dbcap.MySQL)
	}
	return &Provider{types: types}
}

// ID returns the dialect identifier.
func (p *Provider) ID() dbcap.ID {
	return dbcap.MySQL
}

// Capability returns the dialect capability metadata.
func (p *Provider) Capability() dbcap.Capability {
	return dbcap.MustGet(dbcap.MySQL)
}

// Quote renders an identifier in backticks, doubling embedded backticks.
func (p *Provider) Quote(name string) string {
	return "`" + strings.Replace(name, "`", "``", -1) + "`"
}

// DefaultLiteral renders a model default expression in MySQL vocabulary.
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

// qualify renders schema.table with both parts quoted. In MySQL the schema
// is the database; an empty schema means the connection's current database.
func (p *Provider) qualify(ref dialect.TableRef) string {
	if ref.Schema == "" {
		return p.Quote(ref.Name)
	}
	return p.Quote(ref.Schema) + "." + p.Quote(ref.Name)
}

// renderType renders a SQL type descriptor in MySQL spelling.
func renderType(t schema.SQLTypeDescriptor) string {
	switch t.TypeName {
	case "varchar", "char", "varbinary", "binary", "tinyint":
		if t.Length != nil && *t.Length > 0 {
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
