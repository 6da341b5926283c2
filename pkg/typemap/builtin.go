package typemap

import (
	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// ForDialect builds a fresh registry pre-loaded with the builtin rules for
// the given dialect. Callers may Prepend their own rules to override the
// builtins. Unknown dialects get an empty registry.
func ForDialect(id dbcap.ID) *Registry {
	switch id {
	case dbcap.SQLServer:
		return sqlServerRegistry()
	case dbcap.MySQL:
		return mySQLRegistry()
	case dbcap.PostgreSQL:
		return postgresRegistry()
	case dbcap.SQLite:
		return sqliteRegistry()
	default:
		return NewRegistry()
	}
}

// Registries holds one registry per dialect. Build it once per process and
// pass it to engine instances; do not register rules after concurrent use
// begins.
type Registries struct {
	byDialect map[dbcap.ID]*Registry
}

// NewRegistries builds the builtin registries for all supported dialects.
func NewRegistries() *Registries {
	m := make(map[dbcap.ID]*Registry, len(dbcap.IDs()))
	for _, id := range dbcap.IDs() {
		m[id] = ForDialect(id)
	}
	return &Registries{byDialect: m}
}

// For returns the registry for a dialect.
func (r *Registries) For(id dbcap.ID) *Registry {
	return r.byDialect[id]
}

// sized returns a SQL descriptor with the host descriptor's length carried
// over, or the given default length when the host left it unspecified.
// The default is the documented widening: it maps back to itself.
func sized(typeName string, defaultLength int) func(schema.TypeDescriptor) schema.SQLTypeDescriptor {
	return func(t schema.TypeDescriptor) schema.SQLTypeDescriptor {
		length := defaultLength
		if t.Length != nil {
			length = *t.Length
		}
		return schema.SQLTypeDescriptor{TypeName: typeName, Length: schema.IntPtr(length)}
	}
}

// plain returns a SQL descriptor with no facets.
func plain(typeName string) func(schema.TypeDescriptor) schema.SQLTypeDescriptor {
	return func(schema.TypeDescriptor) schema.SQLTypeDescriptor {
		return schema.SQLTypeDescriptor{TypeName: typeName}
	}
}

// numeric carries precision/scale over, defaulting both when unspecified.
func numeric(typeName string, defaultPrecision, defaultScale int) func(schema.TypeDescriptor) schema.SQLTypeDescriptor {
	return func(t schema.TypeDescriptor) schema.SQLTypeDescriptor {
		p, s := defaultPrecision, defaultScale
		if t.Precision != nil {
			p = *t.Precision
		}
		if t.Scale != nil {
			s = *t.Scale
		}
		return schema.SQLTypeDescriptor{TypeName: typeName, Precision: schema.IntPtr(p), Scale: schema.IntPtr(s)}
	}
}

// hostPlain produces a bare host descriptor.
func hostPlain(name string) func(schema.SQLTypeDescriptor) schema.TypeDescriptor {
	return func(schema.SQLTypeDescriptor) schema.TypeDescriptor {
		return schema.TypeDescriptor{Name: name}
	}
}

// hostSized carries the catalog length facet back to the host descriptor.
func hostSized(name string) func(schema.SQLTypeDescriptor) schema.TypeDescriptor {
	return func(t schema.SQLTypeDescriptor) schema.TypeDescriptor {
		return schema.TypeDescriptor{Name: name, Length: t.Length}
	}
}

// hostNumeric carries precision/scale back to the host descriptor.
func hostNumeric(name string) func(schema.SQLTypeDescriptor) schema.TypeDescriptor {
	return func(t schema.SQLTypeDescriptor) schema.TypeDescriptor {
		return schema.TypeDescriptor{Name: name, Precision: t.Precision, Scale: t.Scale}
	}
}

// decimalWithFacets matches a decimal host type carrying an explicit
// precision. Registered before the generic decimal rule; the ordering is
// part of the registry contract.
func decimalWithFacets(t schema.TypeDescriptor) bool {
	return !t.IsArray && t.Name == schema.TypeDecimal && t.Precision != nil
}

// stringWithLength matches a string host type carrying an explicit length.
func stringWithLength(t schema.TypeDescriptor) bool {
	return !t.IsArray && t.Name == schema.TypeString && t.Length != nil
}
