package typemap

import (
	"strings"

	"github.com/schemaforge/schemaforge/pkg/schema"
)

// PostgreSQL vocabulary. Arrays are first-class: the array rules run ahead
// of every scalar rule in both directions. int8 widens to smallint since
// postgres has no one-byte integer.
func postgresRegistry() *Registry {
	r := NewRegistry()

	r.Append(
		Rule{Name: "postgres/array", Match: func(t schema.TypeDescriptor) bool {
			return t.IsArray
		}, Produce: func(t schema.TypeDescriptor) schema.SQLTypeDescriptor {
			elem := t
			elem.IsArray = false
			if sqlElem, ok := postgresScalar().ToSQL(elem); ok {
				sqlElem.TypeName += "[]"
				return sqlElem
			}
			return schema.SQLTypeDescriptor{TypeName: "text[]"}
		}},
	)
	r.Append(postgresScalarRules()...)

	r.AppendReverse(
		ReverseRule{Name: "postgres/array", Match: func(t schema.SQLTypeDescriptor) bool {
			return strings.HasSuffix(t.TypeName, "[]") || strings.HasPrefix(t.TypeName, "_") || t.TypeName == "array"
		}, Produce: func(t schema.SQLTypeDescriptor) schema.TypeDescriptor {
			elem := t
			elem.TypeName = strings.TrimSuffix(strings.TrimPrefix(elem.TypeName, "_"), "[]")
			if host, ok := postgresScalar().ToHost(elem); ok {
				host.IsArray = true
				return host
			}
			return schema.TypeDescriptor{Name: schema.TypeText, IsArray: true}
		}},
	)
	r.AppendReverse(postgresReverseScalarRules()...)

	return r
}

// postgresScalarReg is the scalar-only registry the array rules recurse
// into. Built at package init so concurrent readers never race.
var postgresScalarReg = func() *Registry {
	r := NewRegistry()
	r.Append(postgresScalarRules()...)
	r.AppendReverse(postgresReverseScalarRules()...)
	return r
}()

func postgresScalar() *Registry {
	return postgresScalarReg
}

func postgresScalarRules() []Rule {
	return []Rule{
		{Name: "postgres/decimal-facets", Match: decimalWithFacets, Produce: numeric("numeric", 18, 2)},
		{Name: "postgres/decimal", Match: named(schema.TypeDecimal), Produce: numeric("numeric", 18, 2)},
		{Name: "postgres/string-length", Match: stringWithLength, Produce: sized("character varying", 255)},
		{Name: "postgres/string", Match: named(schema.TypeString), Produce: sized("character varying", 255)},
		{Name: "postgres/text", Match: named(schema.TypeText), Produce: plain("text")},
		{Name: "postgres/bool", Match: named(schema.TypeBool), Produce: plain("boolean")},
		{Name: "postgres/int8", Match: named(schema.TypeInt8), Produce: plain("smallint")},
		{Name: "postgres/int16", Match: named(schema.TypeInt16), Produce: plain("smallint")},
		{Name: "postgres/int32", Match: named(schema.TypeInt32), Produce: plain("integer")},
		{Name: "postgres/int64", Match: named(schema.TypeInt64), Produce: plain("bigint")},
		{Name: "postgres/float32", Match: named(schema.TypeFloat32), Produce: plain("real")},
		{Name: "postgres/float64", Match: named(schema.TypeFloat64), Produce: plain("double precision")},
		{Name: "postgres/bytes", Match: named(schema.TypeBytes), Produce: plain("bytea")},
		{Name: "postgres/uuid", Match: named(schema.TypeUUID), Produce: plain("uuid")},
		{Name: "postgres/date", Match: named(schema.TypeDate), Produce: plain("date")},
		{Name: "postgres/time", Match: named(schema.TypeTime), Produce: plain("time")},
		{Name: "postgres/timestamp", Match: named(schema.TypeTimestamp), Produce: plain("timestamp")},
		{Name: "postgres/json", Match: named(schema.TypeJSON), Produce: plain("jsonb")},
	}
}

func postgresReverseScalarRules() []ReverseRule {
	return []ReverseRule{
		{Name: "postgres/varchar", Match: sqlNamed("character varying", "varchar", "character", "char", "bpchar"), Produce: hostSized(schema.TypeString)},
		{Name: "postgres/text", Match: sqlNamed("text"), Produce: hostPlain(schema.TypeText)},
		{Name: "postgres/bool", Match: sqlNamed("boolean", "bool"), Produce: hostPlain(schema.TypeBool)},
		{Name: "postgres/smallint", Match: sqlNamed("smallint", "int2"), Produce: hostPlain(schema.TypeInt16)},
		{Name: "postgres/integer", Match: sqlNamed("integer", "int", "int4", "serial"), Produce: hostPlain(schema.TypeInt32)},
		{Name: "postgres/bigint", Match: sqlNamed("bigint", "int8", "bigserial"), Produce: hostPlain(schema.TypeInt64)},
		{Name: "postgres/real", Match: sqlNamed("real", "float4"), Produce: hostPlain(schema.TypeFloat32)},
		{Name: "postgres/double", Match: sqlNamed("double precision", "float8"), Produce: hostPlain(schema.TypeFloat64)},
		{Name: "postgres/numeric", Match: sqlNamed("numeric", "decimal"), Produce: hostNumeric(schema.TypeDecimal)},
		{Name: "postgres/bytea", Match: sqlNamed("bytea"), Produce: hostPlain(schema.TypeBytes)},
		{Name: "postgres/uuid", Match: sqlNamed("uuid"), Produce: hostPlain(schema.TypeUUID)},
		{Name: "postgres/date", Match: sqlNamed("date"), Produce: hostPlain(schema.TypeDate)},
		{Name: "postgres/time", Match: sqlNamed("time", "time without time zone", "time with time zone", "timetz"), Produce: hostPlain(schema.TypeTime)},
		{Name: "postgres/timestamp", Match: sqlNamed("timestamp", "timestamp without time zone", "timestamp with time zone", "timestamptz"), Produce: hostPlain(schema.TypeTimestamp)},
		{Name: "postgres/json", Match: sqlNamed("jsonb", "json"), Produce: hostPlain(schema.TypeJSON)},
	}
}
