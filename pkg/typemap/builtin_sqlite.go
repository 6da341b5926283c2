package typemap

import "github.com/schemaforge/schemaforge/pkg/schema"

// SQLite vocabulary. SQLite keeps whatever type name the DDL declared and
// applies affinity rules on top, so the forward map declares names that
// survive introspection (varchar(n) keeps its length in the declared
// type). All integer widths widen to int64 on the way back.
func sqliteRegistry() *Registry {
	r := NewRegistry()

	r.Append(
		Rule{Name: "sqlite/decimal-facets", Match: decimalWithFacets, Produce: numeric("numeric", 18, 2)},
		Rule{Name: "sqlite/decimal", Match: named(schema.TypeDecimal), Produce: numeric("numeric", 18, 2)},
		Rule{Name: "sqlite/string-length", Match: stringWithLength, Produce: sized("varchar", 255)},
		Rule{Name: "sqlite/string", Match: named(schema.TypeString), Produce: sized("varchar", 255)},
		Rule{Name: "sqlite/text", Match: named(schema.TypeText), Produce: plain("text")},
		Rule{Name: "sqlite/bool", Match: named(schema.TypeBool), Produce: plain("boolean")},
		Rule{Name: "sqlite/int8", Match: named(schema.TypeInt8), Produce: plain("integer")},
		Rule{Name: "sqlite/int16", Match: named(schema.TypeInt16), Produce: plain("integer")},
		Rule{Name: "sqlite/int32", Match: named(schema.TypeInt32), Produce: plain("integer")},
		Rule{Name: "sqlite/int64", Match: named(schema.TypeInt64), Produce: plain("integer")},
		Rule{Name: "sqlite/float32", Match: named(schema.TypeFloat32), Produce: plain("real")},
		Rule{Name: "sqlite/float64", Match: named(schema.TypeFloat64), Produce: plain("real")},
		Rule{Name: "sqlite/bytes", Match: named(schema.TypeBytes), Produce: plain("blob")},
		Rule{Name: "sqlite/uuid", Match: named(schema.TypeUUID), Produce: plain("text")},
		Rule{Name: "sqlite/date", Match: named(schema.TypeDate), Produce: plain("date")},
		Rule{Name: "sqlite/time", Match: named(schema.TypeTime), Produce: plain("time")},
		Rule{Name: "sqlite/timestamp", Match: named(schema.TypeTimestamp), Produce: plain("datetime")},
		Rule{Name: "sqlite/json", Match: named(schema.TypeJSON), Produce: plain("text")},
	)

	r.AppendReverse(
		ReverseRule{Name: "sqlite/varchar", Match: sqlNamed("varchar", "character varying", "char", "character", "nvarchar"), Produce: hostSized(schema.TypeString)},
		ReverseRule{Name: "sqlite/text", Match: sqlNamed("text", "clob"), Produce: hostPlain(schema.TypeText)},
		ReverseRule{Name: "sqlite/bool", Match: sqlNamed("boolean", "bool"), Produce: hostPlain(schema.TypeBool)},
		ReverseRule{Name: "sqlite/integer", Match: sqlNamed("integer", "int", "bigint", "smallint", "tinyint", "mediumint"), Produce: hostPlain(schema.TypeInt64)},
		ReverseRule{Name: "sqlite/real", Match: sqlNamed("real", "double", "double precision", "float"), Produce: hostPlain(schema.TypeFloat64)},
		ReverseRule{Name: "sqlite/numeric", Match: sqlNamed("numeric", "decimal"), Produce: hostNumeric(schema.TypeDecimal)},
		ReverseRule{Name: "sqlite/blob", Match: sqlNamed("blob"), Produce: hostPlain(schema.TypeBytes)},
		ReverseRule{Name: "sqlite/date", Match: sqlNamed("date"), Produce: hostPlain(schema.TypeDate)},
		ReverseRule{Name: "sqlite/time", Match: sqlNamed("time"), Produce: hostPlain(schema.TypeTime)},
		ReverseRule{Name: "sqlite/datetime", Match: sqlNamed("datetime", "timestamp"), Produce: hostPlain(schema.TypeTimestamp)},
	)

	return r
}
