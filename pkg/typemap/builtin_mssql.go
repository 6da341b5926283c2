package typemap

import "github.com/schemaforge/schemaforge/pkg/schema"

// SQL Server vocabulary. Character types use the national (nvarchar)
// variants; unbounded text and json land on nvarchar(max), represented
// here as a missing length facet.
func sqlServerRegistry() *Registry {
	r := NewRegistry()

	r.Append(
		Rule{Name: "mssql/decimal-facets", Match: decimalWithFacets, Produce: numeric("decimal", 18, 2)},
		Rule{Name: "mssql/decimal", Match: named(schema.TypeDecimal), Produce: numeric("decimal", 18, 2)},
		Rule{Name: "mssql/string-length", Match: stringWithLength, Produce: sized("nvarchar", 255)},
		Rule{Name: "mssql/string", Match: named(schema.TypeString), Produce: sized("nvarchar", 255)},
		Rule{Name: "mssql/text", Match: named(schema.TypeText), Produce: plain("nvarchar")},
		Rule{Name: "mssql/bool", Match: named(schema.TypeBool), Produce: plain("bit")},
		Rule{Name: "mssql/int8", Match: named(schema.TypeInt8), Produce: plain("tinyint")},
		Rule{Name: "mssql/int16", Match: named(schema.TypeInt16), Produce: plain("smallint")},
		Rule{Name: "mssql/int32", Match: named(schema.TypeInt32), Produce: plain("int")},
		Rule{Name: "mssql/int64", Match: named(schema.TypeInt64), Produce: plain("bigint")},
		Rule{Name: "mssql/float32", Match: named(schema.TypeFloat32), Produce: plain("real")},
		Rule{Name: "mssql/float64", Match: named(schema.TypeFloat64), Produce: plain("float")},
		Rule{Name: "mssql/bytes", Match: named(schema.TypeBytes), Produce: plain("varbinary")},
		Rule{Name: "mssql/uuid", Match: named(schema.TypeUUID), Produce: plain("uniqueidentifier")},
		Rule{Name: "mssql/date", Match: named(schema.TypeDate), Produce: plain("date")},
		Rule{Name: "mssql/time", Match: named(schema.TypeTime), Produce: plain("time")},
		Rule{Name: "mssql/timestamp", Match: named(schema.TypeTimestamp), Produce: plain("datetime2")},
		Rule{Name: "mssql/json", Match: named(schema.TypeJSON), Produce: plain("nvarchar")},
	)

	r.AppendReverse(
		ReverseRule{Name: "mssql/nvarchar-length", Match: func(t schema.SQLTypeDescriptor) bool {
			return (t.TypeName == "nvarchar" || t.TypeName == "varchar" || t.TypeName == "nchar" || t.TypeName == "char") && t.Length != nil && *t.Length > 0
		}, Produce: hostSized(schema.TypeString)},
		ReverseRule{Name: "mssql/nvarchar-max", Match: sqlNamed("nvarchar", "varchar", "text", "ntext"), Produce: hostPlain(schema.TypeText)},
		ReverseRule{Name: "mssql/bit", Match: sqlNamed("bit"), Produce: hostPlain(schema.TypeBool)},
		ReverseRule{Name: "mssql/tinyint", Match: sqlNamed("tinyint"), Produce: hostPlain(schema.TypeInt8)},
		ReverseRule{Name: "mssql/smallint", Match: sqlNamed("smallint"), Produce: hostPlain(schema.TypeInt16)},
		ReverseRule{Name: "mssql/int", Match: sqlNamed("int"), Produce: hostPlain(schema.TypeInt32)},
		ReverseRule{Name: "mssql/bigint", Match: sqlNamed("bigint"), Produce: hostPlain(schema.TypeInt64)},
		ReverseRule{Name: "mssql/real", Match: sqlNamed("real"), Produce: hostPlain(schema.TypeFloat32)},
		ReverseRule{Name: "mssql/float", Match: sqlNamed("float"), Produce: hostPlain(schema.TypeFloat64)},
		ReverseRule{Name: "mssql/decimal", Match: sqlNamed("decimal", "numeric", "money"), Produce: hostNumeric(schema.TypeDecimal)},
		ReverseRule{Name: "mssql/varbinary", Match: sqlNamed("varbinary", "binary", "image"), Produce: hostPlain(schema.TypeBytes)},
		ReverseRule{Name: "mssql/uniqueidentifier", Match: sqlNamed("uniqueidentifier"), Produce: hostPlain(schema.TypeUUID)},
		ReverseRule{Name: "mssql/date", Match: sqlNamed("date"), Produce: hostPlain(schema.TypeDate)},
		ReverseRule{Name: "mssql/time", Match: sqlNamed("time"), Produce: hostPlain(schema.TypeTime)},
		ReverseRule{Name: "mssql/datetime", Match: sqlNamed("datetime2", "datetime", "smalldatetime", "datetimeoffset"), Produce: hostPlain(schema.TypeTimestamp)},
	)

	return r
}
