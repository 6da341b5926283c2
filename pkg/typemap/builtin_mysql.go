package typemap

import "github.com/schemaforge/schemaforge/pkg/schema"

// MySQL/MariaDB vocabulary. tinyint(1) is the conventional boolean
// spelling, so the reverse rule for it runs before the generic tinyint
// rule; the ordering is load-bearing.
func mySQLRegistry() *Registry {
	r := NewRegistry()

	r.Append(
		Rule{Name: "mysql/decimal-facets", Match: decimalWithFacets, Produce: numeric("decimal", 10, 0)},
		Rule{Name: "mysql/decimal", Match: named(schema.TypeDecimal), Produce: numeric("decimal", 10, 0)},
		Rule{Name: "mysql/string-length", Match: stringWithLength, Produce: sized("varchar", 255)},
		Rule{Name: "mysql/string", Match: named(schema.TypeString), Produce: sized("varchar", 255)},
		Rule{Name: "mysql/text", Match: named(schema.TypeText), Produce: plain("longtext")},
		Rule{Name: "mysql/bool", Match: named(schema.TypeBool), Produce: sized("tinyint", 1)},
		Rule{Name: "mysql/int8", Match: named(schema.TypeInt8), Produce: plain("tinyint")},
		Rule{Name: "mysql/int16", Match: named(schema.TypeInt16), Produce: plain("smallint")},
		Rule{Name: "mysql/int32", Match: named(schema.TypeInt32), Produce: plain("int")},
		Rule{Name: "mysql/int64", Match: named(schema.TypeInt64), Produce: plain("bigint")},
		Rule{Name: "mysql/float32", Match: named(schema.TypeFloat32), Produce: plain("float")},
		Rule{Name: "mysql/float64", Match: named(schema.TypeFloat64), Produce: plain("double")},
		Rule{Name: "mysql/bytes", Match: named(schema.TypeBytes), Produce: plain("longblob")},
		Rule{Name: "mysql/uuid", Match: named(schema.TypeUUID), Produce: sized("char", 36)},
		Rule{Name: "mysql/date", Match: named(schema.TypeDate), Produce: plain("date")},
		Rule{Name: "mysql/time", Match: named(schema.TypeTime), Produce: plain("time")},
		Rule{Name: "mysql/timestamp", Match: named(schema.TypeTimestamp), Produce: plain("datetime")},
		Rule{Name: "mysql/json", Match: named(schema.TypeJSON), Produce: plain("json")},
	)

	r.AppendReverse(
		ReverseRule{Name: "mysql/tinyint1", Match: func(t schema.SQLTypeDescriptor) bool {
			return t.TypeName == "tinyint" && t.Length != nil && *t.Length == 1
		}, Produce: hostPlain(schema.TypeBool)},
		ReverseRule{Name: "mysql/char36", Match: func(t schema.SQLTypeDescriptor) bool {
			return t.TypeName == "char" && t.Length != nil && *t.Length == 36
		}, Produce: hostPlain(schema.TypeUUID)},
		ReverseRule{Name: "mysql/varchar", Match: sqlNamed("varchar", "char"), Produce: hostSized(schema.TypeString)},
		ReverseRule{Name: "mysql/text", Match: sqlNamed("longtext", "mediumtext", "text", "tinytext"), Produce: hostPlain(schema.TypeText)},
		ReverseRule{Name: "mysql/bool", Match: sqlNamed("bool", "boolean"), Produce: hostPlain(schema.TypeBool)},
		ReverseRule{Name: "mysql/tinyint", Match: sqlNamed("tinyint"), Produce: hostPlain(schema.TypeInt8)},
		ReverseRule{Name: "mysql/smallint", Match: sqlNamed("smallint"), Produce: hostPlain(schema.TypeInt16)},
		ReverseRule{Name: "mysql/int", Match: sqlNamed("int", "integer", "mediumint"), Produce: hostPlain(schema.TypeInt32)},
		ReverseRule{Name: "mysql/bigint", Match: sqlNamed("bigint"), Produce: hostPlain(schema.TypeInt64)},
		ReverseRule{Name: "mysql/float", Match: sqlNamed("float"), Produce: hostPlain(schema.TypeFloat32)},
		ReverseRule{Name: "mysql/double", Match: sqlNamed("double", "double precision"), Produce: hostPlain(schema.TypeFloat64)},
		ReverseRule{Name: "mysql/decimal", Match: sqlNamed("decimal", "numeric"), Produce: hostNumeric(schema.TypeDecimal)},
		ReverseRule{Name: "mysql/blob", Match: sqlNamed("longblob", "mediumblob", "blob", "tinyblob", "varbinary", "binary"), Produce: hostPlain(schema.TypeBytes)},
		ReverseRule{Name: "mysql/date", Match: sqlNamed("date"), Produce: hostPlain(schema.TypeDate)},
		ReverseRule{Name: "mysql/time", Match: sqlNamed("time"), Produce: hostPlain(schema.TypeTime)},
		ReverseRule{Name: "mysql/datetime", Match: sqlNamed("datetime", "timestamp"), Produce: hostPlain(schema.TypeTimestamp)},
		ReverseRule{Name: "mysql/json", Match: sqlNamed("json"), Produce: hostPlain(schema.TypeJSON)},
	)

	return r
}
