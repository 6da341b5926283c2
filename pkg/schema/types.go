package schema

// TypeDescriptor is the host-side description of a column type. It is a
// plain value: copy it freely, never mutate one that has been handed out.
type TypeDescriptor struct {
	Name          string `json:"name"`
	IsArray       bool   `json:"isArray,omitempty"`
	Length        *int   `json:"length,omitempty"`
	Precision     *int   `json:"precision,omitempty"`
	Scale         *int   `json:"scale,omitempty"`
	AutoIncrement bool   `json:"autoIncrement,omitempty"`
}

// SQLTypeDescriptor is the dialect-side description of a column type. The
// TypeName vocabulary is dialect-specific ("nvarchar", "character varying",
// "TEXT", ...).
type SQLTypeDescriptor struct {
	TypeName  string `json:"typeName"`
	Length    *int   `json:"length,omitempty"`
	Precision *int   `json:"precision,omitempty"`
	Scale     *int   `json:"scale,omitempty"`
}

// Canonical host type names used by the builtin type maps. Callers may use
// any vocabulary as long as their converter rules understand it.
const (
	TypeBool      = "bool"
	TypeInt8      = "int8"
	TypeInt16     = "int16"
	TypeInt32     = "int32"
	TypeInt64     = "int64"
	TypeFloat32   = "float32"
	TypeFloat64   = "float64"
	TypeDecimal   = "decimal"
	TypeString    = "string"
	TypeText      = "text"
	TypeBytes     = "bytes"
	TypeUUID      = "uuid"
	TypeDate      = "date"
	TypeTime      = "time"
	TypeTimestamp = "timestamp"
	TypeJSON      = "json"
)

// IntPtr returns a pointer to v. Convenience for building descriptors with
// explicit length/precision/scale facets.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

// Equal reports structural equality of two type descriptors.
func (t TypeDescriptor) Equal(other TypeDescriptor) bool {
	return t.Name == other.Name &&
		t.IsArray == other.IsArray &&
		t.AutoIncrement == other.AutoIncrement &&
		intPtrEqual(t.Length, other.Length) &&
		intPtrEqual(t.Precision, other.Precision) &&
		intPtrEqual(t.Scale, other.Scale)
}

// Equal reports structural equality of two SQL type descriptors.
func (t SQLTypeDescriptor) Equal(other SQLTypeDescriptor) bool {
	return t.TypeName == other.TypeName &&
		intPtrEqual(t.Length, other.Length) &&
		intPtrEqual(t.Precision, other.Precision) &&
		intPtrEqual(t.Scale, other.Scale)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
