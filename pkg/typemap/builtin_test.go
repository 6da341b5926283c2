package typemap

import (
	"testing"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

func TestForwardMappings(t *testing.T) {
	tests := []struct {
		dialect dbcap.ID
		in      schema.TypeDescriptor
		want    string
		length  int
	}{
		{dbcap.SQLServer, schema.TypeDescriptor{Name: schema.TypeBool}, "bit", 0},
		{dbcap.SQLServer, schema.TypeDescriptor{Name: schema.TypeString}, "nvarchar", 255},
		{dbcap.SQLServer, schema.TypeDescriptor{Name: schema.TypeString, Length: schema.IntPtr(100)}, "nvarchar", 100},
		{dbcap.SQLServer, schema.TypeDescriptor{Name: schema.TypeUUID}, "uniqueidentifier", 0},
		{dbcap.MySQL, schema.TypeDescriptor{Name: schema.TypeBool}, "tinyint", 1},
		{dbcap.MySQL, schema.TypeDescriptor{Name: schema.TypeUUID}, "char", 36},
		{dbcap.MySQL, schema.TypeDescriptor{Name: schema.TypeText}, "longtext", 0},
		{dbcap.PostgreSQL, schema.TypeDescriptor{Name: schema.TypeFloat64}, "double precision", 0},
		{dbcap.PostgreSQL, schema.TypeDescriptor{Name: schema.TypeJSON}, "jsonb", 0},
		{dbcap.SQLite, schema.TypeDescriptor{Name: schema.TypeInt16}, "integer", 0},
		{dbcap.SQLite, schema.TypeDescriptor{Name: schema.TypeTimestamp}, "datetime", 0},
	}

	for _, tt := range tests {
		got, ok := ForDialect(tt.dialect).ToSQL(tt.in)
		if !ok {
			t.Errorf("%s: %s did not match", tt.dialect, tt.in.Name)
			continue
		}
		if got.TypeName != tt.want {
			t.Errorf("%s: %s -> %q, want %q", tt.dialect, tt.in.Name, got.TypeName, tt.want)
		}
		if tt.length > 0 && (got.Length == nil || *got.Length != tt.length) {
			t.Errorf("%s: %s length = %v, want %d", tt.dialect, tt.in.Name, got.Length, tt.length)
		}
	}
}

func TestReverseSpecificRulesRunFirst(t *testing.T) {
	r := ForDialect(dbcap.MySQL)

	got, ok := r.ToHost(schema.SQLTypeDescriptor{TypeName: "tinyint", Length: schema.IntPtr(1)})
	if !ok || got.Name != schema.TypeBool {
		t.Errorf("tinyint(1) -> %q, want bool", got.Name)
	}

	got, ok = r.ToHost(schema.SQLTypeDescriptor{TypeName: "tinyint"})
	if !ok || got.Name != schema.TypeInt8 {
		t.Errorf("tinyint -> %q, want int8", got.Name)
	}

	got, ok = r.ToHost(schema.SQLTypeDescriptor{TypeName: "char", Length: schema.IntPtr(36)})
	if !ok || got.Name != schema.TypeUUID {
		t.Errorf("char(36) -> %q, want uuid", got.Name)
	}
}

// The documented widening: an unspecified string length becomes the
// dialect default, and that default maps back to itself.
func TestDefaultLengthRoundTrips(t *testing.T) {
	for _, id := range []dbcap.ID{dbcap.SQLServer, dbcap.MySQL, dbcap.SQLite} {
		r := ForDialect(id)
		sqlType, ok := r.ToSQL(schema.TypeDescriptor{Name: schema.TypeString})
		if !ok {
			t.Fatalf("%s: string did not match", id)
		}
		host, ok := r.ToHost(sqlType)
		if !ok {
			t.Fatalf("%s: %s did not reverse-match", id, sqlType.TypeName)
		}
		if host.Name != schema.TypeString {
			t.Errorf("%s: round trip gave %q", id, host.Name)
		}
		if host.Length == nil || *host.Length != 255 {
			t.Errorf("%s: round trip length = %v, want 255", id, host.Length)
		}
		again, ok := r.ToSQL(host)
		if !ok || !again.Equal(sqlType) {
			t.Errorf("%s: second trip diverged: %+v vs %+v", id, again, sqlType)
		}
	}
}

func TestPostgresArrays(t *testing.T) {
	r := ForDialect(dbcap.PostgreSQL)

	sqlType, ok := r.ToSQL(schema.TypeDescriptor{Name: schema.TypeInt32, IsArray: true})
	if !ok {
		t.Fatal("int32 array did not match")
	}
	if sqlType.TypeName != "integer[]" {
		t.Errorf("int32 array -> %q", sqlType.TypeName)
	}

	host, ok := r.ToHost(schema.SQLTypeDescriptor{TypeName: "_int4"})
	if !ok {
		t.Fatal("_int4 did not reverse-match")
	}
	if !host.IsArray || host.Name != schema.TypeInt32 {
		t.Errorf("_int4 -> %+v, want int32 array", host)
	}

	host, ok = r.ToHost(schema.SQLTypeDescriptor{TypeName: "text[]"})
	if !ok || !host.IsArray || host.Name != schema.TypeText {
		t.Errorf("text[] -> %+v, want text array", host)
	}
}

func TestRoundTripScalars(t *testing.T) {
	hostTypes := []string{
		schema.TypeBool, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64,
		schema.TypeFloat32, schema.TypeFloat64, schema.TypeDecimal,
		schema.TypeText, schema.TypeDate, schema.TypeTime, schema.TypeTimestamp,
	}
	// SQLite intentionally widens all integers to int64 and both floats to
	// float64; it is checked separately in its provider tests.
	for _, id := range []dbcap.ID{dbcap.SQLServer, dbcap.MySQL, dbcap.PostgreSQL} {
		r := ForDialect(id)
		for _, name := range hostTypes {
			in := schema.TypeDescriptor{Name: name}
			sqlType, ok := r.ToSQL(in)
			if !ok {
				t.Errorf("%s: %s has no forward rule", id, name)
				continue
			}
			host, ok := r.ToHost(sqlType)
			if !ok {
				t.Errorf("%s: %s (%s) has no reverse rule", id, name, sqlType.TypeName)
				continue
			}
			if host.Name != name {
				t.Errorf("%s: %s -> %s -> %s", id, name, sqlType.TypeName, host.Name)
			}
		}
	}
}
