package typemap

import (
	"testing"

	"github.com/schemaforge/schemaforge/pkg/schema"
)

func TestFirstMatchWins(t *testing.T) {
	r := NewRegistry()
	r.Append(
		Rule{Name: "first", Match: named(schema.TypeString), Produce: plain("varchar")},
		Rule{Name: "second", Match: named(schema.TypeString), Produce: plain("text")},
	)

	got, ok := r.ToSQL(schema.TypeDescriptor{Name: schema.TypeString})
	if !ok {
		t.Fatal("no rule matched")
	}
	if got.TypeName != "varchar" {
		t.Errorf("got %q, want the first registered rule to win", got.TypeName)
	}
}

func TestPrependOverridesBuiltins(t *testing.T) {
	r := ForDialect("mssql")
	r.Prepend(Rule{
		Name:    "custom/string",
		Match:   named(schema.TypeString),
		Produce: plain("varchar"),
	})

	got, ok := r.ToSQL(schema.TypeDescriptor{Name: schema.TypeString})
	if !ok {
		t.Fatal("no rule matched")
	}
	if got.TypeName != "varchar" {
		t.Errorf("got %q, want prepended rule to override the builtin", got.TypeName)
	}
}

func TestNoMatchIsNotAnError(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.ToSQL(schema.TypeDescriptor{Name: "geometry"}); ok {
		t.Error("empty registry matched something")
	}
	if _, ok := r.ToHost(schema.SQLTypeDescriptor{TypeName: "geometry"}); ok {
		t.Error("empty registry reverse-matched something")
	}
}

func TestNormalizeTypeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"NVARCHAR(255)", "nvarchar"},
		{"  decimal(18,2) ", "decimal"},
		{"INTEGER", "integer"},
		{"character varying", "character varying"},
	}
	for _, tt := range tests {
		if got := NormalizeTypeName(tt.in); got != tt.want {
			t.Errorf("NormalizeTypeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToHostNormalizesBeforeMatching(t *testing.T) {
	r := ForDialect("mssql")
	got, ok := r.ToHost(schema.SQLTypeDescriptor{TypeName: "BIGINT"})
	if !ok {
		t.Fatal("BIGINT did not match")
	}
	if got.Name != schema.TypeInt64 {
		t.Errorf("BIGINT mapped to %q", got.Name)
	}
}
