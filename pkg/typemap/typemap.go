// Package typemap maps host type descriptors to dialect SQL type
// descriptors and back. Each direction is an ordered list of
// (predicate, producer) rules evaluated in registration order; the first
// match wins. Registries must be fully assembled before concurrent use:
// rule registration is setup-time only and is not locked.
package typemap

import (
	"strings"

	"github.com/schemaforge/schemaforge/pkg/schema"
)

// Rule converts a host type descriptor to a SQL type descriptor.
type Rule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Match reports whether this rule applies to the descriptor.
	Match func(schema.TypeDescriptor) bool

	// Produce builds the SQL descriptor. Only called when Match returned
	// true.
	Produce func(schema.TypeDescriptor) schema.SQLTypeDescriptor
}

// ReverseRule converts a SQL type descriptor, as read from a live catalog,
// back to a host type descriptor.
type ReverseRule struct {
	Name    string
	Match   func(schema.SQLTypeDescriptor) bool
	Produce func(schema.SQLTypeDescriptor) schema.TypeDescriptor
}

// Registry holds the conversion rules for one dialect.
type Registry struct {
	toSQL  []Rule
	toHost []ReverseRule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Append registers rules after the existing ones.
func (r *Registry) Append(rules ...Rule) *Registry {
	r.toSQL = append(r.toSQL, rules...)
	return r
}

// Prepend registers rules before the existing ones. This is the override
// mechanism: more specific caller rules win without disturbing builtin
// order.
func (r *Registry) Prepend(rules ...Rule) *Registry {
	r.toSQL = append(append([]Rule{}, rules...), r.toSQL...)
	return r
}

// AppendReverse registers reverse rules after the existing ones.
func (r *Registry) AppendReverse(rules ...ReverseRule) *Registry {
	r.toHost = append(r.toHost, rules...)
	return r
}

// PrependReverse registers reverse rules before the existing ones.
func (r *Registry) PrependReverse(rules ...ReverseRule) *Registry {
	r.toHost = append(append([]ReverseRule{}, rules...), r.toHost...)
	return r
}

// ToSQL converts a host descriptor. ok is false when no rule matched,
// which means the type is unsupported for this dialect; it is not an
// error, callers choose their own fallback.
func (r *Registry) ToSQL(t schema.TypeDescriptor) (schema.SQLTypeDescriptor, bool) {
	for _, rule := range r.toSQL {
		if rule.Match(t) {
			return rule.Produce(t), true
		}
	}
	return schema.SQLTypeDescriptor{}, false
}

// ToHost converts a catalog descriptor back to a host descriptor. Matching
// is over the normalized (lowercased, trimmed) catalog type name.
func (r *Registry) ToHost(t schema.SQLTypeDescriptor) (schema.TypeDescriptor, bool) {
	t.TypeName = NormalizeTypeName(t.TypeName)
	for _, rule := range r.toHost {
		if rule.Match(t) {
			return rule.Produce(t), true
		}
	}
	return schema.TypeDescriptor{}, false
}

// NormalizeTypeName lowercases and trims a raw catalog type string and
// strips a trailing facet suffix like "(10,2)" so rules can match on the
// bare vocabulary word.
func NormalizeTypeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i > 0 {
		name = strings.TrimSpace(name[:i])
	}
	return name
}

// named is the common Match predicate: exact host type name, array-ness
// excluded (array rules must be registered ahead of scalar rules).
func named(name string) func(schema.TypeDescriptor) bool {
	return func(t schema.TypeDescriptor) bool {
		return !t.IsArray && strings.EqualFold(t.Name, name)
	}
}

// sqlNamed matches a normalized catalog type name against one or more
// vocabulary words.
func sqlNamed(names ...string) func(schema.SQLTypeDescriptor) bool {
	return func(t schema.SQLTypeDescriptor) bool {
		for _, n := range names {
			if t.TypeName == n {
				return true
			}
		}
		return false
	}
}
