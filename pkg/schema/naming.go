package schema

import (
	"strconv"
	"strings"
)

// Auto-generated constraint names follow {table}_{kind}_{columns joined by
// underscore}, lowercase-folded. The same model described twice therefore
// produces the same identifier, which is what makes re-application
// idempotent on dialects that key constraints by name.

const (
	kindPrimaryKey = "pk"
	kindForeignKey = "fk"
	kindUnique     = "uq"
	kindCheck      = "ck"
	kindDefault    = "df"
	kindIndex      = "ix"
)

func generateName(table, kind string, columns ...string) string {
	parts := make([]string, 0, len(columns)+2)
	parts = append(parts, FoldName(table), kind)
	for _, c := range columns {
		parts = append(parts, FoldName(c))
	}
	return strings.Join(parts, "_")
}

// PrimaryKeyName returns the constraint name, generating one if unset.
func (t *Table) PrimaryKeyName() string {
	if t.PrimaryKey == nil {
		return ""
	}
	if t.PrimaryKey.Name != "" {
		return t.PrimaryKey.Name
	}
	return generateName(t.Name, kindPrimaryKey, t.PrimaryKey.Columns...)
}

// ForeignKeyName returns the constraint name, generating one if unset.
func (t *Table) ForeignKeyName(fk ForeignKey) string {
	if fk.Name != "" {
		return fk.Name
	}
	return generateName(t.Name, kindForeignKey, fk.Columns...)
}

// UniqueName returns the constraint name, generating one if unset.
func (t *Table) UniqueName(u Unique) string {
	if u.Name != "" {
		return u.Name
	}
	return generateName(t.Name, kindUnique, u.Columns...)
}

// CheckName returns the constraint name, generating one if unset. Check
// expressions have no column list, so the name is derived from the table
// alone plus the 1-based position of the constraint.
func (t *Table) CheckName(c Check) string {
	if c.Name != "" {
		return c.Name
	}
	for i := range t.Checks {
		if t.Checks[i].Expression == c.Expression {
			return generateName(t.Name, kindCheck, strconv.Itoa(i+1))
		}
	}
	return generateName(t.Name, kindCheck, strconv.Itoa(len(t.Checks)+1))
}

// DefaultName returns the constraint name, generating one if unset.
func (t *Table) DefaultName(d Default) string {
	if d.Name != "" {
		return d.Name
	}
	return generateName(t.Name, kindDefault, d.Column)
}

// IndexName returns the index name, generating one if unset.
func (t *Table) IndexName(idx Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = c.Name
	}
	return generateName(t.Name, kindIndex, cols...)
}
