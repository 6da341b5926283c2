// Package schema holds the dialect-neutral schema model: tables, columns,
// indexes, constraints and views, plus the type descriptors the converter
// registry maps between. Model objects are value descriptions of desired or
// observed state; the live catalog is always authoritative.
package schema

import (
	"fmt"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// FoldName lowercases an identifier for case-insensitive comparison. All
// four supported dialects either fold identifiers or compare them
// case-insensitively by convention.
func FoldName(name string) string {
	return fold.String(name)
}

// NamesEqual compares two identifiers case-insensitively.
func NamesEqual(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// RefAction is a referential action on a foreign key.
type RefAction string

const (
	NoAction   RefAction = "NO ACTION"
	Cascade    RefAction = "CASCADE"
	SetNull    RefAction = "SET NULL"
	SetDefault RefAction = "SET DEFAULT"
	Restrict   RefAction = "RESTRICT"
)

// Column describes a single table column. A column belongs to exactly one
// table; the table owns it.
type Column struct {
	Name          string         `json:"name"`
	Type          TypeDescriptor `json:"type"`
	Nullable      bool           `json:"nullable"`
	Default       *string        `json:"default,omitempty"`
	AutoIncrement bool           `json:"autoIncrement,omitempty"`
}

// PrimaryKey is an ordered-column primary key constraint.
type PrimaryKey struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

// ForeignKey references columns of another table. The referenced table only
// has to be resolvable at execution time; cross-table ordering is the
// caller's responsibility.
type ForeignKey struct {
	Name       string    `json:"name,omitempty"`
	Columns    []string  `json:"columns"`
	RefSchema  string    `json:"refSchema,omitempty"`
	RefTable   string    `json:"refTable"`
	RefColumns []string  `json:"refColumns"`
	OnDelete   RefAction `json:"onDelete,omitempty"`
	OnUpdate   RefAction `json:"onUpdate,omitempty"`
}

// Unique is a unique constraint over one or more columns.
type Unique struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

// Check is a boolean SQL expression constraint.
type Check struct {
	Name       string `json:"name,omitempty"`
	Expression string `json:"expression"`
}

// Default names a default-value constraint on a column. The expression is
// rendered through the provider's default-literal rules.
type Default struct {
	Name       string `json:"name,omitempty"`
	Column     string `json:"column"`
	Expression string `json:"expression"`
}

// IndexColumn is one indexed column with its sort direction.
type IndexColumn struct {
	Name string `json:"name"`
	Desc bool   `json:"desc,omitempty"`
}

// Index describes a secondary index.
type Index struct {
	Name    string        `json:"name,omitempty"`
	Columns []IndexColumn `json:"columns"`
	Unique  bool          `json:"unique,omitempty"`
}

// View is a named SELECT definition.
type View struct {
	Name       string `json:"name"`
	Schema     string `json:"schema,omitempty"`
	Definition string `json:"definition"`
}

// Table is the root of the model graph. Table name plus schema name is the
// unique identity within a connection's catalog.
type Table struct {
	Name        string       `json:"name"`
	Schema      string       `json:"schema,omitempty"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  *PrimaryKey  `json:"primaryKey,omitempty"`
	Uniques     []Unique     `json:"uniques,omitempty"`
	Checks      []Check      `json:"checks,omitempty"`
	Defaults    []Default    `json:"defaults,omitempty"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
}

// ValidationError reports a structurally invalid model object.
type ValidationError struct {
	Object string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schema object %s: %s", e.Object, e.Reason)
}

// Validate checks the structural invariants of the table: non-empty name,
// at least one column, case-insensitively unique column names, constraint
// columns that exist, and foreign keys with matching local/remote arity.
// Referenced tables are deliberately not resolved here.
func (t *Table) Validate() error {
	if t.Name == "" {
		return &ValidationError{Object: "table", Reason: "table name is empty"}
	}
	if len(t.Columns) == 0 {
		return &ValidationError{Object: t.Name, Reason: "table has no columns"}
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if col.Name == "" {
			return &ValidationError{Object: t.Name, Reason: "column with empty name"}
		}
		key := FoldName(col.Name)
		if seen[key] {
			return &ValidationError{Object: t.Name, Reason: fmt.Sprintf("duplicate column name %q", col.Name)}
		}
		seen[key] = true
	}

	if t.PrimaryKey != nil {
		if len(t.PrimaryKey.Columns) == 0 {
			return &ValidationError{Object: t.Name, Reason: "primary key has no columns"}
		}
		for _, c := range t.PrimaryKey.Columns {
			if !seen[FoldName(c)] {
				return &ValidationError{Object: t.Name, Reason: fmt.Sprintf("primary key names unknown column %q", c)}
			}
		}
	}

	for _, fk := range t.ForeignKeys {
		if fk.RefTable == "" {
			return &ValidationError{Object: t.Name, Reason: "foreign key has no referenced table"}
		}
		if len(fk.Columns) == 0 {
			return &ValidationError{Object: t.Name, Reason: "foreign key has no columns"}
		}
		if len(fk.Columns) != len(fk.RefColumns) {
			return &ValidationError{
				Object: t.Name,
				Reason: fmt.Sprintf("foreign key to %s names %d local but %d remote columns", fk.RefTable, len(fk.Columns), len(fk.RefColumns)),
			}
		}
		for _, c := range fk.Columns {
			if !seen[FoldName(c)] {
				return &ValidationError{Object: t.Name, Reason: fmt.Sprintf("foreign key names unknown column %q", c)}
			}
		}
	}

	for _, u := range t.Uniques {
		for _, c := range u.Columns {
			if !seen[FoldName(c)] {
				return &ValidationError{Object: t.Name, Reason: fmt.Sprintf("unique constraint names unknown column %q", c)}
			}
		}
	}

	for _, d := range t.Defaults {
		if !seen[FoldName(d.Column)] {
			return &ValidationError{Object: t.Name, Reason: fmt.Sprintf("default constraint names unknown column %q", d.Column)}
		}
	}

	for _, idx := range t.Indexes {
		if len(idx.Columns) == 0 {
			return &ValidationError{Object: t.Name, Reason: "index has no columns"}
		}
		for _, ic := range idx.Columns {
			if !seen[FoldName(ic.Name)] {
				return &ValidationError{Object: t.Name, Reason: fmt.Sprintf("index names unknown column %q", ic.Name)}
			}
		}
	}

	return nil
}

// Column returns the column with the given name, compared
// case-insensitively, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if NamesEqual(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// QualifiedName returns "schema.name" or just the name when no schema is
// set.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}
