package schema

// Equality here is structural, not identity-based: it is what the engine
// uses to compare a desired model against an introspected one. Identifier
// comparisons are case-insensitive; element order matters for columns and
// ordered constraint column lists, not for the constraint sets themselves.

// Equal reports structural equality of two columns.
func (c Column) Equal(other Column) bool {
	return NamesEqual(c.Name, other.Name) &&
		c.Type.Equal(other.Type) &&
		c.Nullable == other.Nullable &&
		c.AutoIncrement == other.AutoIncrement &&
		stringPtrEqual(c.Default, other.Default)
}

// Equal reports structural equality of two primary keys.
func (p PrimaryKey) Equal(other PrimaryKey) bool {
	return namesEqualOrdered(p.Columns, other.Columns)
}

// Equal reports structural equality of two foreign keys, names included.
func (f ForeignKey) Equal(other ForeignKey) bool {
	return NamesEqual(f.RefTable, other.RefTable) &&
		NamesEqual(f.RefSchema, other.RefSchema) &&
		namesEqualOrdered(f.Columns, other.Columns) &&
		namesEqualOrdered(f.RefColumns, other.RefColumns) &&
		refActionEqual(f.OnDelete, other.OnDelete) &&
		refActionEqual(f.OnUpdate, other.OnUpdate)
}

// Equal reports structural equality of two unique constraints.
func (u Unique) Equal(other Unique) bool {
	return namesEqualOrdered(u.Columns, other.Columns)
}

// Equal reports structural equality of two indexes.
func (i Index) Equal(other Index) bool {
	if i.Unique != other.Unique || len(i.Columns) != len(other.Columns) {
		return false
	}
	for n := range i.Columns {
		if !NamesEqual(i.Columns[n].Name, other.Columns[n].Name) || i.Columns[n].Desc != other.Columns[n].Desc {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two tables. Constraint and index
// sets are compared as sets keyed by their (possibly generated) names.
func (t Table) Equal(other Table) bool {
	if !NamesEqual(t.Name, other.Name) || !NamesEqual(t.Schema, other.Schema) {
		return false
	}
	if len(t.Columns) != len(other.Columns) {
		return false
	}
	for i := range t.Columns {
		if !t.Columns[i].Equal(other.Columns[i]) {
			return false
		}
	}

	if (t.PrimaryKey == nil) != (other.PrimaryKey == nil) {
		return false
	}
	if t.PrimaryKey != nil && !t.PrimaryKey.Equal(*other.PrimaryKey) {
		return false
	}

	if len(t.Uniques) != len(other.Uniques) || len(t.ForeignKeys) != len(other.ForeignKeys) ||
		len(t.Indexes) != len(other.Indexes) {
		return false
	}

	for _, u := range t.Uniques {
		found := false
		for _, o := range other.Uniques {
			if u.Equal(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, f := range t.ForeignKeys {
		found := false
		for _, o := range other.ForeignKeys {
			if f.Equal(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, i := range t.Indexes {
		found := false
		for _, o := range other.Indexes {
			if i.Equal(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func namesEqualOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NamesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// refActionEqual treats an unset action as NO ACTION, which is what every
// supported dialect defaults to.
func refActionEqual(a, b RefAction) bool {
	if a == "" {
		a = NoAction
	}
	if b == "" {
		b = NoAction
	}
	return a == b
}
