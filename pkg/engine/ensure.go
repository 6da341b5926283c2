package engine

import (
	"context"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// EnsureTable drives the live table toward the desired model. A missing
// table is created whole; an existing one gets the minimal set of ALTERs:
// add missing columns, retype changed ones, drop constraints and indexes
// that are no longer wanted, drop removed columns, then add the missing
// constraints and indexes. On SQLite the provider turns the inexpressible
// steps into table rebuilds internally. Returns whether anything changed.
//
// Uniques, foreign keys, the primary key and indexes are matched
// structurally; checks are matched by their deterministic names because
// servers rewrite check expressions on storage. Defaults are matched per
// column with loose expression comparison, since servers store them with
// extra parentheses, casts or stripped quoting.
func (c *Conn) EnsureTable(ctx context.Context, desired *schema.Table) (bool, error) {
	if err := c.guard(ctx, "tables/ensure", desired.QualifiedName()); err != nil {
		return false, err
	}
	if err := desired.Validate(); err != nil {
		return false, err
	}

	ref := dialect.Ref(desired)
	exists, err := c.provider.TableExists(ctx, c.db, ref)
	if err != nil {
		return false, err
	}
	if !exists {
		return c.provider.CreateTableIfNotExists(ctx, c.db, desired)
	}

	current, err := c.provider.GetTable(ctx, c.db, ref)
	if err != nil {
		return false, err
	}

	changed := false
	mark := func(did bool, err error) error {
		if did {
			changed = true
		}
		return err
	}

	// Columns first: later constraint work may reference new columns.
	for _, col := range desired.Columns {
		if current.Column(col.Name) == nil {
			if err := mark(c.provider.AddColumnIfNotExists(ctx, c.db, desired, col)); err != nil {
				return changed, err
			}
		}
	}
	for _, col := range desired.Columns {
		cur := current.Column(col.Name)
		if cur == nil {
			continue
		}
		if !cur.Type.Equal(col.Type) || cur.Nullable != col.Nullable {
			if err := c.provider.AlterColumnType(ctx, c.db, desired, col); err != nil {
				return changed, err
			}
			changed = true
		}
	}

	// Unwanted constraints and indexes go before unwanted columns so
	// nothing still references a column at drop time.
	if current.PrimaryKey != nil && (desired.PrimaryKey == nil || !current.PrimaryKey.Equal(*desired.PrimaryKey)) {
		if err := mark(c.provider.DropConstraintIfExists(ctx, c.db, ref, dialect.ConstraintPrimaryKey, current.PrimaryKeyName())); err != nil {
			return changed, err
		}
	}
	for _, fk := range current.ForeignKeys {
		if !hasForeignKey(desired.ForeignKeys, fk) {
			if err := mark(c.provider.DropConstraintIfExists(ctx, c.db, ref, dialect.ConstraintForeignKey, current.ForeignKeyName(fk))); err != nil {
				return changed, err
			}
		}
	}
	for _, u := range current.Uniques {
		if !hasUnique(desired.Uniques, u) {
			if err := mark(c.provider.DropConstraintIfExists(ctx, c.db, ref, dialect.ConstraintUnique, current.UniqueName(u))); err != nil {
				return changed, err
			}
		}
	}
	desiredCheckNames := make(map[string]bool, len(desired.Checks))
	for _, ck := range desired.Checks {
		desiredCheckNames[schema.FoldName(desired.CheckName(ck))] = true
	}
	for _, ck := range current.Checks {
		if !desiredCheckNames[schema.FoldName(current.CheckName(ck))] {
			if err := mark(c.provider.DropConstraintIfExists(ctx, c.db, ref, dialect.ConstraintCheck, current.CheckName(ck))); err != nil {
				return changed, err
			}
		}
	}
	curDefaults := defaultExpressions(current)
	desDefaults := defaultExpressions(desired)
	for _, col := range current.Columns {
		key := schema.FoldName(col.Name)
		curExpr, ok := curDefaults[key]
		if !ok || desired.Column(col.Name) == nil {
			continue
		}
		if want, ok := desDefaults[key]; ok && defaultsEqual(curExpr, want) {
			continue
		}
		name := currentDefaultName(current, col.Name)
		if err := mark(c.provider.DropConstraintIfExists(ctx, c.db, ref, dialect.ConstraintDefault, name)); err != nil {
			return changed, err
		}
	}
	for _, idx := range current.Indexes {
		if !hasIndex(desired.Indexes, idx) {
			if err := mark(c.provider.DropIndexIfExists(ctx, c.db, ref, current.IndexName(idx))); err != nil {
				return changed, err
			}
		}
	}

	for _, col := range current.Columns {
		if desired.Column(col.Name) == nil {
			if err := mark(c.provider.DropColumnIfExists(ctx, c.db, ref, col.Name)); err != nil {
				return changed, err
			}
		}
	}

	// Now the additions.
	if desired.PrimaryKey != nil && (current.PrimaryKey == nil || !current.PrimaryKey.Equal(*desired.PrimaryKey)) {
		con := dialect.Constraint{Kind: dialect.ConstraintPrimaryKey, PrimaryKey: desired.PrimaryKey}
		if err := mark(c.provider.AddConstraintIfNotExists(ctx, c.db, desired, con)); err != nil {
			return changed, err
		}
	}
	for i := range desired.Uniques {
		if !hasUnique(current.Uniques, desired.Uniques[i]) {
			con := dialect.Constraint{Kind: dialect.ConstraintUnique, Unique: &desired.Uniques[i]}
			if err := mark(c.provider.AddConstraintIfNotExists(ctx, c.db, desired, con)); err != nil {
				return changed, err
			}
		}
	}
	currentCheckNames := make(map[string]bool, len(current.Checks))
	for _, ck := range current.Checks {
		currentCheckNames[schema.FoldName(current.CheckName(ck))] = true
	}
	for i := range desired.Checks {
		if !currentCheckNames[schema.FoldName(desired.CheckName(desired.Checks[i]))] {
			con := dialect.Constraint{Kind: dialect.ConstraintCheck, Check: &desired.Checks[i]}
			if err := mark(c.provider.AddConstraintIfNotExists(ctx, c.db, desired, con)); err != nil {
				return changed, err
			}
		}
	}
	for _, col := range desired.Columns {
		key := schema.FoldName(col.Name)
		want, ok := desDefaults[key]
		if !ok {
			continue
		}
		if cur, ok := curDefaults[key]; ok && defaultsEqual(cur, want) {
			continue
		}
		if current.Column(col.Name) == nil && col.Default != nil {
			// Already rendered inline with the column definition above.
			continue
		}
		d := desiredDefault(desired, col.Name, want)
		con := dialect.Constraint{Kind: dialect.ConstraintDefault, Default: &d}
		if err := mark(c.provider.AddConstraintIfNotExists(ctx, c.db, desired, con)); err != nil {
			return changed, err
		}
	}
	for i := range desired.ForeignKeys {
		if !hasForeignKey(current.ForeignKeys, desired.ForeignKeys[i]) {
			con := dialect.Constraint{Kind: dialect.ConstraintForeignKey, ForeignKey: &desired.ForeignKeys[i]}
			if err := mark(c.provider.AddConstraintIfNotExists(ctx, c.db, desired, con)); err != nil {
				return changed, err
			}
		}
	}
	for _, idx := range desired.Indexes {
		if !hasIndex(current.Indexes, idx) {
			if err := mark(c.provider.CreateIndexIfNotExists(ctx, c.db, desired, idx)); err != nil {
				return changed, err
			}
		}
	}

	return changed, nil
}

// EnsureTables ensures a batch of tables in foreign key dependency order.
// Returns whether any table changed.
func (c *Conn) EnsureTables(ctx context.Context, tables []schema.Table) (bool, error) {
	sorted, err := schema.TopologicalSort(tables)
	if err != nil {
		return false, err
	}
	changed := false
	for i := range sorted {
		did, err := c.EnsureTable(ctx, &sorted[i])
		if did {
			changed = true
		}
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func hasForeignKey(set []schema.ForeignKey, fk schema.ForeignKey) bool {
	for _, o := range set {
		if o.Equal(fk) {
			return true
		}
	}
	return false
}

func hasUnique(set []schema.Unique, u schema.Unique) bool {
	for _, o := range set {
		if o.Equal(u) {
			return true
		}
	}
	return false
}

func hasIndex(set []schema.Index, idx schema.Index) bool {
	for _, o := range set {
		if o.Equal(idx) {
			return true
		}
	}
	return false
}

// defaultExpressions folds column defaults and table-level default entries
// into one per-column view, keyed by folded column name. A table-level
// entry wins over the column attribute.
func defaultExpressions(t *schema.Table) map[string]string {
	out := make(map[string]string)
	for _, col := range t.Columns {
		if col.Default != nil {
			out[schema.FoldName(col.Name)] = *col.Default
		}
	}
	for _, d := range t.Defaults {
		out[schema.FoldName(d.Column)] = d.Expression
	}
	return out
}

// currentDefaultName returns the name the live default answers to: the
// introspected entry's own name when the catalog stores one, the generated
// name otherwise.
func currentDefaultName(t *schema.Table, column string) string {
	for _, d := range t.Defaults {
		if schema.NamesEqual(d.Column, column) {
			return t.DefaultName(d)
		}
	}
	return t.DefaultName(schema.Default{Column: column})
}

// desiredDefault returns the model's default entry for the column,
// synthesizing one from the column attribute when the table carries no
// explicit entry.
func desiredDefault(t *schema.Table, column, expression string) schema.Default {
	for _, d := range t.Defaults {
		if schema.NamesEqual(d.Column, column) {
			return d
		}
	}
	return schema.Default{Column: column, Expression: expression}
}

func defaultsEqual(a, b string) bool {
	return normalizeDefault(a) == normalizeDefault(b)
}

// normalizeDefault undoes the rewrites servers apply when storing default
// expressions: wrapping parentheses, trailing type casts, quote stripping
// and case changes.
func normalizeDefault(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balancedParens(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if i := strings.LastIndex(s, "::"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "'")
	return strings.ToLower(s)
}

func balancedParens(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
