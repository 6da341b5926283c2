package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// singleIntegerPK reports whether col is the sole primary key column and
// integer typed, the one arrangement where SQLite supports AUTOINCREMENT.
func singleIntegerPK(t *schema.Table, col schema.Column) bool {
	if t.PrimaryKey == nil || len(t.PrimaryKey.Columns) != 1 {
		return false
	}
	if !schema.NamesEqual(t.PrimaryKey.Columns[0], col.Name) {
		return false
	}
	switch col.Type.Name {
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		return true
	}
	return false
}

func (p *Provider) columnDefinition(t *schema.Table, col schema.Column) (string, error) {
	autoPK := (col.AutoIncrement || col.Type.AutoIncrement) && singleIntegerPK(t, col)
	if autoPK {
		return p.Quote(col.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT", nil
	}

	sqlType, ok := p.types.ToSQL(col.Type)
	if !ok {
		return "", fmt.Errorf("%w: %s (sqlite)", dialect.ErrUnsupportedType, col.Type.Name)
	}

	var b strings.Builder
	b.WriteString(p.Quote(col.Name))
	b.WriteString(" ")
	b.WriteString(renderType(sqlType))
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(p.DefaultLiteral(*col.Default))
	} else if d := tableDefault(t, col.Name); d != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(p.DefaultLiteral(d.Expression))
	}
	return b.String(), nil
}

// tableDefault finds the table-level default entry for the column. Every
// constraint is inline on this dialect, so these render as DEFAULT clauses
// on their owning columns.
func tableDefault(t *schema.Table, column string) *schema.Default {
	for i := range t.Defaults {
		if schema.NamesEqual(t.Defaults[i].Column, column) {
			return &t.Defaults[i]
		}
	}
	return nil
}

// createTableSQL renders the full CREATE TABLE statement with every
// constraint inline. nameOverride substitutes the table name during
// rebuilds.
func (p *Provider) createTableSQL(t *schema.Table, nameOverride string, ifNotExists bool) (string, error) {
	name := t.Name
	if nameOverride != "" {
		name = nameOverride
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(p.Quote(name))
	b.WriteString(" (")

	inlinePK := false
	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		def, err := p.columnDefinition(t, col)
		if err != nil {
			return "", err
		}
		b.WriteString(def)
		if strings.HasSuffix(def, "AUTOINCREMENT") {
			inlinePK = true
		}
	}
	if t.PrimaryKey != nil && !inlinePK {
		b.WriteString(fmt.Sprintf(", CONSTRAINT %s PRIMARY KEY (%s)",
			p.Quote(t.PrimaryKeyName()), p.quoteJoin(t.PrimaryKey.Columns)))
	}
	for _, u := range t.Uniques {
		b.WriteString(fmt.Sprintf(", CONSTRAINT %s UNIQUE (%s)",
			p.Quote(t.UniqueName(u)), p.quoteJoin(u.Columns)))
	}
	for _, c := range t.Checks {
		b.WriteString(fmt.Sprintf(", CONSTRAINT %s CHECK (%s)",
			p.Quote(t.CheckName(c)), c.Expression))
	}
	for _, fk := range t.ForeignKeys {
		clause := fmt.Sprintf(", CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			p.Quote(t.ForeignKeyName(fk)), p.quoteJoin(fk.Columns), p.Quote(fk.RefTable), p.quoteJoin(fk.RefColumns))
		if fk.OnDelete != "" {
			clause += " ON DELETE " + string(fk.OnDelete)
		}
		if fk.OnUpdate != "" {
			clause += " ON UPDATE " + string(fk.OnUpdate)
		}
		b.WriteString(clause)
	}
	b.WriteString(")")
	return b.String(), nil
}

func (p *Provider) quoteJoin(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = p.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

func (p *Provider) indexStatement(t *schema.Table, idx schema.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX IF NOT EXISTS ")
	b.WriteString(p.Quote(t.IndexName(idx)))
	b.WriteString(" ON ")
	b.WriteString(p.Quote(t.Name))
	b.WriteString(" (")
	for i, ic := range idx.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Quote(ic.Name))
		if ic.Desc {
			b.WriteString(" DESC")
		}
	}
	b.WriteString(")")
	return b.String()
}

// CreateTableIfNotExists creates the table with every constraint inline,
// plus its indexes, in one transaction. Returns false without error when
// the table is already present.
func (p *Provider) CreateTableIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}

	exists, err := p.TableExists(ctx, db, dialect.Ref(t))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	createSQL, err := p.createTableSQL(t, "", true)
	if err != nil {
		return false, err
	}
	stmts := []string{createSQL}
	for _, idx := range t.Indexes {
		stmts = append(stmts, p.indexStatement(t, idx))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, dialect.WrapError(p.ID(), "create_table", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, dialect.NewDatabaseError(p.ID(), "create_table", err).WithContext("table", t.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, dialect.WrapError(p.ID(), "create_table", err)
	}
	return true, nil
}

// DropTableIfExists drops the table. Returns false without error when the
// table is absent.
func (p *Provider) DropTableIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	exists, err := p.TableExists(ctx, db, ref)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+p.Quote(ref.Name)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_table", err).WithContext("table", ref.Name)
	}
	return true, nil
}

// AddColumnIfNotExists adds the column with ALTER TABLE ADD COLUMN, the
// one incremental change SQLite supports directly. Returns false when the
// column is already present.
func (p *Provider) AddColumnIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) (bool, error) {
	exists, err := p.ColumnExists(ctx, db, dialect.Ref(t), col.Name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	def, err := p.columnDefinition(t, col)
	if err != nil {
		return false, err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", p.Quote(t.Name), def)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "add_column", err).WithContext("column", col.Name)
	}
	return true, nil
}

// DropColumnIfExists drops the column. ALTER TABLE DROP COLUMN refuses
// columns referenced by indexes or constraints; those cases go through the
// rebuild fallback. Returns false when the column is absent.
func (p *Provider) DropColumnIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, column string) (bool, error) {
	exists, err := p.ColumnExists(ctx, db, ref, column)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.Quote(ref.Name), p.Quote(column))
	if _, err := db.ExecContext(ctx, stmt); err == nil {
		return true, nil
	}

	current, err := p.GetTable(ctx, db, ref)
	if err != nil {
		return false, err
	}
	desired := dropColumnFromModel(current, column)
	if err := p.Rebuild(ctx, db, desired); err != nil {
		return false, err
	}
	return true, nil
}

// dropColumnFromModel removes the column and everything that references it
// from a copy of the table model.
func dropColumnFromModel(t *schema.Table, column string) *schema.Table {
	out := *t
	out.Columns = nil
	for _, c := range t.Columns {
		if !schema.NamesEqual(c.Name, column) {
			out.Columns = append(out.Columns, c)
		}
	}
	if t.PrimaryKey != nil && containsName(t.PrimaryKey.Columns, column) {
		out.PrimaryKey = nil
	}
	out.Uniques = nil
	for _, u := range t.Uniques {
		if !containsName(u.Columns, column) {
			out.Uniques = append(out.Uniques, u)
		}
	}
	out.ForeignKeys = nil
	for _, fk := range t.ForeignKeys {
		if !containsName(fk.Columns, column) {
			out.ForeignKeys = append(out.ForeignKeys, fk)
		}
	}
	out.Defaults = nil
	for _, d := range t.Defaults {
		if !schema.NamesEqual(d.Column, column) {
			out.Defaults = append(out.Defaults, d)
		}
	}
	out.Indexes = nil
	for _, idx := range t.Indexes {
		keep := true
		for _, ic := range idx.Columns {
			if schema.NamesEqual(ic.Name, column) {
				keep = false
				break
			}
		}
		if keep {
			out.Indexes = append(out.Indexes, idx)
		}
	}
	return &out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if schema.NamesEqual(n, name) {
			return true
		}
	}
	return false
}

// AlterColumnType cannot be expressed incrementally on SQLite; the table
// is rebuilt with the new column definition.
func (p *Provider) AlterColumnType(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) error {
	current, err := p.GetTable(ctx, db, dialect.Ref(t))
	if err != nil {
		return err
	}
	desired := *current
	desired.Columns = make([]schema.Column, len(current.Columns))
	copy(desired.Columns, current.Columns)
	found := false
	for i := range desired.Columns {
		if schema.NamesEqual(desired.Columns[i].Name, col.Name) {
			desired.Columns[i] = col
			found = true
			break
		}
	}
	if !found {
		return dialect.NewDatabaseError(p.ID(), "alter_column", dialect.ErrObjectNotFound).WithContext("column", col.Name)
	}
	return p.Rebuild(ctx, db, &desired)
}

// CreateIndexIfNotExists creates the index. Returns false when an index of
// the same name already exists.
func (p *Provider) CreateIndexIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, idx schema.Index) (bool, error) {
	name := t.IndexName(idx)
	exists, err := p.IndexExists(ctx, db, dialect.Ref(t), name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, p.indexStatement(t, idx)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "create_index", err).WithContext("index", name)
	}
	return true, nil
}

// DropIndexIfExists drops the index. Returns false when it is absent.
func (p *Provider) DropIndexIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	exists, err := p.IndexExists(ctx, db, ref, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, "DROP INDEX IF EXISTS "+p.Quote(name)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_index", err).WithContext("index", name)
	}
	return true, nil
}

// AddConstraintIfNotExists adds the constraint by rebuilding the table
// with it inline. Returns false when a constraint of the same name is
// already present.
func (p *Provider) AddConstraintIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, c dialect.Constraint) (bool, error) {
	current, err := p.GetTable(ctx, db, dialect.Ref(t))
	if err != nil {
		return false, err
	}

	name := c.Name(t)
	if constraintNamed(current, name) {
		return false, nil
	}

	desired := *current
	switch c.Kind {
	case dialect.ConstraintPrimaryKey:
		desired.PrimaryKey = c.PrimaryKey
	case dialect.ConstraintUnique:
		desired.Uniques = append(append([]schema.Unique{}, current.Uniques...), *c.Unique)
	case dialect.ConstraintCheck:
		desired.Checks = append(append([]schema.Check{}, current.Checks...), *c.Check)
	case dialect.ConstraintForeignKey:
		desired.ForeignKeys = append(append([]schema.ForeignKey{}, current.ForeignKeys...), *c.ForeignKey)
	case dialect.ConstraintDefault:
		col := desired.Column(c.Default.Column)
		if col == nil {
			return false, dialect.NewDatabaseError(p.ID(), "add_constraint", dialect.ErrObjectNotFound).WithContext("column", c.Default.Column)
		}
		col.Default = schema.StringPtr(c.Default.Expression)
	default:
		return false, dialect.NewUnsupportedOperationError(p.ID(), "add_constraint", fmt.Sprintf("unknown constraint kind %q", c.Kind))
	}

	if err := p.Rebuild(ctx, db, &desired); err != nil {
		return false, err
	}
	return true, nil
}

// DropConstraintIfExists drops the constraint by rebuilding the table
// without it. Returns false when it is absent.
func (p *Provider) DropConstraintIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, kind dialect.ConstraintKind, name string) (bool, error) {
	current, err := p.GetTable(ctx, db, ref)
	if err != nil {
		return false, err
	}

	desired := *current
	found := false
	switch kind {
	case dialect.ConstraintPrimaryKey:
		if current.PrimaryKey != nil && schema.NamesEqual(current.PrimaryKeyName(), name) {
			desired.PrimaryKey = nil
			found = true
		}
	case dialect.ConstraintUnique:
		desired.Uniques = nil
		for _, u := range current.Uniques {
			if schema.NamesEqual(current.UniqueName(u), name) {
				found = true
				continue
			}
			desired.Uniques = append(desired.Uniques, u)
		}
	case dialect.ConstraintCheck:
		desired.Checks = nil
		for _, c := range current.Checks {
			if schema.NamesEqual(current.CheckName(c), name) {
				found = true
				continue
			}
			desired.Checks = append(desired.Checks, c)
		}
	case dialect.ConstraintForeignKey:
		desired.ForeignKeys = nil
		for _, fk := range current.ForeignKeys {
			if schema.NamesEqual(current.ForeignKeyName(fk), name) {
				found = true
				continue
			}
			desired.ForeignKeys = append(desired.ForeignKeys, fk)
		}
	case dialect.ConstraintDefault:
		desired.Columns = make([]schema.Column, len(current.Columns))
		copy(desired.Columns, current.Columns)
		for i := range desired.Columns {
			d := schema.Default{Column: desired.Columns[i].Name}
			if desired.Columns[i].Default != nil && schema.NamesEqual(current.DefaultName(d), name) {
				desired.Columns[i].Default = nil
				found = true
			}
		}
	default:
		return false, dialect.NewUnsupportedOperationError(p.ID(), "drop_constraint", fmt.Sprintf("unknown constraint kind %q", kind))
	}

	if !found {
		return false, nil
	}
	if err := p.Rebuild(ctx, db, &desired); err != nil {
		return false, err
	}
	return true, nil
}

// constraintNamed reports whether the table model carries a constraint
// with the given name, generated names included.
func constraintNamed(t *schema.Table, name string) bool {
	if t.PrimaryKey != nil && schema.NamesEqual(t.PrimaryKeyName(), name) {
		return true
	}
	for _, u := range t.Uniques {
		if schema.NamesEqual(t.UniqueName(u), name) {
			return true
		}
	}
	for _, c := range t.Checks {
		if schema.NamesEqual(t.CheckName(c), name) {
			return true
		}
	}
	for _, fk := range t.ForeignKeys {
		if schema.NamesEqual(t.ForeignKeyName(fk), name) {
			return true
		}
	}
	for _, d := range t.Defaults {
		if schema.NamesEqual(t.DefaultName(d), name) {
			return true
		}
	}
	// Introspection reports defaults as column attributes, not entries in
	// Defaults; match their generated names too.
	for _, col := range t.Columns {
		if col.Default == nil {
			continue
		}
		if schema.NamesEqual(t.DefaultName(schema.Default{Column: col.Name}), name) {
			return true
		}
	}
	return false
}

// CreateViewIfNotExists creates the view. Returns false when a view of the
// same name already exists.
func (p *Provider) CreateViewIfNotExists(ctx context.Context, db *sql.DB, v *schema.View) (bool, error) {
	ref := dialect.TableRef{Schema: v.Schema, Name: v.Name}
	exists, err := p.ViewExists(ctx, db, ref)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	stmt := fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS %s", p.Quote(v.Name), v.Definition)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "create_view", err).WithContext("view", v.Name)
	}
	return true, nil
}

// DropViewIfExists drops the view. Returns false when it is absent.
func (p *Provider) DropViewIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	exists, err := p.ViewExists(ctx, db, ref)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, "DROP VIEW IF EXISTS "+p.Quote(ref.Name)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_view", err).WithContext("view", ref.Name)
	}
	return true, nil
}
