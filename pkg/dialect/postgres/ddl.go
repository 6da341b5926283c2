package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

func (p *Provider) columnDefinition(col schema.Column) (string, error) {
	sqlType, ok := p.types.ToSQL(col.Type)
	if !ok {
		return "", fmt.Errorf("%w: %s (postgres)", dialect.ErrUnsupportedType, col.Type.Name)
	}

	var b strings.Builder
	b.WriteString(p.Quote(col.Name))
	b.WriteString(" ")
	b.WriteString(renderType(sqlType))

	if col.AutoIncrement || col.Type.AutoIncrement {
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	if col.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(p.DefaultLiteral(*col.Default))
	}
	return b.String(), nil
}

// CreateTableIfNotExists creates the table with its constraints inline and
// the secondary indexes as follow-up statements, all in one transaction.
// Returns false without error when the table is already present.
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

	stmts, err := p.createTableStatements(t)
	if err != nil {
		return false, err
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
			return false, dialect.NewDatabaseError(p.ID(), "create_table", err).WithContext("table", t.QualifiedName())
		}
	}

	if err := tx.Commit(); err != nil {
		return false, dialect.WrapError(p.ID(), "create_table", err)
	}
	return true, nil
}

func (p *Provider) createTableStatements(t *schema.Table) ([]string, error) {
	var stmts []string

	schemaName := p.schemaOrDefault(t.Schema)
	if schemaName != "public" {
		stmts = append(stmts, "CREATE SCHEMA IF NOT EXISTS "+p.Quote(schemaName))
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(p.qualify(dialect.Ref(t)))
	b.WriteString(" (")
	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		def, err := p.columnDefinition(col)
		if err != nil {
			return nil, err
		}
		b.WriteString(def)
	}
	if t.PrimaryKey != nil {
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
		b.WriteString(", ")
		b.WriteString(p.foreignKeyClause(t, fk))
	}
	b.WriteString(")")
	stmts = append(stmts, b.String())

	for _, d := range t.Defaults {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
			p.qualify(dialect.Ref(t)), p.Quote(d.Column), p.DefaultLiteral(d.Expression)))
	}
	for _, idx := range t.Indexes {
		stmts = append(stmts, p.indexStatement(t, idx))
	}
	return stmts, nil
}

func (p *Provider) quoteJoin(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = p.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

func (p *Provider) foreignKeyClause(t *schema.Table, fk schema.ForeignKey) string {
	refTable := p.Quote(p.schemaOrDefault(fk.RefSchema)) + "." + p.Quote(fk.RefTable)
	clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		p.Quote(t.ForeignKeyName(fk)), p.quoteJoin(fk.Columns), refTable, p.quoteJoin(fk.RefColumns))
	if fk.OnDelete != "" {
		clause += " ON DELETE " + string(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		clause += " ON UPDATE " + string(fk.OnUpdate)
	}
	return clause
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
	b.WriteString(p.qualify(dialect.Ref(t)))
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

// DropTableIfExists drops the table using the native IF EXISTS clause.
// Returns false without error when the table is absent.
func (p *Provider) DropTableIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	exists, err := p.TableExists(ctx, db, ref)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+p.qualify(ref)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_table", err).WithContext("table", ref.Name)
	}
	return true, nil
}

// AddColumnIfNotExists adds the column using the native IF NOT EXISTS
// clause. Returns false when it is already present.
func (p *Provider) AddColumnIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) (bool, error) {
	exists, err := p.ColumnExists(ctx, db, dialect.Ref(t), col.Name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	def, err := p.columnDefinition(col)
	if err != nil {
		return false, err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", p.qualify(dialect.Ref(t)), def)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "add_column", err).WithContext("column", col.Name)
	}
	return true, nil
}

// DropColumnIfExists drops the column. Returns false when it is absent.
func (p *Provider) DropColumnIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, column string) (bool, error) {
	exists, err := p.ColumnExists(ctx, db, ref, column)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", p.qualify(ref), p.Quote(column))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_column", err).WithContext("column", column)
	}
	return true, nil
}

// AlterColumnType changes a column's type. The USING cast covers the
// conversions postgres will not do implicitly.
func (p *Provider) AlterColumnType(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) error {
	sqlType, ok := p.types.ToSQL(col.Type)
	if !ok {
		return fmt.Errorf("%w: %s (postgres)", dialect.ErrUnsupportedType, col.Type.Name)
	}
	rendered := renderType(sqlType)
	stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
		p.qualify(dialect.Ref(t)), p.Quote(col.Name), rendered, p.Quote(col.Name), rendered)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return dialect.NewDatabaseError(p.ID(), "alter_column", err).WithContext("column", col.Name)
	}
	return nil
}

// CreateIndexIfNotExists creates the index using the native IF NOT EXISTS
// clause. Returns false when an index of the same name already exists.
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
	stmt := "DROP INDEX IF EXISTS " + p.Quote(p.schemaOrDefault(ref.Schema)) + "." + p.Quote(name)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_index", err).WithContext("index", name)
	}
	return true, nil
}

// AddConstraintIfNotExists adds the constraint. Default constraints are
// column attributes on this dialect and are applied with ALTER COLUMN SET
// DEFAULT.
func (p *Provider) AddConstraintIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, c dialect.Constraint) (bool, error) {
	target := p.qualify(dialect.Ref(t))

	if c.Kind == dialect.ConstraintDefault {
		stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
			target, p.Quote(c.Default.Column), p.DefaultLiteral(c.Default.Expression))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return false, dialect.NewDatabaseError(p.ID(), "add_constraint", err).WithContext("column", c.Default.Column)
		}
		return true, nil
	}

	name := c.Name(t)
	exists, err := p.ConstraintExists(ctx, db, dialect.Ref(t), name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var stmt string
	switch c.Kind {
	case dialect.ConstraintPrimaryKey:
		stmt = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
			target, p.Quote(name), p.quoteJoin(c.PrimaryKey.Columns))
	case dialect.ConstraintUnique:
		stmt = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			target, p.Quote(name), p.quoteJoin(c.Unique.Columns))
	case dialect.ConstraintCheck:
		stmt = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
			target, p.Quote(name), c.Check.Expression)
	case dialect.ConstraintForeignKey:
		stmt = fmt.Sprintf("ALTER TABLE %s ADD %s", target, p.foreignKeyClause(t, *c.ForeignKey))
	default:
		return false, dialect.NewUnsupportedOperationError(p.ID(), "add_constraint", fmt.Sprintf("unknown constraint kind %q", c.Kind))
	}

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		if again, checkErr := p.ConstraintExists(ctx, db, dialect.Ref(t), name); checkErr == nil && again {
			return false, nil
		}
		return false, dialect.NewDatabaseError(p.ID(), "add_constraint", err).WithContext("constraint", name)
	}
	return true, nil
}

// DropConstraintIfExists drops the constraint. Default constraints have no
// catalog name here; the name is resolved against the introspected model
// and the column altered with DROP DEFAULT.
func (p *Provider) DropConstraintIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, kind dialect.ConstraintKind, name string) (bool, error) {
	if kind == dialect.ConstraintDefault {
		return p.dropDefault(ctx, db, ref, name)
	}

	exists, err := p.ConstraintExists(ctx, db, ref, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", p.qualify(ref), p.Quote(name))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_constraint", err).WithContext("constraint", name)
	}
	return true, nil
}

// dropDefault resolves the default-constraint name against the current
// columns and clears the matching column default. Returns false when no
// column default carries the name.
func (p *Provider) dropDefault(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	current, err := p.GetTable(ctx, db, ref)
	if err != nil {
		return false, err
	}
	for _, col := range current.Columns {
		if col.Default == nil {
			continue
		}
		if !schema.NamesEqual(current.DefaultName(schema.Default{Column: col.Name}), name) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", p.qualify(ref), p.Quote(col.Name))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return false, dialect.NewDatabaseError(p.ID(), "drop_constraint", err).WithContext("constraint", name)
		}
		return true, nil
	}
	return false, nil
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
	stmt := fmt.Sprintf("CREATE VIEW %s AS %s", p.qualify(ref), v.Definition)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		if again, checkErr := p.ViewExists(ctx, db, ref); checkErr == nil && again {
			return false, nil
		}
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
	if _, err := db.ExecContext(ctx, "DROP VIEW IF EXISTS "+p.qualify(ref)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_view", err).WithContext("view", ref.Name)
	}
	return true, nil
}
