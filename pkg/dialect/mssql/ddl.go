package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// columnDefinition renders one column clause of a CREATE TABLE or ALTER
// TABLE ADD statement.
func (p *Provider) columnDefinition(col schema.Column) (string, error) {
	sqlType, ok := p.types.ToSQL(col.Type)
	if !ok {
		return "", fmt.Errorf("%w: %s (mssql)", dialect.ErrUnsupportedType, col.Type.Name)
	}

	var b strings.Builder
	b.WriteString(p.Quote(col.Name))
	b.WriteString(" ")
	b.WriteString(renderType(sqlType))

	if col.AutoIncrement || col.Type.AutoIncrement {
		b.WriteString(" IDENTITY(1,1)")
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

// CreateTableIfNotExists creates the table with its primary key inline and
// the remaining constraints and indexes as follow-up statements, all in
// one transaction. Returns false without error when the table is already
// present.
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
			// Lost the race against a concurrent creator.
			if again, checkErr := p.TableExists(ctx, db, dialect.Ref(t)); checkErr == nil && again {
				return false, nil
			}
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
	if schemaName != "dbo" {
		stmts = append(stmts, fmt.Sprintf(
			"IF NOT EXISTS (SELECT * FROM sys.schemas WHERE name = '%s') EXEC('CREATE SCHEMA %s')",
			schemaName, p.Quote(schemaName)))
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
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
	b.WriteString(")")
	stmts = append(stmts, b.String())

	for _, u := range t.Uniques {
		u := u
		stmt, err := p.constraintStatement(t, dialect.Constraint{Kind: dialect.ConstraintUnique, Unique: &u})
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	for _, c := range t.Checks {
		c := c
		stmt, err := p.constraintStatement(t, dialect.Constraint{Kind: dialect.ConstraintCheck, Check: &c})
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	for _, d := range t.Defaults {
		d := d
		stmt, err := p.constraintStatement(t, dialect.Constraint{Kind: dialect.ConstraintDefault, Default: &d})
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	for _, fk := range t.ForeignKeys {
		fk := fk
		stmt, err := p.constraintStatement(t, dialect.Constraint{Kind: dialect.ConstraintForeignKey, ForeignKey: &fk})
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
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

func (p *Provider) constraintStatement(t *schema.Table, c dialect.Constraint) (string, error) {
	target := p.qualify(dialect.Ref(t))
	name := p.Quote(c.Name(t))

	switch c.Kind {
	case dialect.ConstraintPrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
			target, name, p.quoteJoin(c.PrimaryKey.Columns)), nil
	case dialect.ConstraintUnique:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			target, name, p.quoteJoin(c.Unique.Columns)), nil
	case dialect.ConstraintCheck:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
			target, name, c.Check.Expression), nil
	case dialect.ConstraintDefault:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s DEFAULT %s FOR %s",
			target, name, p.DefaultLiteral(c.Default.Expression), p.Quote(c.Default.Column)), nil
	case dialect.ConstraintForeignKey:
		fk := c.ForeignKey
		refTable := p.Quote(p.schemaOrDefault(fk.RefSchema)) + "." + p.Quote(fk.RefTable)
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			target, name, p.quoteJoin(fk.Columns), refTable, p.quoteJoin(fk.RefColumns))
		if fk.OnDelete != "" {
			stmt += " ON DELETE " + string(fk.OnDelete)
		}
		if fk.OnUpdate != "" {
			stmt += " ON UPDATE " + string(fk.OnUpdate)
		}
		return stmt, nil
	}
	return "", dialect.NewUnsupportedOperationError(p.ID(), "add_constraint", fmt.Sprintf("unknown constraint kind %q", c.Kind))
}

func (p *Provider) indexStatement(t *schema.Table, idx schema.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
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
	if _, err := db.ExecContext(ctx, "DROP TABLE "+p.qualify(ref)); err != nil {
		if again, checkErr := p.TableExists(ctx, db, ref); checkErr == nil && !again {
			return false, nil
		}
		return false, dialect.NewDatabaseError(p.ID(), "drop_table", err).WithContext("table", ref.Name)
	}
	return true, nil
}

// AddColumnIfNotExists adds the column. Returns false when it is already
// present.
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
	stmt := fmt.Sprintf("ALTER TABLE %s ADD %s", p.qualify(dialect.Ref(t)), def)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		if again, checkErr := p.ColumnExists(ctx, db, dialect.Ref(t), col.Name); checkErr == nil && again {
			return false, nil
		}
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
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.qualify(ref), p.Quote(column))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_column", err).WithContext("column", column)
	}
	return true, nil
}

// AlterColumnType changes a column's type in place.
func (p *Provider) AlterColumnType(ctx context.Context, db *sql.DB, t *schema.Table, col schema.Column) error {
	sqlType, ok := p.types.ToSQL(col.Type)
	if !ok {
		return fmt.Errorf("%w: %s (mssql)", dialect.ErrUnsupportedType, col.Type.Name)
	}
	nullability := " NOT NULL"
	if col.Nullable {
		nullability = " NULL"
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s%s",
		p.qualify(dialect.Ref(t)), p.Quote(col.Name), renderType(sqlType), nullability)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return dialect.NewDatabaseError(p.ID(), "alter_column", err).WithContext("column", col.Name)
	}
	return nil
}

// CreateIndexIfNotExists creates the index. Returns false when an index of
// the same name already exists on the table.
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
		if again, checkErr := p.IndexExists(ctx, db, dialect.Ref(t), name); checkErr == nil && again {
			return false, nil
		}
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
	stmt := fmt.Sprintf("DROP INDEX %s ON %s", p.Quote(name), p.qualify(ref))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_index", err).WithContext("index", name)
	}
	return true, nil
}

// AddConstraintIfNotExists adds the constraint. Returns false when a
// constraint of the same name already exists.
func (p *Provider) AddConstraintIfNotExists(ctx context.Context, db *sql.DB, t *schema.Table, c dialect.Constraint) (bool, error) {
	name := c.Name(t)
	exists, err := p.ConstraintExists(ctx, db, dialect.Ref(t), name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	stmt, err := p.constraintStatement(t, c)
	if err != nil {
		return false, err
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		if again, checkErr := p.ConstraintExists(ctx, db, dialect.Ref(t), name); checkErr == nil && again {
			return false, nil
		}
		return false, dialect.NewDatabaseError(p.ID(), "add_constraint", err).WithContext("constraint", name)
	}
	return true, nil
}

// DropConstraintIfExists drops the constraint. Returns false when it is
// absent.
func (p *Provider) DropConstraintIfExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, kind dialect.ConstraintKind, name string) (bool, error) {
	exists, err := p.ConstraintExists(ctx, db, ref, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", p.qualify(ref), p.Quote(name))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_constraint", err).WithContext("constraint", name)
	}
	return true, nil
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
	if _, err := db.ExecContext(ctx, "DROP VIEW "+p.qualify(ref)); err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "drop_view", err).WithContext("view", ref.Name)
	}
	return true, nil
}
