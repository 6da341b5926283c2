package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// schemaExpr resolves an empty schema argument to the connection's current
// database inside the catalog queries.
const schemaExpr = "COALESCE(NULLIF(?, ''), DATABASE())"

// TableExists checks information_schema.tables for the table.
func (p *Provider) TableExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = `+schemaExpr+`
		  AND table_name = ? AND table_type = 'BASE TABLE'`,
		ref.Schema, ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "table_exists", err).WithContext("table", ref.Name)
	}
	return n > 0, nil
}

// GetTable reads the full table description from information_schema.
func (p *Provider) GetTable(ctx context.Context, db *sql.DB, ref dialect.TableRef) (*schema.Table, error) {
	exists, err := p.TableExists(ctx, db, ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dialect.NewDatabaseError(p.ID(), "get_table", dialect.ErrObjectNotFound).WithContext("table", ref.Name)
	}

	t := &schema.Table{Name: ref.Name, Schema: ref.Schema}

	if err := p.readColumns(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readKeyConstraints(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readForeignKeys(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readChecks(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readIndexes(ctx, db, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Provider) readColumns(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, column_type,
		       character_maximum_length, numeric_precision, numeric_scale,
		       is_nullable, column_default, extra
		FROM information_schema.columns
		WHERE table_schema = `+schemaExpr+` AND table_name = ?
		ORDER BY ordinal_position`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, dataType, columnType, isNullable, extra string
			charLength, precision, scale                  sql.NullInt64
			columnDefault                                 sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &columnType, &charLength, &precision, &scale, &isNullable, &columnDefault, &extra); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}

		sqlType := schema.SQLTypeDescriptor{TypeName: dataType}
		switch dataType {
		case "varchar", "char", "varbinary", "binary":
			if charLength.Valid {
				sqlType.Length = schema.IntPtr(int(charLength.Int64))
			}
		case "decimal", "numeric":
			if precision.Valid {
				sqlType.Precision = schema.IntPtr(int(precision.Int64))
			}
			if scale.Valid {
				sqlType.Scale = schema.IntPtr(int(scale.Int64))
			}
		case "tinyint":
			// information_schema reports precision, not the display width
			// that distinguishes tinyint(1) booleans.
			if strings.HasPrefix(strings.ToLower(columnType), "tinyint(1)") {
				sqlType.Length = schema.IntPtr(1)
			}
		}

		hostType, ok := p.types.ToHost(sqlType)
		if !ok {
			hostType = schema.TypeDescriptor{Name: dataType}
		}

		col := schema.Column{
			Name:          name,
			Type:          hostType,
			Nullable:      strings.EqualFold(isNullable, "YES"),
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
		}
		if columnDefault.Valid {
			col.Default = schema.StringPtr(columnDefault.String)
		}
		t.Columns = append(t.Columns, col)
	}
	return rows.Err()
}

func (p *Provider) readKeyConstraints(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		 AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = `+schemaExpr+` AND tc.table_name = ?
		  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.constraint_name, kcu.ordinal_position`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	type keyConstraint struct {
		kind    string
		columns []string
	}
	order := []string{}
	byName := map[string]*keyConstraint{}

	for rows.Next() {
		var name, kind, column string
		if err := rows.Scan(&name, &kind, &column); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		kc, ok := byName[name]
		if !ok {
			kc = &keyConstraint{kind: kind}
			byName[name] = kc
			order = append(order, name)
		}
		kc.columns = append(kc.columns, column)
	}
	if err := rows.Err(); err != nil {
		return dialect.WrapError(p.ID(), "get_table", err)
	}

	for _, name := range order {
		kc := byName[name]
		switch kc.kind {
		case "PRIMARY KEY":
			t.PrimaryKey = &schema.PrimaryKey{Name: name, Columns: kc.columns}
		case "UNIQUE":
			t.Uniques = append(t.Uniques, schema.Unique{Name: name, Columns: kc.columns})
		}
	}
	return nil
}

func (p *Provider) readForeignKeys(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT kcu.constraint_name, kcu.referenced_table_schema, kcu.referenced_table_name,
		       kcu.column_name, kcu.referenced_column_name,
		       rc.delete_rule, rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_schema = kcu.constraint_schema
		 AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = `+schemaExpr+` AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.ForeignKey{}

	for rows.Next() {
		var name, refSchema, refTable, column, refColumn, onDelete, onUpdate string
		if err := rows.Scan(&name, &refSchema, &refTable, &column, &refColumn, &onDelete, &onUpdate); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		fk, ok := byName[name]
		if !ok {
			fk = &schema.ForeignKey{
				Name:      name,
				RefSchema: refSchema,
				RefTable:  refTable,
				OnDelete:  schema.RefAction(onDelete),
				OnUpdate:  schema.RefAction(onUpdate),
			}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return dialect.WrapError(p.ID(), "get_table", err)
	}

	for _, name := range order {
		t.ForeignKeys = append(t.ForeignKeys, *byName[name])
	}
	return nil
}

func (p *Provider) readChecks(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tc.constraint_name, cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
		  ON cc.constraint_schema = tc.constraint_schema
		 AND cc.constraint_name = tc.constraint_name
		WHERE tc.table_schema = `+schemaExpr+` AND tc.table_name = ?
		  AND tc.constraint_type = 'CHECK'
		ORDER BY tc.constraint_name`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	for rows.Next() {
		var name, clause string
		if err := rows.Scan(&name, &clause); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		t.Checks = append(t.Checks, schema.Check{Name: name, Expression: strings.Trim(clause, "()")})
	}
	return rows.Err()
}

// readIndexes loads secondary indexes from information_schema.statistics,
// skipping the primary key index and the indexes backing unique
// constraints already reported as constraints.
func (p *Provider) readIndexes(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT index_name, non_unique, column_name, collation
		FROM information_schema.statistics
		WHERE table_schema = `+schemaExpr+` AND table_name = ?
		  AND index_name <> 'PRIMARY'
		ORDER BY index_name, seq_in_index`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	constraintNames := make(map[string]bool, len(t.Uniques)+len(t.ForeignKeys))
	for _, u := range t.Uniques {
		constraintNames[schema.FoldName(u.Name)] = true
	}
	for _, fk := range t.ForeignKeys {
		constraintNames[schema.FoldName(fk.Name)] = true
	}

	order := []string{}
	byName := map[string]*schema.Index{}

	for rows.Next() {
		var (
			name, column string
			nonUnique    int
			collation    sql.NullString
		)
		if err := rows.Scan(&name, &nonUnique, &column, &collation); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		if constraintNames[schema.FoldName(name)] {
			continue
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{Name: name, Unique: nonUnique == 0}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, schema.IndexColumn{
			Name: column,
			Desc: collation.Valid && collation.String == "D",
		})
	}
	if err := rows.Err(); err != nil {
		return dialect.WrapError(p.ID(), "get_table", err)
	}

	for _, name := range order {
		t.Indexes = append(t.Indexes, *byName[name])
	}
	return nil
}

// ListTables returns all tables in the current database whose name matches
// the LIKE pattern. An empty pattern lists everything.
func (p *Provider) ListTables(ctx context.Context, db *sql.DB, pattern string) ([]schema.Table, error) {
	if pattern == "" {
		pattern = "%"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE' AND table_name LIKE ?
		ORDER BY table_name`,
		pattern)
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "list_tables", err)
	}
	defer rows.Close()

	var refs []dialect.TableRef
	for rows.Next() {
		var ref dialect.TableRef
		if err := rows.Scan(&ref.Schema, &ref.Name); err != nil {
			return nil, dialect.WrapError(p.ID(), "list_tables", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, dialect.WrapError(p.ID(), "list_tables", err)
	}

	tables := make([]schema.Table, 0, len(refs))
	for _, ref := range refs {
		t, err := p.GetTable(ctx, db, ref)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

// ColumnExists checks information_schema.columns for the column.
func (p *Provider) ColumnExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, column string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_schema = `+schemaExpr+`
		  AND table_name = ? AND column_name = ?`,
		ref.Schema, ref.Name, column).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "column_exists", err).WithContext("column", column)
	}
	return n > 0, nil
}

// IndexExists checks information_schema.statistics for the index.
func (p *Provider) IndexExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.statistics
		WHERE table_schema = `+schemaExpr+`
		  AND table_name = ? AND index_name = ?`,
		ref.Schema, ref.Name, name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "index_exists", err).WithContext("index", name)
	}
	return n > 0, nil
}

// ConstraintExists checks information_schema.table_constraints for the
// constraint. Default constraints have no catalog presence on this dialect
// and always report false.
func (p *Provider) ConstraintExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.table_constraints
		WHERE table_schema = `+schemaExpr+`
		  AND table_name = ? AND constraint_name = ?`,
		ref.Schema, ref.Name, name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "constraint_exists", err).WithContext("constraint", name)
	}
	return n > 0, nil
}

// ViewExists checks information_schema.views for the view.
func (p *Provider) ViewExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.views
		WHERE table_schema = `+schemaExpr+` AND table_name = ?`,
		ref.Schema, ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "view_exists", err).WithContext("view", ref.Name)
	}
	return n > 0, nil
}

// GetView reads the view definition from information_schema.views.
func (p *Provider) GetView(ctx context.Context, db *sql.DB, ref dialect.TableRef) (*schema.View, error) {
	var definition string
	err := db.QueryRowContext(ctx, `
		SELECT view_definition
		FROM information_schema.views
		WHERE table_schema = `+schemaExpr+` AND table_name = ?`,
		ref.Schema, ref.Name).Scan(&definition)
	if err == sql.ErrNoRows {
		return nil, dialect.NewDatabaseError(p.ID(), "get_view", dialect.ErrObjectNotFound).WithContext("view", ref.Name)
	}
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "get_view", err).WithContext("view", ref.Name)
	}
	return &schema.View{Name: ref.Name, Schema: ref.Schema, Definition: strings.TrimSpace(definition)}, nil
}
