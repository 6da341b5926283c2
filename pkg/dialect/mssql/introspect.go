package mssql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// TableExists checks sys.tables for the table.
func (p *Provider) TableExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sys.tables t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE s.name = @p1 AND t.name = @p2`,
		p.schemaOrDefault(ref.Schema), ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "table_exists", err).WithContext("table", ref.Name)
	}
	return n > 0, nil
}

// GetTable reads the full table description from the catalog: columns,
// primary key, foreign keys, uniques, checks, defaults and secondary
// indexes.
func (p *Provider) GetTable(ctx context.Context, db *sql.DB, ref dialect.TableRef) (*schema.Table, error) {
	exists, err := p.TableExists(ctx, db, ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dialect.NewDatabaseError(p.ID(), "get_table", dialect.ErrObjectNotFound).WithContext("table", ref.Name)
	}

	t := &schema.Table{Name: ref.Name, Schema: p.schemaOrDefault(ref.Schema)}

	if err := p.readColumns(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readKeyConstraints(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readForeignKeys(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readChecksAndDefaults(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readIndexes(ctx, db, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Provider) readColumns(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT c.name, ty.name, c.max_length, c.precision, c.scale,
		       c.is_nullable, c.is_identity, dc.definition
		FROM sys.columns c
		JOIN sys.tables tb ON c.object_id = tb.object_id
		JOIN sys.schemas s ON tb.schema_id = s.schema_id
		JOIN sys.types ty ON c.user_type_id = ty.user_type_id
		LEFT JOIN sys.default_constraints dc ON c.default_object_id = dc.object_id
		WHERE s.name = @p1 AND tb.name = @p2
		ORDER BY c.column_id`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, typeName       string
			maxLength            int
			precision, scale     int
			nullable, isIdentity bool
			defaultDef           sql.NullString
		)
		if err := rows.Scan(&name, &typeName, &maxLength, &precision, &scale, &nullable, &isIdentity, &defaultDef); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}

		sqlType := schema.SQLTypeDescriptor{TypeName: typeName}
		switch typeName {
		case "nvarchar", "nchar", "varchar", "char", "varbinary", "binary":
			if maxLength > 0 {
				length := maxLength
				// max_length counts bytes; the n-prefixed types are two
				// bytes per character.
				if typeName == "nvarchar" || typeName == "nchar" {
					length /= 2
				}
				sqlType.Length = schema.IntPtr(length)
			}
		case "decimal", "numeric":
			sqlType.Precision = schema.IntPtr(precision)
			sqlType.Scale = schema.IntPtr(scale)
		}

		hostType, ok := p.types.ToHost(sqlType)
		if !ok {
			hostType = schema.TypeDescriptor{Name: typeName}
		}

		col := schema.Column{
			Name:          name,
			Type:          hostType,
			Nullable:      nullable,
			AutoIncrement: isIdentity,
		}
		if defaultDef.Valid {
			col.Default = schema.StringPtr(stripParens(defaultDef.String))
		}
		t.Columns = append(t.Columns, col)
	}
	return rows.Err()
}

// stripParens removes the layers of parentheses SQL Server wraps default
// definitions in, e.g. ((0)) or (getutcdate()).
func stripParens(s string) string {
	for len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := s[1 : len(s)-1]
		if !balanced(inner) {
			break
		}
		s = inner
	}
	return s
}

func balanced(s string) bool {
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

// readKeyConstraints loads primary key and unique constraints from
// sys.key_constraints.
func (p *Provider) readKeyConstraints(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT kc.name, kc.type, c.name
		FROM sys.key_constraints kc
		JOIN sys.tables tb ON kc.parent_object_id = tb.object_id
		JOIN sys.schemas s ON tb.schema_id = s.schema_id
		JOIN sys.index_columns ic
		  ON ic.object_id = kc.parent_object_id AND ic.index_id = kc.unique_index_id
		JOIN sys.columns c
		  ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE s.name = @p1 AND tb.name = @p2
		ORDER BY kc.name, ic.key_ordinal`,
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
			kc = &keyConstraint{kind: strings.TrimSpace(kind)}
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
		case "PK":
			t.PrimaryKey = &schema.PrimaryKey{Name: name, Columns: kc.columns}
		case "UQ":
			t.Uniques = append(t.Uniques, schema.Unique{Name: name, Columns: kc.columns})
		}
	}
	return nil
}

func (p *Provider) readForeignKeys(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT fk.name, rs.name, rt.name, pc.name, rc.name,
		       fk.delete_referential_action_desc, fk.update_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.tables tb ON fk.parent_object_id = tb.object_id
		JOIN sys.schemas s ON tb.schema_id = s.schema_id
		JOIN sys.tables rt ON fk.referenced_object_id = rt.object_id
		JOIN sys.schemas rs ON rt.schema_id = rs.schema_id
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc
		  ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.columns rc
		  ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE s.name = @p1 AND tb.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id`,
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
				OnDelete:  refAction(onDelete),
				OnUpdate:  refAction(onUpdate),
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

// refAction maps the sys.foreign_keys action descriptions, which use
// underscores, back to the model spelling.
func refAction(desc string) schema.RefAction {
	return schema.RefAction(strings.ReplaceAll(desc, "_", " "))
}

func (p *Provider) readChecksAndDefaults(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT cc.name, cc.definition
		FROM sys.check_constraints cc
		JOIN sys.tables tb ON cc.parent_object_id = tb.object_id
		JOIN sys.schemas s ON tb.schema_id = s.schema_id
		WHERE s.name = @p1 AND tb.name = @p2
		ORDER BY cc.name`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	for rows.Next() {
		var name, definition string
		if err := rows.Scan(&name, &definition); err != nil {
			rows.Close()
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		t.Checks = append(t.Checks, schema.Check{Name: name, Expression: stripParens(definition)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return dialect.WrapError(p.ID(), "get_table", err)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `
		SELECT dc.name, c.name, dc.definition
		FROM sys.default_constraints dc
		JOIN sys.tables tb ON dc.parent_object_id = tb.object_id
		JOIN sys.schemas s ON tb.schema_id = s.schema_id
		JOIN sys.columns c
		  ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id
		WHERE s.name = @p1 AND tb.name = @p2
		ORDER BY dc.name`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()
	for rows.Next() {
		var name, column, definition string
		if err := rows.Scan(&name, &column, &definition); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		t.Defaults = append(t.Defaults, schema.Default{Name: name, Column: column, Expression: stripParens(definition)})
	}
	return rows.Err()
}

// readIndexes loads secondary indexes, skipping the ones that back key
// constraints.
func (p *Provider) readIndexes(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT i.name, i.is_unique, c.name, ic.is_descending_key
		FROM sys.indexes i
		JOIN sys.tables tb ON i.object_id = tb.object_id
		JOIN sys.schemas s ON tb.schema_id = s.schema_id
		JOIN sys.index_columns ic
		  ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c
		  ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE s.name = @p1 AND tb.name = @p2
		  AND i.is_primary_key = 0 AND i.is_unique_constraint = 0
		  AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.Index{}

	for rows.Next() {
		var (
			name, column   string
			unique, isDesc bool
		)
		if err := rows.Scan(&name, &unique, &column, &isDesc); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{Name: name, Unique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, schema.IndexColumn{Name: column, Desc: isDesc})
	}
	if err := rows.Err(); err != nil {
		return dialect.WrapError(p.ID(), "get_table", err)
	}

	for _, name := range order {
		t.Indexes = append(t.Indexes, *byName[name])
	}
	return nil
}

// ListTables returns all tables whose name matches the LIKE pattern. An
// empty pattern lists everything.
func (p *Provider) ListTables(ctx context.Context, db *sql.DB, pattern string) ([]schema.Table, error) {
	if pattern == "" {
		pattern = "%"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT s.name, t.name
		FROM sys.tables t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE t.name LIKE @p1
		ORDER BY s.name, t.name`,
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

// ColumnExists checks sys.columns for the column.
func (p *Provider) ColumnExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, column string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sys.columns c
		JOIN sys.tables t ON c.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE s.name = @p1 AND t.name = @p2 AND c.name = @p3`,
		p.schemaOrDefault(ref.Schema), ref.Name, column).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "column_exists", err).WithContext("column", column)
	}
	return n > 0, nil
}

// IndexExists checks sys.indexes for the index on the table.
func (p *Provider) IndexExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sys.indexes i
		JOIN sys.tables t ON i.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE s.name = @p1 AND t.name = @p2 AND i.name = @p3`,
		p.schemaOrDefault(ref.Schema), ref.Name, name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "index_exists", err).WithContext("index", name)
	}
	return n > 0, nil
}

// ConstraintExists checks sys.objects for any constraint object with the
// name on the table. The object type covers key, check, default and
// foreign key constraints.
func (p *Provider) ConstraintExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sys.objects o
		JOIN sys.tables t ON o.parent_object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		WHERE s.name = @p1 AND t.name = @p2 AND o.name = @p3
		  AND o.type IN ('PK', 'UQ', 'F', 'C', 'D')`,
		p.schemaOrDefault(ref.Schema), ref.Name, name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "constraint_exists", err).WithContext("constraint", name)
	}
	return n > 0, nil
}

// ViewExists checks sys.views for the view.
func (p *Provider) ViewExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sys.views v
		JOIN sys.schemas s ON v.schema_id = s.schema_id
		WHERE s.name = @p1 AND v.name = @p2`,
		p.schemaOrDefault(ref.Schema), ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "view_exists", err).WithContext("view", ref.Name)
	}
	return n > 0, nil
}

// GetView reads the view definition from sys.sql_modules. The stored text
// is the full CREATE VIEW statement; the SELECT body is extracted from it.
func (p *Provider) GetView(ctx context.Context, db *sql.DB, ref dialect.TableRef) (*schema.View, error) {
	var definition string
	err := db.QueryRowContext(ctx, `
		SELECT m.definition
		FROM sys.views v
		JOIN sys.schemas s ON v.schema_id = s.schema_id
		JOIN sys.sql_modules m ON m.object_id = v.object_id
		WHERE s.name = @p1 AND v.name = @p2`,
		p.schemaOrDefault(ref.Schema), ref.Name).Scan(&definition)
	if err == sql.ErrNoRows {
		return nil, dialect.NewDatabaseError(p.ID(), "get_view", dialect.ErrObjectNotFound).WithContext("view", ref.Name)
	}
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "get_view", err).WithContext("view", ref.Name)
	}
	return &schema.View{
		Name:       ref.Name,
		Schema:     p.schemaOrDefault(ref.Schema),
		Definition: viewBody(definition),
	}, nil
}

// viewBody strips the CREATE VIEW ... AS prefix, leaving the SELECT.
func viewBody(definition string) string {
	upper := strings.ToUpper(definition)
	idx := strings.Index(upper, " AS ")
	if idx < 0 {
		idx = strings.Index(upper, " AS\n")
	}
	if idx < 0 {
		return strings.TrimSpace(definition)
	}
	return strings.TrimSpace(definition[idx+4:])
}
