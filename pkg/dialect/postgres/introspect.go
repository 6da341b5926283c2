package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// TableExists checks information_schema.tables for the table.
func (p *Provider) TableExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE'`,
		p.schemaOrDefault(ref.Schema), ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "table_exists", err).WithContext("table", ref.Name)
	}
	return n > 0, nil
}

// GetTable reads the full table description. Columns and key constraints
// come from information_schema; foreign keys, checks and indexes need
// pg_catalog for ordered multi-column support.
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
		SELECT column_name, data_type, udt_name,
		       character_maximum_length, numeric_precision, numeric_scale,
		       is_nullable, is_identity, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, dataType, udtName, isNullable, isIdentity string
			charLength, precision, scale                    sql.NullInt64
			columnDefault                                   sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &udtName, &charLength, &precision, &scale, &isNullable, &isIdentity, &columnDefault); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}

		// Arrays report data_type ARRAY; the element lives in udt_name
		// with a leading underscore.
		typeName := dataType
		if dataType == "ARRAY" {
			typeName = udtName
		}
		sqlType := schema.SQLTypeDescriptor{TypeName: typeName}
		if charLength.Valid {
			sqlType.Length = schema.IntPtr(int(charLength.Int64))
		}
		if strings.EqualFold(dataType, "numeric") {
			if precision.Valid {
				sqlType.Precision = schema.IntPtr(int(precision.Int64))
			}
			if scale.Valid {
				sqlType.Scale = schema.IntPtr(int(scale.Int64))
			}
		}

		hostType, ok := p.types.ToHost(sqlType)
		if !ok {
			hostType = schema.TypeDescriptor{Name: typeName}
		}

		serial := columnDefault.Valid && strings.HasPrefix(columnDefault.String, "nextval(")
		col := schema.Column{
			Name:          name,
			Type:          hostType,
			Nullable:      strings.EqualFold(isNullable, "YES"),
			AutoIncrement: strings.EqualFold(isIdentity, "YES") || serial,
		}
		if columnDefault.Valid && !serial {
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
		WHERE tc.table_schema = $1 AND tc.table_name = $2
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

// referentialAction maps pg_constraint action codes to the model spelling.
func referentialAction(code string) schema.RefAction {
	switch code {
	case "r":
		return schema.Restrict
	case "c":
		return schema.Cascade
	case "n":
		return schema.SetNull
	case "d":
		return schema.SetDefault
	}
	return schema.NoAction
}

func (p *Provider) readForeignKeys(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT con.conname, rns.nspname, rcl.relname,
		       att.attname, ratt.attname, con.confdeltype, con.confupdtype
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON cl.oid = con.conrelid
		JOIN pg_catalog.pg_namespace ns ON ns.oid = cl.relnamespace
		JOIN pg_catalog.pg_class rcl ON rcl.oid = con.confrelid
		JOIN pg_catalog.pg_namespace rns ON rns.oid = rcl.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, rattnum, ord)
		JOIN pg_catalog.pg_attribute att
		  ON att.attrelid = con.conrelid AND att.attnum = k.attnum
		JOIN pg_catalog.pg_attribute ratt
		  ON ratt.attrelid = con.confrelid AND ratt.attnum = k.rattnum
		WHERE con.contype = 'f' AND ns.nspname = $1 AND cl.relname = $2
		ORDER BY con.conname, k.ord`,
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
				OnDelete:  referentialAction(onDelete),
				OnUpdate:  referentialAction(onUpdate),
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

// readChecks loads check constraints from pg_constraint;
// information_schema also lists the implicit not-null checks, which are
// not wanted here.
func (p *Provider) readChecks(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT con.conname, pg_get_constraintdef(con.oid)
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON cl.oid = con.conrelid
		JOIN pg_catalog.pg_namespace ns ON ns.oid = cl.relnamespace
		WHERE con.contype = 'c' AND ns.nspname = $1 AND cl.relname = $2
		ORDER BY con.conname`,
		t.Schema, t.Name)
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	for rows.Next() {
		var name, definition string
		if err := rows.Scan(&name, &definition); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		t.Checks = append(t.Checks, schema.Check{Name: name, Expression: checkExpression(definition)})
	}
	return rows.Err()
}

// checkExpression strips the CHECK (...) wrapper pg_get_constraintdef
// renders around the expression.
func checkExpression(definition string) string {
	s := strings.TrimSpace(definition)
	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "CHECK") {
		s = strings.TrimSpace(s[len("CHECK"):])
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// readIndexes loads secondary indexes, skipping the ones backing
// constraints.
func (p *Provider) readIndexes(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT ic.relname, ix.indisunique, att.attname,
		       (ix.indoption[k.ord - 1] & 1) = 1
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_catalog.pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_catalog.pg_namespace ns ON ns.oid = tc.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_catalog.pg_attribute att
		  ON att.attrelid = ix.indrelid AND att.attnum = k.attnum
		WHERE ns.nspname = $1 AND tc.relname = $2
		  AND NOT ix.indisprimary
		  AND NOT EXISTS (
		        SELECT 1 FROM pg_catalog.pg_constraint c
		        WHERE c.conindid = ix.indexrelid)
		ORDER BY ic.relname, k.ord`,
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

// ListTables returns all tables in the default schema whose name matches
// the LIKE pattern. An empty pattern lists everything.
func (p *Provider) ListTables(ctx context.Context, db *sql.DB, pattern string) ([]schema.Table, error) {
	if pattern == "" {
		pattern = "%"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE' AND table_name LIKE $2
		ORDER BY table_name`,
		p.schemaOrDefault(""), pattern)
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
		WHERE table_schema = $1 AND table_name = $2 AND column_name = $3`,
		p.schemaOrDefault(ref.Schema), ref.Name, column).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "column_exists", err).WithContext("column", column)
	}
	return n > 0, nil
}

// IndexExists checks pg_indexes for the index on the table.
func (p *Provider) IndexExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM pg_catalog.pg_indexes
		WHERE schemaname = $1 AND tablename = $2 AND indexname = $3`,
		p.schemaOrDefault(ref.Schema), ref.Name, name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "index_exists", err).WithContext("index", name)
	}
	return n > 0, nil
}

// ConstraintExists checks pg_constraint for any constraint with the name
// on the table.
func (p *Provider) ConstraintExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON cl.oid = con.conrelid
		JOIN pg_catalog.pg_namespace ns ON ns.oid = cl.relnamespace
		WHERE ns.nspname = $1 AND cl.relname = $2 AND con.conname = $3`,
		p.schemaOrDefault(ref.Schema), ref.Name, name).Scan(&n)
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
		WHERE table_schema = $1 AND table_name = $2`,
		p.schemaOrDefault(ref.Schema), ref.Name).Scan(&n)
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
		WHERE table_schema = $1 AND table_name = $2`,
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
		Definition: strings.TrimSuffix(strings.TrimSpace(definition), ";"),
	}, nil
}
