package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// TableExists checks sqlite_master for the table.
func (p *Provider) TableExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "table_exists", err).WithContext("table", ref.Name)
	}
	return n > 0, nil
}

// GetTable reads the full table description through the PRAGMA table
// functions plus the stored CREATE TABLE text. The catalog does not keep
// constraint names for keys and foreign keys; those come back unnamed and
// pick up their deterministic names on demand.
func (p *Provider) GetTable(ctx context.Context, db *sql.DB, ref dialect.TableRef) (*schema.Table, error) {
	exists, err := p.TableExists(ctx, db, ref)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dialect.NewDatabaseError(p.ID(), "get_table", dialect.ErrObjectNotFound).WithContext("table", ref.Name)
	}

	var createSQL string
	err = db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`,
		ref.Name).Scan(&createSQL)
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", ref.Name)
	}

	t := &schema.Table{Name: ref.Name}

	if err := p.readColumns(ctx, db, t, createSQL); err != nil {
		return nil, err
	}
	if err := p.readIndexes(ctx, db, t); err != nil {
		return nil, err
	}
	if err := p.readForeignKeys(ctx, db, t); err != nil {
		return nil, err
	}
	t.Checks = parseChecks(createSQL)
	return t, nil
}

// parseDeclaredType splits a declared column type like VARCHAR(255) or
// NUMERIC(18,2) into a SQL type descriptor.
func parseDeclaredType(declared string) schema.SQLTypeDescriptor {
	declared = strings.TrimSpace(declared)
	open := strings.Index(declared, "(")
	if open < 0 || !strings.HasSuffix(declared, ")") {
		return schema.SQLTypeDescriptor{TypeName: strings.ToLower(declared)}
	}

	out := schema.SQLTypeDescriptor{TypeName: strings.ToLower(strings.TrimSpace(declared[:open]))}
	facets := declared[open+1 : len(declared)-1]
	parts := strings.Split(facets, ",")
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return out
	}
	if len(parts) == 1 {
		out.Length = schema.IntPtr(first)
		return out
	}
	second, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return out
	}
	out.Precision = schema.IntPtr(first)
	out.Scale = schema.IntPtr(second)
	return out
}

func (p *Provider) readColumns(ctx context.Context, db *sql.DB, t *schema.Table, createSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+p.Quote(t.Name)+")")
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	hasAutoincrement := strings.Contains(strings.ToUpper(createSQL), "AUTOINCREMENT")

	type pkColumn struct {
		name string
		ord  int
	}
	var pkColumns []pkColumn

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, declared   string
			defaultValue     sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &defaultValue, &pk); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}

		sqlType := parseDeclaredType(declared)
		hostType, ok := p.types.ToHost(sqlType)
		if !ok {
			hostType = schema.TypeDescriptor{Name: strings.ToLower(declared)}
		}

		col := schema.Column{
			Name:     name,
			Type:     hostType,
			Nullable: notNull == 0 && pk == 0,
		}
		if defaultValue.Valid {
			col.Default = schema.StringPtr(defaultValue.String)
		}
		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{name: name, ord: pk})
			if hasAutoincrement && strings.EqualFold(sqlType.TypeName, "integer") {
				col.AutoIncrement = true
			}
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return dialect.WrapError(p.ID(), "get_table", err)
	}

	if len(pkColumns) > 0 {
		for i := 0; i < len(pkColumns); i++ {
			for j := i + 1; j < len(pkColumns); j++ {
				if pkColumns[j].ord < pkColumns[i].ord {
					pkColumns[i], pkColumns[j] = pkColumns[j], pkColumns[i]
				}
			}
		}
		pk := &schema.PrimaryKey{}
		for _, c := range pkColumns {
			pk.Columns = append(pk.Columns, c.name)
		}
		t.PrimaryKey = pk
	}
	return nil
}

// readIndexes loads unique constraints and secondary indexes from the
// index list. Auto-created indexes back inline unique constraints; the
// rest are real indexes.
func (p *Provider) readIndexes(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, "PRAGMA index_list("+p.Quote(t.Name)+")")
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}

	type indexEntry struct {
		name   string
		unique bool
		origin string
	}
	var entries []indexEntry
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1, origin: origin})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return dialect.WrapError(p.ID(), "get_table", err)
	}
	rows.Close()

	for _, e := range entries {
		if e.origin == "pk" {
			continue
		}
		columns, err := p.indexColumns(ctx, db, e.name)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			continue
		}
		if e.origin == "u" {
			u := schema.Unique{}
			for _, ic := range columns {
				u.Columns = append(u.Columns, ic.Name)
			}
			t.Uniques = append(t.Uniques, u)
			continue
		}
		t.Indexes = append(t.Indexes, schema.Index{Name: e.name, Columns: columns, Unique: e.unique})
	}
	return nil
}

// indexColumns reads the key columns of an index, expression and rowid
// entries excluded.
func (p *Provider) indexColumns(ctx context.Context, db *sql.DB, name string) ([]schema.IndexColumn, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA index_xinfo("+p.Quote(name)+")")
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("index", name)
	}
	defer rows.Close()

	var columns []schema.IndexColumn
	for rows.Next() {
		var (
			seqno, cid, desc, key int
			colName               sql.NullString
			coll                  string
		)
		if err := rows.Scan(&seqno, &cid, &colName, &desc, &coll, &key); err != nil {
			return nil, dialect.WrapError(p.ID(), "get_table", err)
		}
		if key == 0 || !colName.Valid {
			continue
		}
		columns = append(columns, schema.IndexColumn{Name: colName.String, Desc: desc == 1})
	}
	return columns, rows.Err()
}

func (p *Provider) readForeignKeys(ctx context.Context, db *sql.DB, t *schema.Table) error {
	rows, err := db.QueryContext(ctx, "PRAGMA foreign_key_list("+p.Quote(t.Name)+")")
	if err != nil {
		return dialect.NewDatabaseError(p.ID(), "get_table", err).WithContext("table", t.Name)
	}
	defer rows.Close()

	order := []int{}
	byID := map[int]*schema.ForeignKey{}

	for rows.Next() {
		var (
			id, seq                            int
			refTable, from, onUpdate, onDelete string
			to                                 sql.NullString
			match                              string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return dialect.WrapError(p.ID(), "get_table", err)
		}
		fk, ok := byID[id]
		if !ok {
			fk = &schema.ForeignKey{
				RefTable: refTable,
				OnDelete: schema.RefAction(onDelete),
				OnUpdate: schema.RefAction(onUpdate),
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		refColumn := from
		if to.Valid {
			refColumn = to.String
		}
		fk.RefColumns = append(fk.RefColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return dialect.WrapError(p.ID(), "get_table", err)
	}

	// foreign_key_list reports the most recently declared key first.
	for i := len(order) - 1; i >= 0; i-- {
		t.ForeignKeys = append(t.ForeignKeys, *byID[order[i]])
	}
	return nil
}

// parseChecks extracts named check constraints from the stored CREATE
// TABLE text; the catalog exposes them nowhere else.
func parseChecks(createSQL string) []schema.Check {
	var checks []schema.Check
	upper := strings.ToUpper(createSQL)
	pos := 0
	for {
		i := strings.Index(upper[pos:], "CONSTRAINT")
		if i < 0 {
			break
		}
		i += pos
		rest := createSQL[i+len("CONSTRAINT"):]
		name, after := takeIdentifier(rest)
		afterUpper := strings.ToUpper(strings.TrimSpace(after))
		if name == "" || !strings.HasPrefix(afterUpper, "CHECK") {
			pos = i + len("CONSTRAINT")
			continue
		}
		body := strings.TrimSpace(after)[len("CHECK"):]
		expr, ok := takeParenthesized(body)
		if ok {
			checks = append(checks, schema.Check{Name: name, Expression: expr})
		}
		pos = i + len("CONSTRAINT")
	}
	return checks
}

// takeIdentifier reads one possibly quoted identifier from the front of s.
func takeIdentifier(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if s[0] == '"' || s[0] == '`' || s[0] == '[' {
		closer := s[0]
		if closer == '[' {
			closer = ']'
		}
		end := strings.IndexByte(s[1:], closer)
		if end < 0 {
			return "", ""
		}
		return s[1 : end+1], s[end+2:]
	}
	end := strings.IndexAny(s, " \t\r\n(")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// takeParenthesized reads a balanced parenthesized group from the front of
// s and returns its inner text.
func takeParenthesized(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return "", false
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[1:i]), true
			}
		}
	}
	return "", false
}

// ListTables returns all user tables whose name matches the LIKE pattern.
// An empty pattern lists everything.
func (p *Provider) ListTables(ctx context.Context, db *sql.DB, pattern string) ([]schema.Table, error) {
	if pattern == "" {
		pattern = "%"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name LIKE ?
		ORDER BY name`,
		pattern)
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "list_tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dialect.WrapError(p.ID(), "list_tables", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, dialect.WrapError(p.ID(), "list_tables", err)
	}

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		t, err := p.GetTable(ctx, db, dialect.TableRef{Name: name})
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

// ColumnExists walks the PRAGMA column list for the column.
func (p *Provider) ColumnExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+p.Quote(ref.Name)+")")
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "column_exists", err).WithContext("column", column)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, declared   string
			defaultValue     sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &defaultValue, &pk); err != nil {
			return false, dialect.WrapError(p.ID(), "column_exists", err)
		}
		if schema.NamesEqual(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// IndexExists checks sqlite_master for the index on the table.
func (p *Provider) IndexExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name = ?`,
		ref.Name, name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "index_exists", err).WithContext("index", name)
	}
	return n > 0, nil
}

// ConstraintExists reports whether the table carries a constraint with the
// name. The catalog stores no key or foreign key names, so the check runs
// against the introspected model and its deterministic names.
func (p *Provider) ConstraintExists(ctx context.Context, db *sql.DB, ref dialect.TableRef, name string) (bool, error) {
	t, err := p.GetTable(ctx, db, ref)
	if err != nil {
		return false, err
	}
	return constraintNamed(t, name), nil
}

// ViewExists checks sqlite_master for the view.
func (p *Provider) ViewExists(ctx context.Context, db *sql.DB, ref dialect.TableRef) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'view' AND name = ?`,
		ref.Name).Scan(&n)
	if err != nil {
		return false, dialect.NewDatabaseError(p.ID(), "view_exists", err).WithContext("view", ref.Name)
	}
	return n > 0, nil
}

// GetView reads the stored CREATE VIEW text and extracts the SELECT body.
func (p *Provider) GetView(ctx context.Context, db *sql.DB, ref dialect.TableRef) (*schema.View, error) {
	var createSQL string
	err := db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'view' AND name = ?`,
		ref.Name).Scan(&createSQL)
	if err == sql.ErrNoRows {
		return nil, dialect.NewDatabaseError(p.ID(), "get_view", dialect.ErrObjectNotFound).WithContext("view", ref.Name)
	}
	if err != nil {
		return nil, dialect.NewDatabaseError(p.ID(), "get_view", err).WithContext("view", ref.Name)
	}

	definition := createSQL
	upper := strings.ToUpper(createSQL)
	if i := strings.Index(upper, " AS "); i >= 0 {
		definition = createSQL[i+4:]
	}
	return &schema.View{Name: ref.Name, Definition: strings.TrimSpace(definition)}, nil
}
