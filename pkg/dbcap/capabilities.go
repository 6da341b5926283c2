// Package dbcap describes the SQL dialects supported by schemaforge and the
// capability metadata the rest of the engine keys decisions on.
package dbcap

import "strings"

// ID is the canonical identifier for a supported SQL dialect.
type ID string

const (
	SQLServer  ID = "mssql"
	MySQL      ID = "mysql"
	PostgreSQL ID = "postgres"
	SQLite     ID = "sqlite"
)

// QuoteStyle enumerates the identifier quoting conventions of the dialects.
type QuoteStyle string

const (
	QuoteBracket     QuoteStyle = "bracket"     // [name]
	QuoteBacktick    QuoteStyle = "backtick"    // `name`
	QuoteDoubleQuote QuoteStyle = "doublequote" // "name"
)

// Capability describes what a dialect supports in a way the engine and the
// providers can consume uniformly.
type Capability struct {
	// Human-friendly product name, e.g. "Microsoft SQL Server".
	Name string `json:"name"`

	// Canonical ID used across the codebase, e.g. "mssql".
	ID ID `json:"id"`

	// Default TCP port, 0 for file-based databases.
	DefaultPort int `json:"defaultPort"`

	// Identifier quoting convention.
	Quote QuoteStyle `json:"quote"`

	// Whether DDL statements participate in transactions.
	TransactionalDDL bool `json:"transactionalDDL"`

	// Whether CREATE TABLE IF NOT EXISTS / DROP ... IF EXISTS are native
	// syntax. SQL Server emulates both with catalog checks.
	NativeIfNotExists bool `json:"nativeIfNotExists"`

	// Whether column constraints must be rendered inline in CREATE TABLE
	// because the dialect lacks the corresponding ALTER forms.
	InlineConstraintsOnly bool `json:"inlineConstraintsOnly"`

	// Default schema objects live in when the caller names none.
	DefaultSchema string `json:"defaultSchema,omitempty"`

	// Common aliases (driver names, env labels, provider keys) that map to
	// this dialect.
	Aliases []string `json:"aliases,omitempty"`
}

// All is the capability registry keyed by canonical dialect ID.
var All = map[ID]Capability{
	SQLServer: {
		Name:              "Microsoft SQL Server",
		ID:                SQLServer,
		DefaultPort:       1433,
		Quote:             QuoteBracket,
		TransactionalDDL:  true,
		NativeIfNotExists: false,
		DefaultSchema:     "dbo",
		Aliases:           []string{"sqlserver", "azure-sql", "sqlclient"},
	},
	MySQL: {
		Name:              "MySQL",
		ID:                MySQL,
		DefaultPort:       3306,
		Quote:             QuoteBacktick,
		TransactionalDDL:  false,
		NativeIfNotExists: true,
		Aliases:           []string{"mariadb", "aurora-mysql", "mysqlconnector"},
	},
	PostgreSQL: {
		Name:              "PostgreSQL",
		ID:                PostgreSQL,
		DefaultPort:       5432,
		Quote:             QuoteDoubleQuote,
		TransactionalDDL:  true,
		NativeIfNotExists: true,
		DefaultSchema:     "public",
		Aliases:           []string{"postgresql", "pgsql", "npgsql"},
	},
	SQLite: {
		Name:                  "SQLite",
		ID:                    SQLite,
		DefaultPort:           0,
		Quote:                 QuoteDoubleQuote,
		TransactionalDDL:      true,
		NativeIfNotExists:     true,
		InlineConstraintsOnly: true,
		Aliases:               []string{"sqlite3"},
	},
}

// Get returns the capability entry for a dialect ID.
func Get(id ID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns the capability entry for a dialect ID and panics if the
// dialect is unknown. Use only with the package constants.
func MustGet(id ID) Capability {
	c, ok := All[id]
	if !ok {
		panic("dbcap: unknown dialect " + string(id))
	}
	return c
}

// ParseID resolves a free-text provider key to a dialect ID. Matching is
// case-insensitive: exact ID match first, then alias match, then substring
// match against IDs, names and aliases so keys like "System.Data.SqlClient"
// or "MySqlConnector" resolve to their family.
func ParseID(key string) (ID, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return "", false
	}

	if _, ok := All[ID(k)]; ok {
		return ID(k), true
	}

	for id, c := range All {
		for _, alias := range c.Aliases {
			if k == alias {
				return id, true
			}
		}
	}

	for _, id := range IDs() {
		c := All[id]
		if strings.Contains(k, string(id)) || strings.Contains(k, strings.ToLower(c.Name)) {
			return id, true
		}
		for _, alias := range c.Aliases {
			if strings.Contains(k, alias) {
				return id, true
			}
		}
	}

	return "", false
}

// IDs returns the canonical dialect IDs in a stable order.
func IDs() []ID {
	return []ID{SQLServer, MySQL, PostgreSQL, SQLite}
}
