// Package resolver maps a connection string to a dialect and a concrete
// driver without touching the network. Two dialects have competing
// drivers: postgres (pgx preferred, lib/pq on request) and sqlite
// (modernc preferred, mattn on request). Resolution runs in a fixed
// order: an explicit Provider token wins, then driver-exclusive
// keywords, then a best-effort parse with each candidate's own DSN
// parser. A string nothing claims is ambiguous, not guessed at.
package resolver

import (
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
)

// Driver names as registered with database/sql.
const (
	DriverPgx       = "pgx"
	DriverPq        = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
	DriverModernc   = "sqlite"
	DriverMattn     = "sqlite3"
)

// Resolution is the outcome of resolving a connection string.
type Resolution struct {
	Family dbcap.ID
	Driver string
	// DSN is the connection string with the Provider token stripped.
	DSN string
}

// candidate is one driver the resolver can pick. Order in the candidates
// table is the preference order.
type candidate struct {
	family dbcap.ID
	driver string
	// names accepted in the Provider token for this candidate.
	names []string
	// exclusive keywords only this driver's DSN syntax uses.
	exclusive []string
	// claims reports whether the candidate's parser accepts the DSN.
	claims func(dsn string) bool
}

var candidates = []candidate{
	{
		family:    dbcap.PostgreSQL,
		driver:    DriverPgx,
		names:     []string{"pgx", "pgx/v5"},
		exclusive: []string{"pool_max_conns", "pool_min_conns", "default_query_exec_mode"},
		claims:    claimsPostgres,
	},
	{
		family:    dbcap.PostgreSQL,
		driver:    DriverPq,
		names:     []string{"pq", "libpq", "lib/pq"},
		exclusive: []string{"binary_parameters", "disable_prepared_binary_result"},
		claims:    claimsPostgres,
	},
	{
		family: dbcap.MySQL,
		driver: DriverMySQL,
		names:  []string{"mysql", "mariadb", "go-sql-driver"},
		claims: claimsMySQL,
	},
	{
		family: dbcap.SQLServer,
		driver: DriverSQLServer,
		names:  []string{"sqlserver", "mssql", "go-mssqldb"},
		claims: claimsSQLServer,
	},
	{
		family:    dbcap.SQLite,
		driver:    DriverModernc,
		names:     []string{"modernc", "modernc.org/sqlite"},
		exclusive: []string{"_pragma"},
		claims:    claimsSQLitePath,
	},
	{
		family:    dbcap.SQLite,
		driver:    DriverMattn,
		names:     []string{"mattn", "go-sqlite3", "sqlite3"},
		exclusive: []string{"_busy_timeout", "_foreign_keys", "_journal_mode", "_loc", "_txlock"},
		claims:    claimsSQLitePath,
	},
}

// Resolve determines the dialect family and driver for a connection
// string. It never opens a connection.
func Resolve(connStr string) (Resolution, error) {
	dsn, providerName := extractProvider(connStr)

	if providerName != "" {
		if c, ok := byProviderName(providerName); ok {
			return Resolution{Family: c.family, Driver: c.driver, DSN: dsn}, nil
		}
		return Resolution{}, dialect.NewDatabaseError("", "resolve", dialect.ErrAmbiguousConnectionString).
			WithContext("provider", providerName)
	}

	if c, ok := byExclusiveKeyword(dsn); ok {
		return Resolution{Family: c.family, Driver: c.driver, DSN: dsn}, nil
	}

	for _, c := range candidates {
		if c.claims(dsn) {
			return Resolution{Family: c.family, Driver: c.driver, DSN: dsn}, nil
		}
	}

	return Resolution{}, dialect.NewDatabaseError("", "resolve", dialect.ErrAmbiguousConnectionString).
		WithContext("connection_string", redact(dsn))
}

// extractProvider strips a Provider=name token from a semicolon-separated
// connection string and returns the remainder plus the name.
func extractProvider(connStr string) (string, string) {
	parts := strings.Split(connStr, ";")
	kept := make([]string, 0, len(parts))
	provider := ""
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if eq := strings.Index(trimmed, "="); eq > 0 {
			if strings.EqualFold(strings.TrimSpace(trimmed[:eq]), "provider") {
				provider = strings.TrimSpace(trimmed[eq+1:])
				continue
			}
		}
		kept = append(kept, part)
	}
	if provider == "" {
		return connStr, ""
	}
	return strings.Join(kept, ";"), provider
}

// byProviderName matches a Provider token value against candidate driver
// names first, then against dialect names and aliases, picking the
// dialect's preferred candidate.
func byProviderName(name string) (candidate, bool) {
	for _, c := range candidates {
		for _, n := range c.names {
			if strings.EqualFold(n, name) {
				return c, true
			}
		}
	}
	if id, ok := dbcap.ParseID(name); ok {
		for _, c := range candidates {
			if c.family == id {
				return c, true
			}
		}
	}
	return candidate{}, false
}

func byExclusiveKeyword(dsn string) (candidate, bool) {
	lower := strings.ToLower(dsn)
	for _, c := range candidates {
		for _, kw := range c.exclusive {
			if strings.Contains(lower, kw+"=") {
				return c, true
			}
		}
	}
	return candidate{}, false
}

func hasScheme(dsn string, schemes ...string) bool {
	lower := strings.ToLower(dsn)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s+"://") {
			return true
		}
	}
	return false
}

// claimsPostgres accepts postgres URLs and keyword/value DSNs. The
// keyword form needs a recognizable key; bare words parse as nothing.
func claimsPostgres(dsn string) bool {
	if hasScheme(dsn, "postgres", "postgresql") {
		_, err := pgconn.ParseConfig(dsn)
		return err == nil
	}
	if !strings.Contains(dsn, "=") || strings.Contains(dsn, "://") {
		return false
	}
	lower := strings.ToLower(dsn)
	recognized := false
	for _, kw := range []string{"host=", "dbname=", "sslmode=", "user=", "port="} {
		if strings.Contains(lower, kw) {
			recognized = true
			break
		}
	}
	if !recognized {
		return false
	}
	_, err := pgconn.ParseConfig(dsn)
	return err == nil
}

// claimsMySQL accepts the go-sql-driver DSN form user:pass@net(addr)/db.
func claimsMySQL(dsn string) bool {
	if strings.Contains(dsn, "://") {
		return false
	}
	_, err := mysql.ParseDSN(dsn)
	return err == nil
}

// claimsSQLServer accepts sqlserver URLs and ADO-style semicolon strings.
func claimsSQLServer(dsn string) bool {
	if hasScheme(dsn, "sqlserver", "mssql") {
		_, err := msdsn.Parse(dsn)
		return err == nil
	}
	lower := strings.ToLower(dsn)
	if !strings.Contains(lower, "server=") && !strings.Contains(lower, "data source=") {
		return false
	}
	_, err := msdsn.Parse(dsn)
	return err == nil
}

// claimsSQLitePath accepts file: URIs, :memory:, and plain paths that
// look like or already are database files.
func claimsSQLitePath(dsn string) bool {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return false
	}
	if trimmed == ":memory:" || strings.HasPrefix(trimmed, "file:") {
		return true
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "=") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	if info, err := os.Stat(trimmed); err == nil && !info.IsDir() {
		return true
	}
	return false
}

// redact masks password values so connection strings can travel in error
// context.
func redact(dsn string) string {
	for _, kw := range []string{"password=", "pwd="} {
		i := strings.Index(strings.ToLower(dsn), kw)
		if i < 0 {
			continue
		}
		start := i + len(kw)
		end := start
		for end < len(dsn) && dsn[end] != ';' && dsn[end] != ' ' && dsn[end] != '&' {
			end++
		}
		dsn = dsn[:start] + "****" + dsn[end:]
	}
	return dsn
}
