package resolver

import (
	"database/sql"

	"github.com/schemaforge/schemaforge/pkg/dialect"
)

// Resolver resolves connection strings against the candidate table. The
// zero value is ready to use; a providerKey passed to Resolve outranks
// everything in the string itself.
type Resolver struct{}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve determines the dialect family and driver. A non-empty
// providerKey is treated like a Provider token and wins over the string's
// own contents.
func (r *Resolver) Resolve(providerKey, connStr string) (Resolution, error) {
	if providerKey != "" {
		dsn, _ := extractProvider(connStr)
		if c, ok := byProviderName(providerKey); ok {
			return Resolution{Family: c.family, Driver: c.driver, DSN: dsn}, nil
		}
		return Resolution{}, dialect.NewDatabaseError("", "resolve", dialect.ErrAmbiguousConnectionString).
			WithContext("provider", providerKey)
	}
	return Resolve(connStr)
}

// Open resolves the connection string and opens a database handle with
// the chosen driver. sql.Open validates lazily, so no network traffic
// happens here; the first statement establishes the connection.
func (r *Resolver) Open(providerKey, connStr string) (*sql.DB, Resolution, error) {
	res, err := r.Resolve(providerKey, connStr)
	if err != nil {
		return nil, Resolution{}, err
	}
	db, err := sql.Open(res.Driver, res.DSN)
	if err != nil {
		return nil, Resolution{}, dialect.NewDatabaseError(res.Family, "open", err).WithContext("driver", res.Driver)
	}
	return db, res, nil
}

// Open resolves and opens with the default Resolver.
func Open(connStr string) (*sql.DB, Resolution, error) {
	return New().Open("", connStr)
}
