// Package engine orchestrates schema operations against a live database:
// it resolves connections, dispatches to the dialect provider, enforces
// the authorization hook, and implements the ensure-state algorithm on
// top of the providers' idempotent primitives.
package engine

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/dialect/mssql"
	"github.com/schemaforge/schemaforge/pkg/dialect/mysql"
	"github.com/schemaforge/schemaforge/pkg/dialect/postgres"
	"github.com/schemaforge/schemaforge/pkg/dialect/sqlite"
	"github.com/schemaforge/schemaforge/pkg/logger"
	"github.com/schemaforge/schemaforge/pkg/resolver"
	"github.com/schemaforge/schemaforge/pkg/typemap"
)

// OperationContext describes one engine operation for the authorization
// hook. Operation names follow the object/verb convention, e.g.
// "tables/create" or "views/drop".
type OperationContext struct {
	Operation string
	Dialect   dbcap.ID
	Object    string
	RequestID string
}

// AuthorizeFunc decides whether an operation may proceed. A nil hook
// allows everything.
type AuthorizeFunc func(ctx context.Context, op OperationContext) bool

// GenerateIDFunc produces a request identifier for an operation. The
// default generates UUIDs.
type GenerateIDFunc func(operation string) string

// Options configures an Engine. Zero fields get working defaults.
type Options struct {
	Providers  *dialect.Registry
	Types      *typemap.Registries
	Resolver   *resolver.Resolver
	Logger     *logger.Logger
	Authorize  AuthorizeFunc
	GenerateID GenerateIDFunc
}

// Engine is the entry point for schema operations. Construct one per
// process with New and share it; it is safe for concurrent use once
// constructed.
type Engine struct {
	providers  *dialect.Registry
	types      *typemap.Registries
	resolver   *resolver.Resolver
	log        *logger.Logger
	authorize  AuthorizeFunc
	generateID GenerateIDFunc
}

// New creates an Engine. Missing options default to the builtin provider
// registry, builtin type registries, a fresh resolver, no logging, an
// allow-all authorizer, and UUID request IDs.
func New(opts Options) *Engine {
	e := &Engine{
		providers:  opts.Providers,
		types:      opts.Types,
		resolver:   opts.Resolver,
		log:        opts.Logger,
		authorize:  opts.Authorize,
		generateID: opts.GenerateID,
	}
	if e.types == nil {
		e.types = typemap.NewRegistries()
	}
	if e.providers == nil {
		e.providers = DefaultProviders(e.types)
	}
	if e.resolver == nil {
		e.resolver = resolver.New()
	}
	if e.authorize == nil {
		e.authorize = func(context.Context, OperationContext) bool { return true }
	}
	if e.generateID == nil {
		e.generateID = func(string) string { return uuid.NewString() }
	}
	return e
}

// DefaultProviders builds a registry holding all four builtin providers,
// each wired to the matching type registry.
func DefaultProviders(types *typemap.Registries) *dialect.Registry {
	r := dialect.NewRegistry()
	r.Register(mssql.New(types.For(dbcap.SQLServer)))
	r.Register(mysql.New(types.For(dbcap.MySQL)))
	r.Register(postgres.New(types.For(dbcap.PostgreSQL)))
	r.Register(sqlite.New(types.For(dbcap.SQLite)))
	return r
}

// Conn scopes engine operations to one database handle and its provider.
type Conn struct {
	engine   *Engine
	db       *sql.DB
	provider dialect.Provider
	res      resolver.Resolution
	ownsDB   bool
}

// Open resolves the connection string, opens a handle with the chosen
// driver and binds the matching provider. No network traffic happens
// until the first operation runs.
func (e *Engine) Open(connStr string) (*Conn, error) {
	db, res, err := e.resolver.Open("", connStr)
	if err != nil {
		return nil, err
	}
	p, err := e.providers.Get(res.Family)
	if err != nil {
		db.Close()
		return nil, err
	}
	e.log.Debugf("opened %s connection via driver %s", res.Family, res.Driver)
	return &Conn{engine: e, db: db, provider: p, res: res, ownsDB: true}, nil
}

// Wrap binds a caller-supplied handle to the provider for the dialect.
// Close leaves the handle open; its lifecycle stays with the caller.
func (e *Engine) Wrap(db *sql.DB, id dbcap.ID) (*Conn, error) {
	p, err := e.providers.Get(id)
	if err != nil {
		return nil, err
	}
	return &Conn{engine: e, db: db, provider: p}, nil
}

// Close releases the handle if the connection owns it.
func (c *Conn) Close() error {
	if !c.ownsDB || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the underlying handle.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Provider exposes the bound dialect provider.
func (c *Conn) Provider() dialect.Provider {
	return c.provider
}

// Resolution reports how the connection string was resolved; zero for
// wrapped handles.
func (c *Conn) Resolution() resolver.Resolution {
	return c.res
}

// guard runs the authorization hook and logs the operation. The returned
// error is ErrNotAuthorized wrapped with operation context.
func (c *Conn) guard(ctx context.Context, operation, object string) error {
	op := OperationContext{
		Operation: operation,
		Dialect:   c.provider.ID(),
		Object:    object,
		RequestID: c.engine.generateID(operation),
	}
	if !c.engine.authorize(ctx, op) {
		c.engine.log.Warnf("denied %s on %s (request %s)", operation, object, op.RequestID)
		return dialect.NewDatabaseError(c.provider.ID(), operation, dialect.ErrNotAuthorized).
			WithContext("object", object).
			WithContext("request_id", op.RequestID)
	}
	c.engine.log.Debugf("%s %s (request %s)", operation, object, op.RequestID)
	return nil
}
