// Package backend maps a connection descriptor to a database.Adapter.
package backend

import (
	"sort"
	"strings"
	"sync"

	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/database/mysql"
	"github.com/koustreak/dbagent/internal/database/postgres"
	"github.com/koustreak/dbagent/internal/database/snowflake"
	"github.com/koustreak/dbagent/internal/database/sqlite"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
)

// Factory builds an adapter for a validated connection. Building an adapter
// never opens a connection.
type Factory interface {
	Adapter(conn *args.Connection) (database.Adapter, error)
}

// Deps is handed to every constructor.
type Deps struct {
	Queries *catalog.Store
	Log     *logger.Logger
}

// Constructor builds the adapter for one backend type.
type Constructor func(conn *args.Connection, deps Deps) (database.Adapter, error)

var _ Factory = (*Registry)(nil)

// Registry is the Factory used by the dispatcher.
type Registry struct {
	mu    sync.RWMutex
	deps  Deps
	ctors map[args.BackendType]Constructor
}

// NewRegistry returns a registry holding the built-in adapters.
func NewRegistry(deps Deps) *Registry {
	deps.Log = logger.OrNop(deps.Log)
	return &Registry{
		deps: deps,
		ctors: map[args.BackendType]Constructor{
			args.Snowflake: newSnowflake,
			args.Postgres:  newPostgres,
			args.MySQL:     newMySQL,
			args.SQLite:    newSQLite,
		},
	}
}

// Register adds or replaces the constructor for a backend type.
func (r *Registry) Register(t args.BackendType, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[t] = ctor
}

// Supported returns the backend types with a constructor, sorted.
func (r *Registry) Supported() []args.BackendType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]args.BackendType, 0, len(r.ctors))
	for t := range r.ctors {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Adapter implements Factory.
func (r *Registry) Adapter(conn *args.Connection) (database.Adapter, error) {
	if conn == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "conn is required")
	}

	r.mu.RLock()
	ctor, ok := r.ctors[conn.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, unsupported(conn.Type, r.Supported())
	}
	return ctor(conn, r.deps)
}

func unsupported(t args.BackendType, supported []args.BackendType) error {
	names := make([]string, len(supported))
	for i, s := range supported {
		names[i] = string(s)
	}
	return errs.Newf(errs.ErrKindUnsupportedBackend,
		"unsupported backend %q (supported: %s)", t, strings.Join(names, ", "))
}

func variant[T any](conn *args.Connection, v *T) (*T, error) {
	if v == nil {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "conn: %s descriptor is missing", conn.Type)
	}
	return v, nil
}

func newSnowflake(conn *args.Connection, deps Deps) (database.Adapter, error) {
	c, err := variant(conn, conn.Snowflake)
	if err != nil {
		return nil, err
	}
	a, err := snowflake.New(c, deps.Queries, deps.Log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newPostgres(conn *args.Connection, deps Deps) (database.Adapter, error) {
	c, err := variant(conn, conn.Postgres)
	if err != nil {
		return nil, err
	}
	a, err := postgres.New(c, deps.Queries, deps.Log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newMySQL(conn *args.Connection, deps Deps) (database.Adapter, error) {
	c, err := variant(conn, conn.MySQL)
	if err != nil {
		return nil, err
	}
	return mysql.New(c, deps.Queries, deps.Log), nil
}

func newSQLite(conn *args.Connection, deps Deps) (database.Adapter, error) {
	c, err := variant(conn, conn.SQLite)
	if err != nil {
		return nil, err
	}
	return sqlite.New(c, deps.Queries, deps.Log), nil
}
