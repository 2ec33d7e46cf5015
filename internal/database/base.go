package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
)

// Query names every dialect catalog is expected to define.
const (
	QueryListSchema          = "list_schema"
	QueryListSchemaCustom    = "list_schema_custom"
	QueryForeignKeys         = "get_foreign_keys"
	QueryCurrentOntology     = "view_current_ontology"
	QueryUpdateTableComment  = "update_table_comment"
	QueryUpdateColumnComment = "update_column_comment"
)

// Opener returns a fresh handle for one operation. The handle is closed
// when the operation ends.
type Opener func(ctx context.Context) (*sql.DB, error)

// ErrorMapper translates a driver error into a *errs.Error.
type ErrorMapper func(err error, msg string) error

// SQLBase implements the read side of Adapter for database/sql drivers.
// Concrete adapters embed it and add UpdateMetadata.
type SQLBase struct {
	Dialect  string
	Queries  *catalog.Store
	Open     Opener
	Filter   FilterFunc
	MapError ErrorMapper
	Log      *logger.Logger

	// PreferCustomListing makes ListSchema use list_schema_custom when the
	// catalog defines it.
	PreferCustomListing bool
}

// WithDB opens a handle, runs fn and closes the handle on every path.
func (b *SQLBase) WithDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := b.Open(ctx)
	if err != nil {
		return b.MapError(err, "failed to open "+b.Dialect+" connection")
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.OrNop(b.Log).Debugf("closing %s connection: %v", b.Dialect, cerr)
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return b.MapError(err, "failed to connect to "+b.Dialect)
	}
	return fn(db)
}

// Render renders a query of this adapter's dialect.
func (b *SQLBase) Render(ctx context.Context, name string, params catalog.Params) (string, error) {
	return b.Queries.Query(ctx, b.Dialect, name, params)
}

func (b *SQLBase) query(ctx context.Context, op, sqlText string, args ...any) ([]Row, error) {
	var rows []Row
	err := b.WithDB(ctx, func(db *sql.DB) error {
		start := time.Now()
		r, err := db.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return b.MapError(err, op+" failed")
		}
		rows, err = ScanRows(FromSQL(r))
		if err != nil {
			return b.MapError(err, op+" failed")
		}
		b.logQuery(op, len(rows), start)
		return nil
	})
	return rows, err
}

func (b *SQLBase) edges(ctx context.Context, op, sqlText string) (*Ontology, error) {
	var edges []Edge
	err := b.WithDB(ctx, func(db *sql.DB) error {
		start := time.Now()
		r, err := db.QueryContext(ctx, sqlText)
		if err != nil {
			return b.MapError(err, op+" failed")
		}
		edges, err = ScanEdges(FromSQL(r))
		if err != nil {
			return b.MapError(err, op+" failed")
		}
		b.logQuery(op, len(edges), start)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewOntology(edges), nil
}

func (b *SQLBase) logQuery(op string, rows int, start time.Time) {
	logger.OrNop(b.Log).With().
		Str("dialect", b.Dialect).
		Str("op", op).
		Int("rows", rows).
		Int("elapsed_ms", int(time.Since(start).Milliseconds())).
		Logger().
		Debug("query executed")
}

// ListSchema runs list_schema (or list_schema_custom when preferred and
// present) with the dialect's filter clauses.
func (b *SQLBase) ListSchema(ctx context.Context, database, schema, table *string) ([]Row, error) {
	name := QueryListSchema
	if b.PreferCustomListing {
		ok, err := b.Queries.Has(ctx, b.Dialect, QueryListSchemaCustom)
		if err != nil {
			return nil, err
		}
		if ok {
			name = QueryListSchemaCustom
		}
	}

	sqlText, err := b.Render(ctx, name, b.Filter(database, schema, table))
	if err != nil {
		return nil, err
	}
	return b.query(ctx, "list_schema", sqlText)
}

// RunQuery executes sqlText verbatim.
func (b *SQLBase) RunQuery(ctx context.Context, sqlText string) ([]Row, error) {
	return b.query(ctx, "execute_query", sqlText)
}

// Ontology runs get_foreign_keys narrowed by database and schema.
func (b *SQLBase) Ontology(ctx context.Context, database, schema *string) (*Ontology, error) {
	sqlText, err := b.Render(ctx, QueryForeignKeys, b.Filter(database, schema, nil))
	if err != nil {
		return nil, err
	}
	return b.edges(ctx, "get_ontology", sqlText)
}

// CurrentOntology reads the pre-materialized edge table.
func (b *SQLBase) CurrentOntology(ctx context.Context) (*Ontology, error) {
	sqlText, err := b.Render(ctx, QueryCurrentOntology, nil)
	if err != nil {
		return nil, err
	}
	return b.edges(ctx, "view_current_ontology", sqlText)
}

// Exec runs statements in order on one handle, stopping at the first error.
// Statements already executed are not rolled back.
func (b *SQLBase) Exec(ctx context.Context, op string, statements ...string) error {
	return b.WithDB(ctx, func(db *sql.DB) error {
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return b.MapError(err, op+" failed")
			}
		}
		return nil
	})
}

// MapContextError is the shared prefix of every ErrorMapper: it handles
// nil, already-mapped errors and context cancellation. ok is false when the
// caller must classify err itself.
func MapContextError(err error, msg string) (mapped error, ok bool) {
	if err == nil {
		return nil, true
	}
	if errs.KindOf(err) != errs.ErrKindUnknown {
		return err, true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err), true
	}
	return nil, false
}
