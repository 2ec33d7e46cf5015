// Package postgres implements database.Adapter for PostgreSQL on pgx.
//
// Every operation opens a single pgx.Conn and closes it before returning.
// Filters use the schema and table dimensions only: a connection is already
// scoped to one database.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
)

const dialect = "postgres"

// Adapter is the PostgreSQL adapter. It holds no connection between calls.
type Adapter struct {
	cfg     *pgx.ConnConfig
	queries *catalog.Store
	log     *logger.Logger
	dial    dialer
}

// New validates the descriptor into a pgx config. No connection is made.
func New(conn *args.PostgresConn, queries *catalog.Store, log *logger.Logger) (*Adapter, error) {
	cfg, err := connConfig(conn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid postgres connection", err)
	}
	return &Adapter{
		cfg:     cfg,
		queries: queries,
		log:     logger.OrNop(log).With().Str("backend", dialect).Logger(),
		dial:    dialPgx,
	}, nil
}

// withSession opens a session, runs fn and closes the session on every path.
func (a *Adapter) withSession(ctx context.Context, fn func(s session) error) error {
	s, err := a.dial(ctx, a.cfg)
	if err != nil {
		return mapError(err, "failed to connect to postgres")
	}
	defer func() {
		if cerr := s.Close(ctx); cerr != nil {
			a.log.Debugf("closing postgres connection: %v", cerr)
		}
	}()
	return fn(s)
}

func (a *Adapter) query(ctx context.Context, op, sql string) ([]database.Row, error) {
	var rows []database.Row
	err := a.withSession(ctx, func(s session) error {
		start := time.Now()
		r, err := s.Query(ctx, sql)
		if err != nil {
			return mapError(err, op+" failed")
		}
		rows, err = database.ScanRows(r)
		if err != nil {
			return mapError(err, op+" failed")
		}
		a.log.With().Str("op", op).Int("rows", len(rows)).
			Int("elapsed_ms", int(time.Since(start).Milliseconds())).
			Logger().Debug("query executed")
		return nil
	})
	return rows, err
}

func (a *Adapter) edges(ctx context.Context, op, sql string) (*database.Ontology, error) {
	var edges []database.Edge
	err := a.withSession(ctx, func(s session) error {
		r, err := s.Query(ctx, sql)
		if err != nil {
			return mapError(err, op+" failed")
		}
		edges, err = database.ScanEdges(r)
		if err != nil {
			return mapError(err, op+" failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return database.NewOntology(edges), nil
}

// ListSchema lists columns narrowed by schema and table. database is ignored.
func (a *Adapter) ListSchema(ctx context.Context, db, schema, table *string) ([]database.Row, error) {
	sql, err := a.queries.Query(ctx, dialect, database.QueryListSchema,
		database.RelationalFilter(db, schema, table))
	if err != nil {
		return nil, err
	}
	return a.query(ctx, "list_schema", sql)
}

// RunQuery executes sql verbatim.
func (a *Adapter) RunQuery(ctx context.Context, sql string) ([]database.Row, error) {
	return a.query(ctx, "execute_query", sql)
}

// Ontology lists foreign keys, narrowed by schema.
func (a *Adapter) Ontology(ctx context.Context, _, schema *string) (*database.Ontology, error) {
	sql, err := a.queries.Query(ctx, dialect, database.QueryForeignKeys,
		database.RelationalFilter(nil, schema, nil))
	if err != nil {
		return nil, err
	}
	return a.edges(ctx, "get_ontology", sql)
}

// CurrentOntology reads the materialized edge table.
func (a *Adapter) CurrentOntology(ctx context.Context) (*database.Ontology, error) {
	sql, err := a.queries.Query(ctx, dialect, database.QueryCurrentOntology, nil)
	if err != nil {
		return nil, err
	}
	return a.edges(ctx, "view_current_ontology", sql)
}

// UpdateMetadata sets a table or column comment inside one transaction that
// is committed before returning. Tags are not supported and are ignored.
func (a *Adapter) UpdateMetadata(ctx context.Context, m *args.MetadataArgs) error {
	statements, err := a.metadataStatements(ctx, m)
	if err != nil {
		return err
	}
	if len(m.Tags) > 0 {
		a.log.Warnf("ignoring %d tag(s): postgres has no object tags", len(m.Tags))
	}
	if len(statements) == 0 {
		return nil
	}
	return a.withSession(ctx, func(s session) error {
		if err := s.ExecTx(ctx, statements); err != nil {
			return mapError(err, "update_metadata failed")
		}
		return nil
	})
}

func (a *Adapter) metadataStatements(ctx context.Context, m *args.MetadataArgs) ([]string, error) {
	fq, err := database.ValidateIdentifier(m.Schema, m.Table)
	if err != nil {
		return nil, err
	}
	params := catalog.Params{"table_name": fq}
	name := database.QueryUpdateTableComment

	if m.Level == args.LevelColumn {
		col, err := m.ColumnName()
		if err != nil {
			return nil, err
		}
		colIdent, err := database.ValidateIdentifier(col)
		if err != nil {
			return nil, err
		}
		params["column_name"] = colIdent
		name = database.QueryUpdateColumnComment
	}

	if m.Comment == nil {
		return nil, nil
	}
	params["comment"] = database.QuoteLiteral(*m.Comment)
	stmt, err := a.queries.Query(ctx, dialect, name, params)
	if err != nil {
		return nil, err
	}
	return []string{stmt}, nil
}
