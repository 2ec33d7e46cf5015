package postgres

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/database"
)

// session is the slice of *pgx.Conn the adapter uses.
type session interface {
	Query(ctx context.Context, sql string) (database.Rows, error)
	// ExecTx runs statements in one transaction and commits it.
	ExecTx(ctx context.Context, statements []string) error
	Close(ctx context.Context) error
}

// dialer opens one session per operation.
type dialer func(ctx context.Context, cfg *pgx.ConnConfig) (session, error)

func dialPgx(ctx context.Context, cfg *pgx.ConnConfig) (session, error) {
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &pgxSession{conn: conn}, nil
}

// connConfig builds the pgx config for a descriptor. Credentials go through
// a URL so reserved characters need no manual escaping.
func connConfig(c *args.PostgresConn) (*pgx.ConnConfig, error) {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return pgx.ParseConfig(u.String())
}

type pgxSession struct {
	conn *pgx.Conn
}

func (s *pgxSession) Query(ctx context.Context, sql string) (database.Rows, error) {
	rows, err := s.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (s *pgxSession) ExecTx(ctx context.Context, statements []string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *pgxSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Close()                 { r.rows.Close() }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}
