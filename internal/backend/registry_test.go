package backend

import (
	"context"
	"testing"

	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/database/mysql"
	"github.com/koustreak/dbagent/internal/database/postgres"
	"github.com/koustreak/dbagent/internal/database/snowflake"
	"github.com/koustreak/dbagent/internal/database/sqlite"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ database.OntologyStore = (*postgres.Adapter)(nil)
	_ database.OntologyStore = (*mysql.Adapter)(nil)
	_ database.OntologyStore = (*snowflake.Adapter)(nil)
	_ database.OntologyStore = (*sqlite.Adapter)(nil)
)

func TestRegistry_BuiltIns(t *testing.T) {
	r := NewRegistry(Deps{})

	tests := []struct {
		name string
		conn *args.Connection
		want any
	}{
		{
			name: "snowflake",
			conn: &args.Connection{Type: args.Snowflake, Snowflake: &args.SnowflakeConn{Account: "acme", User: "u", Password: "p"}},
			want: &snowflake.Adapter{},
		},
		{
			name: "postgres",
			conn: &args.Connection{Type: args.Postgres, Postgres: &args.PostgresConn{Host: "h", Port: 5432, User: "u", DBName: "d", SSLMode: "disable"}},
			want: &postgres.Adapter{},
		},
		{
			name: "mysql",
			conn: &args.Connection{Type: args.MySQL, MySQL: &args.MySQLConn{Host: "h", Port: 3306, User: "u", DBName: "d"}},
			want: &mysql.Adapter{},
		},
		{
			name: "sqlite",
			conn: &args.Connection{Type: args.SQLite, SQLite: &args.SQLiteConn{Path: "/tmp/x.db"}},
			want: &sqlite.Adapter{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.Adapter(tt.conn)
			require.NoError(t, err)
			assert.IsType(t, tt.want, a)
		})
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry(Deps{})

	for _, typ := range []args.BackendType{args.Databricks, "oracle"} {
		t.Run(string(typ), func(t *testing.T) {
			_, err := r.Adapter(&args.Connection{Type: typ})
			require.Error(t, err)
			assert.True(t, errs.IsUnsupportedBackend(err))
			assert.Contains(t, err.Error(), string(typ))
			assert.Contains(t, err.Error(), "mysql, postgres, snowflake, sqlite")
		})
	}
}

func TestRegistry_MissingDescriptor(t *testing.T) {
	_, err := NewRegistry(Deps{}).Adapter(&args.Connection{Type: args.Postgres})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = NewRegistry(Deps{}).Adapter(nil)
	assert.True(t, errs.IsInvalidInput(err))
}

type stubAdapter struct{ database.Adapter }

func (stubAdapter) RunQuery(context.Context, string) ([]database.Row, error) {
	return []database.Row{{"ok": true}}, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(Deps{})
	r.Register(args.Databricks, func(conn *args.Connection, _ Deps) (database.Adapter, error) {
		return stubAdapter{}, nil
	})

	assert.Contains(t, r.Supported(), args.Databricks)

	a, err := r.Adapter(&args.Connection{Type: args.Databricks, Databricks: &args.DatabricksConn{}})
	require.NoError(t, err)
	rows, err := a.RunQuery(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, true, rows[0]["ok"])
}
