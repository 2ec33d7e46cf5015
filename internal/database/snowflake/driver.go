package snowflake

import (
	"context"
	"database/sql"

	"github.com/koustreak/dbagent/internal/args"
	sf "github.com/snowflakedb/gosnowflake"
)

func driverConfig(c *args.SnowflakeConn) *sf.Config {
	return &sf.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    c.Schema,
		Role:      c.Role,
	}
}

// opener returns a database.Opener for one descriptor. Every handle is
// limited to a single session and closed by the caller.
func opener(dsn string) func(ctx context.Context) (*sql.DB, error) {
	return func(context.Context) (*sql.DB, error) {
		db, err := sql.Open("snowflake", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
}
