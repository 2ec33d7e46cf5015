package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbagent/internal/args"
)

// driverConfig builds the go-sql-driver config for a descriptor.
func driverConfig(c *args.MySQLConn) *gomysql.Config {
	cfg := gomysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	return cfg
}

// opener returns a database.Opener bound to one descriptor. Each handle is
// limited to a single connection and closed by the caller.
func opener(cfg *gomysql.Config) func(ctx context.Context) (*sql.DB, error) {
	return func(context.Context) (*sql.DB, error) {
		connector, err := gomysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		db := sql.OpenDB(connector)
		db.SetMaxOpenConns(1)
		return db, nil
	}
}
