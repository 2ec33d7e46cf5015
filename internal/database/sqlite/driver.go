package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/koustreak/dbagent/internal/args"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// uriPath escapes the characters that would end or corrupt the path part of
// a SQLite URI.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// dsn builds the modernc URI for a descriptor. mode=rw refuses to create a
// missing file. Foreign keys are enabled so pragma_foreign_key_list reflects
// enforced constraints.
func dsn(c *args.SQLiteConn) string {
	return fmt.Sprintf("file:%s?mode=rw&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", uriPath.Replace(c.Path))
}

// opener returns a database.Opener for one file. Every handle holds a single
// connection and is closed by the caller.
func opener(dsn string) func(ctx context.Context) (*sql.DB, error) {
	return func(context.Context) (*sql.DB, error) {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
}
