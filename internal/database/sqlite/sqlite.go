// Package sqlite implements database.Adapter for SQLite files.
//
// The catalog is read through sqlite_master and the table-valued pragma
// functions. Every table lives in catalog "main", schema "main". SQLite has
// no object comments, so update_metadata is unsupported.
package sqlite

import (
	"context"

	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
)

const dialect = "sqlite"

// Adapter is the SQLite adapter.
type Adapter struct {
	database.SQLBase
}

// New builds an adapter for one database file. The file is not opened.
func New(conn *args.SQLiteConn, queries *catalog.Store, log *logger.Logger) *Adapter {
	return &Adapter{SQLBase: database.SQLBase{
		Dialect:  dialect,
		Queries:  queries,
		Open:     opener(dsn(conn)),
		Filter:   database.RelationalFilter,
		MapError: mapError,
		Log:      logger.OrNop(log).With().Str("backend", dialect).Logger(),
	}}
}

// UpdateMetadata always fails: SQLite cannot store comments or tags.
func (a *Adapter) UpdateMetadata(context.Context, *args.MetadataArgs) error {
	return errs.New(errs.ErrKindUnsupported, "sqlite does not support table or column comments")
}
