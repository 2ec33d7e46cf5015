// Package snowflake implements database.Adapter for Snowflake.
//
// Filters cover the database, schema and table dimensions. A catalog entry
// named list_schema_custom replaces list_schema when present. Table and
// column tags are applied after the comment, one statement per tag.
package snowflake

import (
	"context"
	"sort"

	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
	sf "github.com/snowflakedb/gosnowflake"
)

const (
	dialect = "snowflake"

	querySetTableTag  = "set_table_tag"
	querySetColumnTag = "set_column_tag"
)

// Adapter is the Snowflake adapter.
type Adapter struct {
	database.SQLBase
	defaultDatabase string
}

// New builds an adapter for one descriptor. No session is opened.
func New(conn *args.SnowflakeConn, queries *catalog.Store, log *logger.Logger) (*Adapter, error) {
	dsn, err := sf.DSN(driverConfig(conn))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid snowflake connection", err)
	}
	return &Adapter{
		SQLBase: database.SQLBase{
			Dialect:             dialect,
			Queries:             queries,
			Open:                opener(dsn),
			Filter:              database.WarehouseFilter,
			MapError:            mapError,
			Log:                 logger.OrNop(log).With().Str("backend", dialect).Logger(),
			PreferCustomListing: true,
		},
		defaultDatabase: conn.Database,
	}, nil
}

// UpdateMetadata applies the comment, then each tag in name order. Earlier
// statements stay applied when a later one fails.
func (a *Adapter) UpdateMetadata(ctx context.Context, m *args.MetadataArgs) error {
	statements, err := a.metadataStatements(ctx, m)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		return nil
	}
	return a.Exec(ctx, "update_metadata", statements...)
}

func (a *Adapter) metadataStatements(ctx context.Context, m *args.MetadataArgs) ([]string, error) {
	db := a.defaultDatabase
	if m.Database != nil && *m.Database != "" {
		db = *m.Database
	}
	fq, err := database.ValidateIdentifier(db, m.Schema, m.Table)
	if err != nil {
		return nil, err
	}

	params := catalog.Params{"table_name": fq}
	commentQuery, tagQuery := database.QueryUpdateTableComment, querySetTableTag
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
		commentQuery, tagQuery = database.QueryUpdateColumnComment, querySetColumnTag
	}

	var statements []string
	if m.Comment != nil {
		stmt, err := a.Render(ctx, commentQuery, params.Merge(catalog.Params{
			"comment": database.QuoteLiteralBackslash(*m.Comment),
		}))
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	names := make([]string, 0, len(m.Tags))
	for name := range m.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tag, err := database.ValidateIdentifier(name)
		if err != nil {
			return nil, err
		}
		stmt, err := a.Render(ctx, tagQuery, params.Merge(catalog.Params{
			"tag_name":  tag,
			"tag_value": database.QuoteLiteralBackslash(m.Tags[name]),
		}))
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}
