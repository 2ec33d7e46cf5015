// Package mysql implements database.Adapter for MySQL.
//
// MySQL has no separate database level: the schema filter is the database
// name. A column comment cannot be changed on its own, so column updates
// re-state the column definition read from information_schema.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
)

const (
	dialect = "mysql"

	queryColumnDefinition = "column_definition"
)

// Adapter is the MySQL adapter.
type Adapter struct {
	database.SQLBase
}

// New builds an adapter for one descriptor. No connection is made.
func New(conn *args.MySQLConn, queries *catalog.Store, log *logger.Logger) *Adapter {
	return &Adapter{SQLBase: database.SQLBase{
		Dialect:  dialect,
		Queries:  queries,
		Open:     opener(driverConfig(conn)),
		Filter:   database.RelationalFilter,
		MapError: mapError,
		Log:      logger.OrNop(log).With().Str("backend", dialect).Logger(),
	}}
}

// UpdateMetadata sets a table or column comment. MySQL DDL commits
// implicitly. Tags are not supported and are ignored.
func (a *Adapter) UpdateMetadata(ctx context.Context, m *args.MetadataArgs) error {
	fq, err := database.ValidateIdentifier(m.Schema, m.Table)
	if err != nil {
		return err
	}
	if len(m.Tags) > 0 {
		a.Log.Warnf("ignoring %d tag(s): mysql has no object tags", len(m.Tags))
	}

	if m.Level == args.LevelTable {
		if m.Comment == nil {
			return nil
		}
		stmt, err := a.Render(ctx, database.QueryUpdateTableComment, catalog.Params{
			"table_name": fq,
			"comment":    database.QuoteLiteralBackslash(*m.Comment),
		})
		if err != nil {
			return err
		}
		return a.Exec(ctx, "update_metadata", stmt)
	}

	col, err := m.ColumnName()
	if err != nil {
		return err
	}
	colIdent, err := database.ValidateIdentifier(col)
	if err != nil {
		return err
	}
	if m.Comment == nil {
		return nil
	}

	lookup, err := a.Render(ctx, queryColumnDefinition, nil)
	if err != nil {
		return err
	}
	return a.WithDB(ctx, func(db *sql.DB) error {
		var c columnInfo
		err := db.QueryRowContext(ctx, lookup, m.Schema, m.Table, col).
			Scan(&c.columnType, &c.isNullable, &c.columnDefault, &c.extra, &c.charset, &c.collation)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.Newf(errs.ErrKindNotFound, "column %s.%s not found", fq, col)
		}
		if err != nil {
			return mapError(err, "failed to read column definition")
		}

		def, err := c.definition()
		if err != nil {
			return err
		}
		stmt, err := a.Render(ctx, database.QueryUpdateColumnComment, catalog.Params{
			"table_name":        fq,
			"column_name":       colIdent,
			"column_definition": def,
			"comment":           database.QuoteLiteralBackslash(*m.Comment),
		})
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return mapError(err, "update_metadata failed")
		}
		return nil
	})
}

// columnInfo is one row of information_schema.columns.
type columnInfo struct {
	columnType    string
	isNullable    string
	columnDefault sql.NullString
	extra         string
	charset       sql.NullString
	collation     sql.NullString
}

// definition renders the column for ALTER TABLE ... MODIFY COLUMN.
// Generated columns cannot be re-stated from information_schema alone.
func (c columnInfo) definition() (string, error) {
	extra := strings.TrimSpace(strings.Replace(c.extra, "DEFAULT_GENERATED", "", 1))
	exprDefault := extra != strings.TrimSpace(c.extra)
	if strings.Contains(strings.ToUpper(extra), "GENERATED") {
		return "", errs.New(errs.ErrKindUnsupported, "cannot comment a generated column on mysql")
	}

	var b strings.Builder
	b.WriteString(c.columnType)
	// Omitting these would reset the column to the table default.
	if c.charset.Valid {
		b.WriteString(" CHARACTER SET " + c.charset.String)
	}
	if c.collation.Valid {
		b.WriteString(" COLLATE " + c.collation.String)
	}
	if c.isNullable == "NO" {
		b.WriteString(" NOT NULL")
	} else {
		b.WriteString(" NULL")
	}

	if c.columnDefault.Valid {
		d := c.columnDefault.String
		switch {
		case strings.HasPrefix(strings.ToUpper(d), "CURRENT_TIMESTAMP"):
			b.WriteString(" DEFAULT " + d)
		case exprDefault:
			b.WriteString(" DEFAULT (" + d + ")")
		default:
			b.WriteString(" DEFAULT '" + database.QuoteLiteralBackslash(d) + "'")
		}
	}

	if extra != "" {
		b.WriteString(" " + extra)
	}
	return b.String(), nil
}
