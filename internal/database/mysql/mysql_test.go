package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

var definitionColumns = []string{"column_type", "is_nullable", "column_default", "extra", "character_set_name", "collation_name"}

func newTestAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	conn := &args.MySQLConn{Host: "h", Port: 3306, User: "u", Password: "p", DBName: "shop"}
	a := New(conn, catalog.NewStore(catalog.NewDirSource(queries.FS), nil), nil)
	a.Open = func(context.Context) (*sql.DB, error) { return db, nil }
	return a, mock
}

func TestDriverConfig(t *testing.T) {
	cfg := driverConfig(&args.MySQLConn{Host: "db", Port: 3307, User: "svc", Password: "s3cret", DBName: "shop"})

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db:3307", cfg.Addr)
	assert.Equal(t, "shop", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Contains(t, cfg.FormatDSN(), "svc:s3cret@tcp(db:3307)/shop")
}

func TestUpdateMetadata_TableComment(t *testing.T) {
	a, mock := newTestAdapter(t)
	mock.ExpectExec(`ALTER TABLE shop.orders COMMENT = 'it''s a \\table'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	err := a.UpdateMetadata(context.Background(), &args.MetadataArgs{
		Level: args.LevelTable, Schema: "shop", Table: "orders", Comment: ptr(`it's a \table`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMetadata_ColumnComment(t *testing.T) {
	a, mock := newTestAdapter(t)
	lookup, err := a.Render(context.Background(), queryColumnDefinition, nil)
	require.NoError(t, err)

	mock.ExpectQuery(lookup).
		WithArgs("shop", "orders", "status").
		WillReturnRows(sqlmock.NewRows(definitionColumns).
			AddRow("varchar(20)", "NO", "new", "", "latin1", "latin1_bin"))
	mock.ExpectExec("ALTER TABLE shop.orders MODIFY COLUMN status varchar(20) CHARACTER SET latin1 COLLATE latin1_bin NOT NULL DEFAULT 'new' COMMENT 'Order state'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	err = a.UpdateMetadata(context.Background(), &args.MetadataArgs{
		Level: args.LevelColumn, Schema: "shop", Table: "orders", Column: ptr("status"), Comment: ptr("Order state"),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMetadata_ColumnNotFound(t *testing.T) {
	a, mock := newTestAdapter(t)
	lookup, err := a.Render(context.Background(), queryColumnDefinition, nil)
	require.NoError(t, err)

	mock.ExpectQuery(lookup).
		WithArgs("shop", "orders", "nope").
		WillReturnRows(sqlmock.NewRows(definitionColumns))
	mock.ExpectClose()

	err = a.UpdateMetadata(context.Background(), &args.MetadataArgs{
		Level: args.LevelColumn, Schema: "shop", Table: "orders", Column: ptr("nope"), Comment: ptr("x"),
	})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMetadata_MissingColumn(t *testing.T) {
	a, mock := newTestAdapter(t)

	err := a.UpdateMetadata(context.Background(), &args.MetadataArgs{
		Level: args.LevelColumn, Schema: "shop", Table: "orders", Comment: ptr("x"),
	})
	require.Error(t, err)
	assert.True(t, errs.IsMissingColumn(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement executed")
}

func TestColumnInfo_Definition(t *testing.T) {
	tests := []struct {
		name    string
		info    columnInfo
		want    string
		wantErr bool
	}{
		{
			name: "nullable without default",
			info: columnInfo{columnType: "text", isNullable: "YES"},
			want: "text NULL",
		},
		{
			name: "charset and collation kept",
			info: columnInfo{
				columnType: "varchar(64)", isNullable: "NO",
				charset:   sql.NullString{String: "utf8mb4", Valid: true},
				collation: sql.NullString{String: "utf8mb4_bin", Valid: true},
			},
			want: "varchar(64) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
		},
		{
			name: "auto increment",
			info: columnInfo{columnType: "bigint unsigned", isNullable: "NO", extra: "auto_increment"},
			want: "bigint unsigned NOT NULL auto_increment",
		},
		{
			name: "literal default with quote",
			info: columnInfo{columnType: "varchar(10)", isNullable: "YES", columnDefault: sql.NullString{String: "o'k", Valid: true}},
			want: "varchar(10) NULL DEFAULT 'o''k'",
		},
		{
			name: "timestamp default with on update",
			info: columnInfo{
				columnType: "timestamp", isNullable: "NO",
				columnDefault: sql.NullString{String: "CURRENT_TIMESTAMP", Valid: true},
				extra:         "DEFAULT_GENERATED on update CURRENT_TIMESTAMP",
			},
			want: "timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP",
		},
		{
			name: "expression default",
			info: columnInfo{
				columnType: "char(36)", isNullable: "NO",
				columnDefault: sql.NullString{String: "uuid()", Valid: true},
				extra:         "DEFAULT_GENERATED",
			},
			want: "char(36) NOT NULL DEFAULT (uuid())",
		},
		{
			name:    "generated column",
			info:    columnInfo{columnType: "int", isNullable: "YES", extra: "VIRTUAL GENERATED"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.info.definition()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errs.ErrKindUnsupported, errs.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListSchema_SchemaIsDatabase(t *testing.T) {
	a, mock := newTestAdapter(t)
	want, err := a.Render(context.Background(), database.QueryListSchema, database.RelationalFilter(nil, ptr("shop"), nil))
	require.NoError(t, err)

	mock.ExpectQuery(want).WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders"))
	mock.ExpectClose()

	rows, err := a.ListSchema(context.Background(), ptr("ignored"), ptr("shop"), nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindConnectionFailed},
		{"unknown database", &gomysql.MySQLError{Number: 1049}, errs.ErrKindConnectionFailed},
		{"alter denied", &gomysql.MySQLError{Number: 1142}, errs.ErrKindPermissionDenied},
		{"syntax", &gomysql.MySQLError{Number: 1064}, errs.ErrKindQueryFailed},
		{"max execution time", &gomysql.MySQLError{Number: 3024}, errs.ErrKindTimeout},
		{"invalid conn", gomysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
		{"canceled", context.Canceled, errs.ErrKindTimeout},
		{"other", errors.New("sql: Scan error"), errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			assert.Equal(t, tt.want, errs.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
