package dispatch

import (
	"testing"

	"github.com/koustreak/dbagent/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestCheckReadOnly_Allowed(t *testing.T) {
	queries := []string{
		"SELECT 1",
		"select * from orders;",
		"  SHOW TABLES",
		"DESCRIBE orders",
		"EXPLAIN SELECT * FROM orders",
		"WITH recent AS (SELECT * FROM orders) SELECT * FROM recent",
		"(SELECT 1)",
		"SELECT 'DROP TABLE x; --' AS s",
		"SELECT \"update\" FROM t -- delete later",
		"/* INSERT */ SELECT updated_at FROM t",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			assert.NoError(t, checkReadOnly(q))
		})
	}
}

func TestCheckReadOnly_Rejected(t *testing.T) {
	tests := []struct {
		sql  string
		kind errs.ErrKind
	}{
		{"INSERT INTO t VALUES (1)", errs.ErrKindPermissionDenied},
		{"update t set a = 1", errs.ErrKindPermissionDenied},
		{"SELECT 1; DROP TABLE t", errs.ErrKindPermissionDenied},
		{"WITH d AS (DELETE FROM t RETURNING *) SELECT * FROM d", errs.ErrKindPermissionDenied},
		{"EXPLAIN ANALYZE DELETE FROM t", errs.ErrKindPermissionDenied},
		{"COMMENT ON TABLE t IS 'x'", errs.ErrKindPermissionDenied},
		{"SELECT 'it''s'; TRUNCATE t", errs.ErrKindPermissionDenied},
		{"   ", errs.ErrKindInvalidInput},
		{"-- only a comment", errs.ErrKindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			err := checkReadOnly(tt.sql)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
}

func TestStripLiterals(t *testing.T) {
	assert.Equal(t, "SELECT '' FROM t  ", stripLiterals("SELECT 'a;b' FROM t -- x"))
	assert.Equal(t, `SELECT "" , ''`, stripLiterals("SELECT `drop` , 'o\\'k'"))
	assert.Equal(t, "SELECT   1", stripLiterals("SELECT /* ; */ 1"))
}
