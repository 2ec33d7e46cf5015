package mysql

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied     = 1044
	errAccessDenied       = 1045
	errUnknownDatabase    = 1049
	errTableAccessDenied  = 1142
	errColumnAccessDenied = 1143
	errSpecificAccess     = 1227
	errQueryInterrupted   = 1317
	errLockWaitTimeout    = 1205
	errMaxExecutionTime   = 3024
)

// mapError converts a MySQL driver error into a *errs.Error.
func mapError(err error, msg string) error {
	if mapped, ok := database.MapContextError(err, msg); ok {
		return mapped
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		kind := errs.ErrKindQueryFailed
		switch mysqlErr.Number {
		case errDBAccessDenied, errAccessDenied, errUnknownDatabase:
			kind = errs.ErrKindConnectionFailed
		case errTableAccessDenied, errColumnAccessDenied, errSpecificAccess:
			kind = errs.ErrKindPermissionDenied
		case errQueryInterrupted, errLockWaitTimeout, errMaxExecutionTime:
			kind = errs.ErrKindTimeout
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, mysqlErr.Message), err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) || errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
