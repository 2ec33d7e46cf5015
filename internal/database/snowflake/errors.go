package snowflake

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	sf "github.com/snowflakedb/gosnowflake"
)

// Snowflake error numbers
const (
	errIncorrectLogin    = 390100
	errUserLocked        = 390102
	errInsufficientPrivs = 3001
	errStatementCanceled = 604
	errStatementTimeout  = 630
	sqlStateNoPrivilege  = "42501"
)

// mapError converts a gosnowflake error into a *errs.Error.
func mapError(err error, msg string) error {
	if mapped, ok := database.MapContextError(err, msg); ok {
		return mapped
	}

	var sfErr *sf.SnowflakeError
	if errors.As(err, &sfErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		case sfErr.Number == errIncorrectLogin, sfErr.Number == errUserLocked,
			strings.HasPrefix(sfErr.SQLState, "08"):
			kind = errs.ErrKindConnectionFailed
		case sfErr.Number == errInsufficientPrivs, sfErr.SQLState == sqlStateNoPrivilege:
			kind = errs.ErrKindPermissionDenied
		case sfErr.Number == errStatementCanceled, sfErr.Number == errStatementTimeout:
			kind = errs.ErrKindTimeout
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, sfErr.Message), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
