package sqlite

import (
	"errors"

	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mapError converts a modernc sqlite error into a *errs.Error. Extended
// result codes are reduced to their primary code.
func mapError(err error, msg string) error {
	if mapped, ok := database.MapContextError(err, msg); ok {
		return mapped
	}

	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}

	kind := errs.ErrKindQueryFailed
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
		kind = errs.ErrKindConnectionFailed
	case sqlite3.SQLITE_PERM, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_AUTH:
		kind = errs.ErrKindPermissionDenied
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
		kind = errs.ErrKindTimeout
	}
	return errs.Wrap(kind, msg, err)
}
