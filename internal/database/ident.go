package database

import (
	"regexp"
	"strings"

	"github.com/koustreak/dbagent/internal/errs"
)

// identPattern is the whole-string pattern every identifier part must match.
// No quoting is supported: identifiers are interpolated into SQL text.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_.$]+$`)

// ValidateIdentifier joins the non-empty parts with "." after checking each
// against identPattern. A part may itself contain dots ("sch.ema").
func ValidateIdentifier(parts ...string) (string, error) {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if !identPattern.MatchString(p) {
			return "", errs.Newf(errs.ErrKindUnsafeIdentifier, "unsafe identifier: %q", p)
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return "", errs.New(errs.ErrKindUnsafeIdentifier, "empty identifier")
	}
	return strings.Join(kept, "."), nil
}

// QuoteLiteral escapes s for use inside a single-quoted SQL string by
// doubling embedded quotes. The surrounding quotes come from the template.
func QuoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// QuoteLiteralBackslash is QuoteLiteral for dialects where a backslash also
// escapes inside string literals (MySQL, Snowflake).
func QuoteLiteralBackslash(s string) string {
	return QuoteLiteral(strings.ReplaceAll(s, `\`, `\\`))
}
