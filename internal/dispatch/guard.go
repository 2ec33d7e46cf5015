package dispatch

import (
	"regexp"
	"strings"

	"github.com/koustreak/dbagent/internal/errs"
)

// readOnlyPrefixes are the statement keywords the read-only guard accepts.
var readOnlyPrefixes = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH"}

// writeKeywords are rejected anywhere outside string literals and comments,
// which catches data-modifying CTEs and EXPLAIN ANALYZE of writes.
var writeKeywords = regexp.MustCompile(`(?i)(?:^|[^a-z0-9_$])(INSERT|UPDATE|DELETE|MERGE|UPSERT|DROP|CREATE|ALTER|TRUNCATE|GRANT|REVOKE|COPY|CALL|EXECUTE)(?:[^a-z0-9_$]|$)`)

// checkReadOnly rejects anything other than a single read-only statement.
func checkReadOnly(sql string) error {
	cleaned := strings.TrimSpace(stripLiterals(sql))
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, ";"))
	if cleaned == "" {
		return errs.New(errs.ErrKindInvalidInput, "execute_query: empty statement")
	}
	if strings.Contains(cleaned, ";") {
		return errs.New(errs.ErrKindPermissionDenied, "read-only mode: multiple statements are not allowed")
	}

	words := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if len(words) == 0 {
		return errs.New(errs.ErrKindInvalidInput, "execute_query: empty statement")
	}
	first := strings.ToUpper(words[0])
	allowed := false
	for _, p := range readOnlyPrefixes {
		if first == p {
			allowed = true
			break
		}
	}
	if !allowed {
		return errs.Newf(errs.ErrKindPermissionDenied, "read-only mode: %s statements are not allowed", first)
	}

	if m := writeKeywords.FindStringSubmatch(cleaned); m != nil {
		return errs.Newf(errs.ErrKindPermissionDenied, "read-only mode: %s is not allowed", strings.ToUpper(m[1]))
	}
	return nil
}

// stripLiterals replaces quoted strings with '' and comments with a space so
// keywords inside them are not seen. Quoted identifiers are dropped too.
func stripLiterals(sql string) string {
	var b strings.Builder
	n := len(sql)
	for i := 0; i < n; {
		c := sql[i]
		switch {
		case c == '-' && i+1 < n && sql[i+1] == '-':
			for i < n && sql[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i += 2
			for i+1 < n && !(sql[i] == '*' && sql[i+1] == '/') {
				i++
			}
			i += 2
			b.WriteByte(' ')
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(sql, i)
			if c == '\'' {
				b.WriteString("''")
			} else {
				b.WriteString(`""`)
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipQuoted returns the index just past the quoted run starting at i.
// A doubled quote or a backslash escapes the next character.
func skipQuoted(sql string, i int) int {
	q := sql[i]
	i++
	for i < len(sql) {
		switch sql[i] {
		case '\\':
			i += 2
			continue
		case q:
			if i+1 < len(sql) && sql[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}
