package catalog

import (
	"strings"

	"github.com/koustreak/dbagent/internal/errs"
)

// Params maps placeholder names to values. A name missing from the map is
// treated as absent: optional tokens are dropped and required ones fail.
type Params map[string]string

// Merge returns a new Params holding p overlaid with other.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Template is a parsed SQL template.
//
// Grammar: "{name}" is a required placeholder and "{name:text}" an optional
// one, where name is [A-Za-z_][A-Za-z0-9_]* and text is anything up to the
// next "}". "{{" renders a literal "{". Every other brace is plain SQL.
type Template struct {
	name string
	segs []segment
}

type segment struct {
	literal  string
	param    string // empty for literal segments
	optional bool
}

// Parse splits text into literal and placeholder segments. It never fails:
// brace text outside the grammar is kept as SQL.
func Parse(name, text string) *Template {
	t := &Template{name: name}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.segs = append(t.segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		if text[i] != '{' {
			lit.WriteByte(text[i])
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == '{' {
			lit.WriteByte('{')
			i += 2
			continue
		}
		param, optional, n := scanPlaceholder(text[i:])
		if n == 0 {
			lit.WriteByte('{')
			i++
			continue
		}
		flush()
		t.segs = append(t.segs, segment{param: param, optional: optional})
		i += n
	}
	flush()
	return t
}

// scanPlaceholder reports the placeholder at the start of s and its length,
// or n == 0 when s does not open a placeholder.
func scanPlaceholder(s string) (param string, optional bool, n int) {
	j := 1
	for j < len(s) && isNameByte(s[j], j == 1) {
		j++
	}
	if j == 1 || j >= len(s) {
		return "", false, 0
	}
	param = s[1:j]
	switch s[j] {
	case '}':
		return param, false, j + 1
	case ':':
		end := strings.IndexByte(s[j:], '}')
		if end < 0 {
			return "", false, 0
		}
		return param, true, j + end + 1
	}
	return "", false, 0
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// Name returns the catalog key the template was parsed from.
func (t *Template) Name() string { return t.name }

// Placeholders returns the placeholder names in order of first appearance.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range t.segs {
		if s.param != "" && !seen[s.param] {
			seen[s.param] = true
			names = append(names, s.param)
		}
	}
	return names
}

// Render substitutes params into the template. Values are inserted verbatim
// and never re-scanned. A required placeholder without a value fails with
// ErrKindUnresolvedPlaceholder.
func (t *Template) Render(params Params) (string, error) {
	var b strings.Builder
	for _, s := range t.segs {
		if s.param == "" {
			b.WriteString(s.literal)
			continue
		}
		v, ok := params[s.param]
		switch {
		case ok:
			b.WriteString(v)
		case s.optional:
		default:
			return "", errs.Newf(errs.ErrKindUnresolvedPlaceholder,
				"query %q: no value for placeholder {%s}", t.name, s.param)
		}
	}
	return b.String(), nil
}
