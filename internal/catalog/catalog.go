package catalog

import (
	"encoding/json"
	"sort"

	"github.com/koustreak/dbagent/internal/errs"
	"go.yaml.in/yaml/v3"
)

// Catalog is the parsed set of named templates for one dialect.
type Catalog struct {
	dialect string
	entries map[string]entry
}

// entry holds either a parsed template or the reason it is unusable.
// Malformed entries only fail when they are requested.
type entry struct {
	tmpl *Template
	err  error
}

// Decode parses raw catalog bytes. The document must be an object mapping
// query name to either SQL text or an object with a "sql" or "query" field.
func Decode(dialect string, data []byte, format Format) (*Catalog, error) {
	var raw map[string]any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidTemplateFormat,
			"query catalog for "+dialect+" is not a "+format.String()+" object", err)
	}

	c := &Catalog{dialect: dialect, entries: make(map[string]entry, len(raw))}
	for name, v := range raw {
		sql, ok := entryText(v)
		if !ok {
			c.entries[name] = entry{err: errs.Newf(errs.ErrKindInvalidTemplateFormat,
				"query %q in %s catalog must be a string or an object with sql/query", name, dialect)}
			continue
		}
		c.entries[name] = entry{tmpl: Parse(name, sql)}
	}
	return c, nil
}

func entryText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		for _, key := range []string{"sql", "query"} {
			if s, ok := t[key].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Template returns the named template.
func (c *Catalog) Template(name string) (*Template, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, errs.Newf(errs.ErrKindQueryNotFound,
			"query %q not found in %s catalog", name, c.dialect)
	}
	return e.tmpl, e.err
}

// Has reports whether name is present, well-formed or not.
func (c *Catalog) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Names returns the query names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
