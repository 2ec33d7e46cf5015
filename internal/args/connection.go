package args

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
)

// BackendType is the declared type of a connection descriptor.
type BackendType string

const (
	Snowflake  BackendType = "snowflake"
	Postgres   BackendType = "postgres"
	MySQL      BackendType = "mysql"
	SQLite     BackendType = "sqlite"
	Databricks BackendType = "databricks" // reserved: validates, has no adapter
)

var backendTypes = []BackendType{Snowflake, Postgres, MySQL, SQLite, Databricks}

// Connection is a tagged union over the per-backend descriptors. Exactly one
// variant pointer is set, matching Type.
type Connection struct {
	Type BackendType `validate:"required"`

	Snowflake  *SnowflakeConn
	Postgres   *PostgresConn
	MySQL      *MySQLConn
	SQLite     *SQLiteConn
	Databricks *DatabricksConn
}

// SnowflakeConn addresses a Snowflake account. Database and Schema are the
// session defaults used to qualify names when a payload omits them.
type SnowflakeConn struct {
	Type      BackendType `json:"type"`
	Account   string      `json:"account" validate:"required"`
	User      string      `json:"user" validate:"required"`
	Password  string      `json:"password"`
	Warehouse string      `json:"warehouse"`
	Database  string      `json:"database"`
	Schema    string      `json:"schema"`
	Role      string      `json:"role"`
}

// PostgresConn addresses a PostgreSQL database. Port defaults to 5432 and
// SSLMode to "prefer".
type PostgresConn struct {
	Type     BackendType `json:"type"`
	Host     string      `json:"host" validate:"required"`
	Port     int         `json:"port" validate:"min=1,max=65535"`
	User     string      `json:"user" validate:"required"`
	Password string      `json:"password"`
	DBName   string      `json:"dbname" validate:"required"`
	SSLMode  string      `json:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// MySQLConn addresses a MySQL database. Port defaults to 3306.
type MySQLConn struct {
	Type     BackendType `json:"type"`
	Host     string      `json:"host" validate:"required"`
	Port     int         `json:"port" validate:"min=1,max=65535"`
	User     string      `json:"user" validate:"required"`
	Password string      `json:"password"`
	DBName   string      `json:"dbname" validate:"required"`
}

// SQLiteConn points at an existing SQLite database file.
type SQLiteConn struct {
	Type BackendType `json:"type"`
	Path string      `json:"path" validate:"required"`
}

// DatabricksConn is accepted by validation but has no adapter.
type DatabricksConn struct {
	Type           BackendType `json:"type"`
	ServerHostname string      `json:"server_hostname"`
	HTTPPath       string      `json:"http_path"`
	Token          string      `json:"token"`
}

// UnmarshalJSON reads "type" first, then decodes the whole object strictly
// into that type's descriptor and applies its defaults.
func (c *Connection) UnmarshalJSON(data []byte) error {
	var head struct {
		Type *BackendType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("conn: %w", err)
	}
	if head.Type == nil {
		return fmt.Errorf("conn.type is required")
	}

	*c = Connection{Type: *head.Type}
	var target any
	switch c.Type {
	case Snowflake:
		c.Snowflake = &SnowflakeConn{}
		target = c.Snowflake
	case Postgres:
		c.Postgres = &PostgresConn{Port: 5432, SSLMode: "prefer"}
		target = c.Postgres
	case MySQL:
		c.MySQL = &MySQLConn{Port: 3306}
		target = c.MySQL
	case SQLite:
		c.SQLite = &SQLiteConn{}
		target = c.SQLite
	case Databricks:
		c.Databricks = &DatabricksConn{}
		target = c.Databricks
	default:
		return fmt.Errorf("conn.type %q is not one of %s", c.Type, typeList())
	}

	if err := decodeStrict(data, target); err != nil {
		return fmt.Errorf("conn (%s): %w", c.Type, err)
	}
	return nil
}

// MarshalJSON writes the active variant, password and token included.
// Use Redacted for anything that is logged.
func (c Connection) MarshalJSON() ([]byte, error) {
	switch {
	case c.Snowflake != nil:
		return json.Marshal(c.Snowflake)
	case c.Postgres != nil:
		return json.Marshal(c.Postgres)
	case c.MySQL != nil:
		return json.Marshal(c.MySQL)
	case c.SQLite != nil:
		return json.Marshal(c.SQLite)
	case c.Databricks != nil:
		return json.Marshal(c.Databricks)
	}
	return json.Marshal(map[string]BackendType{"type": c.Type})
}

// Redacted describes the connection for logs, without credentials.
func (c *Connection) Redacted() string {
	switch {
	case c.Snowflake != nil:
		return fmt.Sprintf("snowflake://%s@%s/%s", c.Snowflake.User, c.Snowflake.Account, c.Snowflake.Database)
	case c.Postgres != nil:
		return fmt.Sprintf("postgres://%s@%s:%d/%s", c.Postgres.User, c.Postgres.Host, c.Postgres.Port, c.Postgres.DBName)
	case c.MySQL != nil:
		return fmt.Sprintf("mysql://%s@%s:%d/%s", c.MySQL.User, c.MySQL.Host, c.MySQL.Port, c.MySQL.DBName)
	case c.SQLite != nil:
		return "sqlite://" + c.SQLite.Path
	case c.Databricks != nil:
		return "databricks://" + c.Databricks.ServerHostname
	}
	return string(c.Type)
}

// SupportedTypes lists every accepted connection type, reserved ones included.
func SupportedTypes() []BackendType {
	out := make([]BackendType, len(backendTypes))
	copy(out, backendTypes)
	return out
}

func typeList() string {
	types := SupportedTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// decodeStrict decodes one JSON object into v, rejecting unknown fields,
// duplicate keys and trailing data. Keys must match a json tag of v exactly;
// encoding/json alone would accept "Schema" or "SCHEMA" for "schema".
func decodeStrict(data []byte, v any) error {
	if err := checkKeys(data, fieldNames(reflect.TypeOf(v))); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}

// checkKeys walks the top-level object of data and fails on the first key
// outside allowed or seen twice.
func checkKeys(data []byte, allowed map[string]bool) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object")
	}

	seen := make(map[string]bool, len(allowed))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key")
		}
		if !allowed[key] {
			return fmt.Errorf("json: unknown field %q", key)
		}
		if seen[key] {
			return fmt.Errorf("json: duplicate field %q", key)
		}
		seen[key] = true

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return nil
}

var fieldCache sync.Map // reflect.Type -> map[string]bool

// fieldNames returns the exact JSON names of the fields of struct type t,
// or of the struct t points to.
func fieldNames(t reflect.Type) map[string]bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]bool)
	}

	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names[name] = true
	}
	fieldCache.Store(t, names)
	return names
}
