package args

import (
	"encoding/json"
	"testing"

	"github.com/koustreak/dbagent/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgConn = `{"type":"postgres","host":"h","user":"u","password":"p","dbname":"d"}`

func TestValidate_Defaults(t *testing.T) {
	a, err := Validate(ListSchema, []byte(`{"conn":`+pgConn+`,"schema":"public"}`))
	require.NoError(t, err)

	sa, ok := a.(*SchemaArgs)
	require.True(t, ok)
	require.NotNil(t, sa.Conn.Postgres)
	assert.Equal(t, Postgres, sa.Conn.Type)
	assert.Equal(t, 5432, sa.Conn.Postgres.Port)
	assert.Equal(t, "prefer", sa.Conn.Postgres.SSLMode)
	assert.Nil(t, sa.Database)
	assert.Equal(t, "public", *sa.Schema)
	assert.Nil(t, sa.Table)

	a, err = Validate(ExecuteQuery, []byte(`{"conn":{"type":"mysql","host":"h","user":"u","dbname":"d"},"sql":"SELECT 1"}`))
	require.NoError(t, err)
	assert.Equal(t, 3306, a.Connection().MySQL.Port)
}

func TestValidate_AllActions(t *testing.T) {
	tests := []struct {
		action  Action
		payload string
		want    any
	}{
		{ListSchema, `{"conn":{"type":"snowflake","account":"a","user":"u"}}`, &SchemaArgs{}},
		{GetOntology, `{"conn":{"type":"sqlite","path":"/tmp/x.db"},"schema":"main"}`, &SchemaArgs{}},
		{UpdateMetadata, `{"conn":` + pgConn + `,"level":"table","schema":"s","table":"t","comment":"c"}`, &MetadataArgs{}},
		{ExecuteQuery, `{"conn":` + pgConn + `,"sql":"SELECT 1"}`, &QueryArgs{}},
		{ViewCurrentOntology, `{"conn":` + pgConn + `}`, &OntologyArgs{}},
		{ListSchema, `{"conn":{"type":"databricks","server_hostname":"x"}}`, &SchemaArgs{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			a, err := Validate(tt.action, []byte(tt.payload))
			require.NoError(t, err)
			assert.IsType(t, tt.want, a)
		})
	}
}

func TestValidate_RejectsUnknownFields(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		payload string
	}{
		{"top level", ListSchema, `{"conn":` + pgConn + `,"extra":1}`},
		{"conn field of another type", ListSchema, `{"conn":{"type":"postgres","host":"h","user":"u","dbname":"d","account":"a"}}`},
		{"snowflake with host", ListSchema, `{"conn":{"type":"snowflake","account":"a","user":"u","host":"h"}}`},
		{"metadata typo", UpdateMetadata, `{"conn":` + pgConn + `,"level":"table","schema":"s","table":"t","coment":"x"}`},
		{"query with schema", ExecuteQuery, `{"conn":` + pgConn + `,"sql":"SELECT 1","schema":"s"}`},
		{"ontology with table", ViewCurrentOntology, `{"conn":` + pgConn + `,"table":"t"}`},
		{"trailing data", ExecuteQuery, `{"conn":` + pgConn + `,"sql":"SELECT 1"} {}`},
		{"case variant of payload key", ListSchema, `{"conn":` + pgConn + `,"Schema":"public"}`},
		{"case variant shadowing payload key", ListSchema, `{"conn":` + pgConn + `,"Schema":"public","schema":"other"}`},
		{"upper-case conn", ListSchema, `{"CONN":` + pgConn + `}`},
		{"upper-case conn fields", ListSchema, `{"conn":{"TYPE":"postgres","HOST":"db","User":"svc","DBNAME":"shop"}}`},
		{"case variant of conn type", ListSchema, `{"conn":{"type":"postgres","TYPE":"mysql","host":"h","user":"u","dbname":"d"}}`},
		{"duplicate key", ListSchema, `{"conn":` + pgConn + `,"schema":"a","schema":"b"}`},
		{"duplicate conn key", ListSchema, `{"conn":{"type":"postgres","host":"h","host":"evil","user":"u","dbname":"d"}}`},
		{"not an object", ListSchema, `["conn"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.action, []byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestValidate_RequiredAndTyped(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		payload  string
		contains string
	}{
		{"empty payload", ListSchema, ``, "empty"},
		{"missing conn", ListSchema, `{}`, "conn.type"},
		{"missing type", ListSchema, `{"conn":{"host":"h"}}`, "conn.type"},
		{"unknown type", ListSchema, `{"conn":{"type":"oracle"}}`, "oracle"},
		{"missing host", ListSchema, `{"conn":{"type":"postgres","user":"u","dbname":"d"}}`, "conn.host: required"},
		{"bad sslmode", ListSchema, `{"conn":{"type":"postgres","host":"h","user":"u","dbname":"d","sslmode":"maybe"}}`, "conn.sslmode: oneof"},
		{"port as string", ListSchema, `{"conn":{"type":"postgres","host":"h","user":"u","dbname":"d","port":"5432"}}`, "port"},
		{"missing schema", UpdateMetadata, `{"conn":` + pgConn + `,"level":"column","table":"t","column":"c"}`, "schema: required"},
		{"missing table", UpdateMetadata, `{"conn":` + pgConn + `,"level":"table","schema":"s"}`, "table: required"},
		{"bad level", UpdateMetadata, `{"conn":` + pgConn + `,"level":"row","schema":"s","table":"t"}`, "level: oneof"},
		{"missing sql", ExecuteQuery, `{"conn":` + pgConn + `}`, "sql: required"},
		{"sqlite without path", ListSchema, `{"conn":{"type":"sqlite"}}`, "conn.path: required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.action, []byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidate_UnknownAction(t *testing.T) {
	_, err := Validate(Action("drop_everything"), []byte(`{"conn":`+pgConn+`}`))
	require.Error(t, err)
	assert.True(t, errs.IsUnknownAction(err))
}

func TestMetadataArgs_ColumnName(t *testing.T) {
	a, err := Validate(UpdateMetadata, []byte(`{"conn":`+pgConn+`,"level":"column","schema":"s","table":"t","comment":"hi"}`))
	require.NoError(t, err, "missing column is checked at the point of use")

	_, err = a.(*MetadataArgs).ColumnName()
	require.Error(t, err)
	assert.True(t, errs.IsMissingColumn(err))

	empty := ""
	_, err = (&MetadataArgs{Column: &empty}).ColumnName()
	assert.True(t, errs.IsMissingColumn(err))

	col := "c"
	name, err := (&MetadataArgs{Column: &col}).ColumnName()
	require.NoError(t, err)
	assert.Equal(t, "c", name)
}

func TestConnection_MarshalAndRedact(t *testing.T) {
	a, err := Validate(ListSchema, []byte(`{"conn":`+pgConn+`}`))
	require.NoError(t, err)
	conn := a.Connection()

	out, err := json.Marshal(conn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"postgres","host":"h","port":5432,"user":"u","password":"p","dbname":"d","sslmode":"prefer"}`, string(out))

	assert.Equal(t, "postgres://u@h:5432/d", conn.Redacted())
	assert.NotContains(t, conn.Redacted(), "p@")
}

func TestValidate_UnknownTypeListsSupported(t *testing.T) {
	_, err := Validate(ListSchema, []byte(`{"conn":{"type":"oracle"}}`))
	require.Error(t, err)
	for _, bt := range SupportedTypes() {
		assert.Contains(t, err.Error(), string(bt))
	}
}

func TestSupportedTypes(t *testing.T) {
	types := SupportedTypes()
	assert.Contains(t, types, Snowflake)
	assert.Contains(t, types, Databricks)

	types[0] = "mutated"
	assert.Equal(t, Snowflake, SupportedTypes()[0])
}
