// Package args defines the typed payload of every dispatcher action and
// validates raw JSON into it.
//
// Validation is closed: a payload with any field outside its action's
// schema is rejected before an adapter is constructed.
package args

import (
	"github.com/koustreak/dbagent/internal/errs"
)

// Action names one of the dispatcher's operations.
type Action string

const (
	ListSchema          Action = "list_schema"
	UpdateMetadata      Action = "update_metadata"
	ExecuteQuery        Action = "execute_query"
	GetOntology         Action = "get_ontology"
	ViewCurrentOntology Action = "view_current_ontology"
)

// Actions returns every known action in a stable order.
func Actions() []Action {
	return []Action{ListSchema, UpdateMetadata, ExecuteQuery, GetOntology, ViewCurrentOntology}
}

// Args is implemented by every action payload.
type Args interface {
	Connection() *Connection
}

// SchemaArgs is the payload of list_schema and get_ontology. Each filter
// narrows the result further.
type SchemaArgs struct {
	Conn     Connection `json:"conn"`
	Database *string    `json:"database"`
	Schema   *string    `json:"schema"`
	Table    *string    `json:"table"`
}

// Level selects what update_metadata annotates.
type Level string

const (
	LevelTable  Level = "table"
	LevelColumn Level = "column"
)

// MetadataArgs is the payload of update_metadata.
type MetadataArgs struct {
	Conn     Connection        `json:"conn"`
	Level    Level             `json:"level" validate:"required,oneof=table column"`
	Database *string           `json:"database"`
	Schema   string            `json:"schema" validate:"required"`
	Table    string            `json:"table" validate:"required"`
	Column   *string           `json:"column"`
	Comment  *string           `json:"comment"`
	Tags     map[string]string `json:"tags"`
}

// ColumnName returns the column for a column-level update.
func (m *MetadataArgs) ColumnName() (string, error) {
	if m.Column == nil || *m.Column == "" {
		return "", errs.New(errs.ErrKindMissingColumn, "column required for level=column")
	}
	return *m.Column, nil
}

// QueryArgs is the payload of execute_query. SQL runs verbatim.
type QueryArgs struct {
	Conn Connection `json:"conn"`
	SQL  string     `json:"sql" validate:"required"`
}

// OntologyArgs is the payload of view_current_ontology.
type OntologyArgs struct {
	Conn Connection `json:"conn"`
}

func (a *SchemaArgs) Connection() *Connection   { return &a.Conn }
func (a *MetadataArgs) Connection() *Connection { return &a.Conn }
func (a *QueryArgs) Connection() *Connection    { return &a.Conn }
func (a *OntologyArgs) Connection() *Connection { return &a.Conn }
