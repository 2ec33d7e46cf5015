package database

import (
	"context"

	"github.com/koustreak/dbagent/internal/args"
)

// Adapter is the capability set every backend implements.
// The dispatcher talks only to this interface; it never imports a backend
// package directly.
//
// Each call opens its own connection and releases it before returning.
type Adapter interface {
	// ListSchema returns one row per column, narrowed by the optional filters.
	// The column set of each row is defined by the dialect's template.
	ListSchema(ctx context.Context, database, schema, table *string) ([]Row, error)

	// UpdateMetadata applies comment and tag changes and commits them.
	// Changes already applied are not rolled back when a later one fails.
	UpdateMetadata(ctx context.Context, a *args.MetadataArgs) error

	// RunQuery executes sql verbatim. Statements without a result set
	// return an empty slice.
	RunQuery(ctx context.Context, sql string) ([]Row, error)

	// Ontology returns the foreign-key edges between tables.
	Ontology(ctx context.Context, database, schema *string) (*Ontology, error)
}

// OntologyStore reads the pre-materialized edge table.
type OntologyStore interface {
	CurrentOntology(ctx context.Context) (*Ontology, error)
}

// Rows is the iteration surface shared by database/sql and pgx result sets.
// Callers must always call Close() when done, even on error.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Close()
	Err() error
}
