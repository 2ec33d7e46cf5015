package database

import "github.com/koustreak/dbagent/internal/catalog"

// Filter placeholder names shared by every dialect's catalog.
const (
	DatabaseFilter = "database_filter"
	SchemaFilter   = "schema_filter"
	TableFilter    = "table_filter"
)

// FilterFunc builds the filter parameters for a dialect.
type FilterFunc func(database, schema, table *string) catalog.Params

// WarehouseFilter builds database, schema and table fragments for
// warehouse-style dialects. A present value yields
// "AND <column> = '<value>'"; an absent one yields "".
//
// Values are interpolated without escaping. Callers that accept filter
// values from untrusted sources must vet them first.
func WarehouseFilter(database, schema, table *string) catalog.Params {
	return catalog.Params{
		DatabaseFilter: clause("table_catalog", database),
		SchemaFilter:   clause("table_schema", schema),
		TableFilter:    clause("table_name", table),
	}
}

// RelationalFilter is WarehouseFilter without the database dimension, for
// backends whose connection is already scoped to one database.
func RelationalFilter(_, schema, table *string) catalog.Params {
	return catalog.Params{
		SchemaFilter: clause("table_schema", schema),
		TableFilter:  clause("table_name", table),
	}
}

func clause(column string, value *string) string {
	if value == nil || *value == "" {
		return ""
	}
	return "AND " + column + " = '" + *value + "'"
}
