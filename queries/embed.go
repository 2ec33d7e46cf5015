// Package queries embeds the default SQL template catalogs, one directory
// per dialect. A catalog directory on disk or in a bucket can replace them
// at runtime.
package queries

import "embed"

//go:embed */queries.json
var FS embed.FS
