// Package schemas embeds the JSON Schemas for analysis.yaml and persisted result files.
package schemas

import _ "embed"

//go:embed analysis.schema.json
var AnalysisSchemaJSON string

//go:embed results.schema.json
var ResultsSchemaJSON string
