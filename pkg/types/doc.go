// Package types provides shared type definitions for the geosoft MCP server.
//
// This package defines domain types used across the parser, storage, loader
// and analysis components: entity keys, parsed data tables, validation
// warnings and the sentinel errors that classify parse failures.
//
// # Entities
//
// A SOFT document is a sequence of entities introduced by entity-indicator
// lines such as "^SAMPLE = GSM1". EntityKey identifies one of them:
//
//	key := types.EntityKey{Kind: types.KindSample, Name: "GSM1"}
//
// # Tables
//
// Platforms and samples may embed a tab-delimited data block. Once parsed it
// is exposed as a Table with named columns and row-major cells:
//
//	values, ok := table.Column("VALUE")
//
// # Errors and warnings
//
// Schema violations are not errors. They are collected as Warning values and
// parsing continues. Failures that do abort work wrap one of the sentinels in
// errors.go so callers can tell them apart:
//
//	if types.IsStructural(err) {
//	    // content appeared before any entity, nothing to salvage
//	}
//	if types.IsTableError(err) {
//	    // one entity's table is unusable, the rest of the model is fine
//	}
package types
