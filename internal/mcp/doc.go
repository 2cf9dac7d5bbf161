// Package mcp implements the Model Context Protocol (MCP) server for geosoft.
//
// The server exposes loaded GEO SOFT documents to MCP clients:
//   - load_accession: Download (or read locally), parse and store a SOFT file
//   - list_entities: List the entities of a loaded document
//   - get_entity: Attributes and column descriptions of one entity
//   - get_data_table: Page through an entity's data table
//   - rank_normalized: Per-sample rank normalization of a value column
//   - search_attributes: Full-text search over attribute names and values
//   - get_status: Store statistics or one document's load details
//
// # Protocol Overview
//
// MCP is JSON-RPC 2.0 over stdio. The server reads requests on stdin and
// writes responses on stdout; logs go to stderr.
//
//	geosoft serve
//
// # Tool: load_accession
//
//	Request:
//	{
//	  "name": "load_accession",
//	  "arguments": {"accession": "GSE2553", "force": false}
//	}
//
//	Response:
//	{
//	  "accession": "GSE2553",
//	  "loaded": true,
//	  "entities": 182,
//	  "warnings": 0,
//	  "table_errors": 0,
//	  "load_id": "5f1c...",
//	  "duration_ms": 5120
//	}
//
// Only one load runs at a time; a concurrent call fails with -32002.
//
// # Tool: rank_normalized
//
//	Request:
//	{
//	  "name": "rank_normalized",
//	  "arguments": {"accession": "GSE2553", "row_id": "1007_s_at"}
//	}
//
//	Response:
//	{
//	  "samples": ["GSM48681", "GSM48682"],
//	  "rows": [{"id": "1007_s_at", "ranks": [8121.5, null]}]
//	}
//
// Missing or non-numeric cells rank as null.
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments, unknown entity)
//   - -32603: Internal error (download, parse or database failure)
//   - -32001: Unknown accession prefix
//   - -32002: Load in progress
//   - -32003: Accession not loaded
//   - -32004: Empty search query
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "geosoft": {
//	      "command": "/usr/local/bin/geosoft",
//	      "args": ["serve"],
//	      "env": {"GEOSOFT_CACHE_DIR": "/data/geo"}
//	    }
//	  }
//	}
package mcp
