package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func accessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "GEO accession of a loaded document (e.g. GSE2553, GPL570, GDS507)",
	}
}

func entityProperties() map[string]interface{} {
	return map[string]interface{}{
		"accession": accessionProperty(),
		"kind": map[string]interface{}{
			"type":        "string",
			"description": "Entity kind",
			"enum":        []string{"PLATFORM", "SERIES", "SAMPLE", "DATABASE", "DATASET", "SUBSET"},
		},
		"name": map[string]interface{}{
			"type":        "string",
			"description": "Entity name as it appears on the ^KIND = NAME line",
		},
	}
}

// loadAccessionTool returns the tool definition for load_accession
func loadAccessionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_accession",
		Description: "Download, parse and store a GEO SOFT file so its entities can be queried",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"accession": map[string]interface{}{
					"type":        "string",
					"description": "GEO accession: GDS, GPL or GSE followed by digits",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of a local decompressed SOFT file to load instead of downloading",
				},
				"full": map[string]interface{}{
					"type":        "boolean",
					"description": "For GDS accessions, fetch the *_full variant with gene annotations",
					"default":     false,
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-download and replace an already loaded document",
					"default":     false,
				},
			},
			Required: []string{"accession"},
		},
	}
}

// listEntitiesTool returns the tool definition for list_entities
func listEntitiesTool() mcp.Tool {
	props := entityProperties()
	delete(props, "name")
	return mcp.Tool{
		Name:        "list_entities",
		Description: "List the entities of a loaded document in file order, optionally filtered by kind",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"accession"},
		},
	}
}

// getEntityTool returns the tool definition for get_entity
func getEntityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_entity",
		Description: "Get the attributes, column descriptions and data table shape of one entity",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: entityProperties(),
			Required:   []string{"accession", "kind", "name"},
		},
	}
}

// getDataTableTool returns the tool definition for get_data_table
func getDataTableTool() mcp.Tool {
	props := entityProperties()
	props["offset"] = map[string]interface{}{
		"type":        "integer",
		"description": "Index of the first row to return",
		"default":     0,
		"minimum":     0,
	}
	props["limit"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of rows to return (1-1000)",
		"default":     100,
		"minimum":     1,
		"maximum":     1000,
	}
	return mcp.Tool{
		Name:        "get_data_table",
		Description: "Page through the data table of one entity",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"accession", "kind", "name"},
		},
	}
}

// rankNormalizedTool returns the tool definition for rank_normalized
func rankNormalizedTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rank_normalized",
		Description: "Rank-normalize the value column of every sample in a document (average ranks for ties)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"accession": accessionProperty(),
				"row_id": map[string]interface{}{
					"type":        "string",
					"description": "Return only this row (e.g. a probe id) across samples",
				},
				"value_column": map[string]interface{}{
					"type":        "string",
					"description": "Column to rank",
					"default":     "VALUE",
				},
				"id_column": map[string]interface{}{
					"type":        "string",
					"description": "Column naming each row",
					"default":     "ID_REF",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of rows to return (1-10000)",
					"default":     100,
					"minimum":     1,
					"maximum":     10000,
				},
			},
			Required: []string{"accession"},
		},
	}
}

// searchAttributesTool returns the tool definition for search_attributes
func searchAttributesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_attributes",
		Description: "Full-text search over attribute names and values of all loaded documents",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms; all terms must match",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report store statistics, or the load details and warnings of one document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"accession": map[string]interface{}{
					"type":        "string",
					"description": "Optional accession to report on",
				},
			},
		},
	}
}
