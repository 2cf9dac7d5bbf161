package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/geosoft-mcp/internal/analysis"
	"github.com/dshills/geosoft-mcp/internal/loader"
	"github.com/dshills/geosoft-mcp/internal/source"
	"github.com/dshills/geosoft-mcp/internal/storage"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeUnknownAccession = -32001 // Accession is not a GDS, GPL or GSE
	ErrorCodeLoadInProgress   = -32002 // Another load operation is already running
	ErrorCodeNotLoaded        = -32003 // Accession not loaded
	ErrorCodeEmptyQuery       = -32004 // Query parameter is empty
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// handleLoadAccession handles the load_accession tool invocation
func (s *Server) handleLoadAccession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	accession, err := requireString(args, "accession")
	if err != nil {
		return nil, err
	}
	accession = source.NormalizeAccession(accession)

	path := getStringDefault(args, "path", "")
	if path != "" && !filepath.IsAbs(path) {
		return nil, newMCPError(ErrorCodeInvalidParams, "path must be absolute", map[string]interface{}{
			"param": "path",
			"value": path,
		})
	}
	if path == "" {
		if _, err := source.AccessionPath(accession, false); err != nil {
			return nil, newMCPError(ErrorCodeUnknownAccession, "unknown accession", map[string]interface{}{
				"accession": accession,
				"allowed":   []string{"GDS", "GPL", "GSE"},
			})
		}
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeLoadInProgress, "another load is already in progress", nil)
	}
	defer s.lock.Release()

	if path != "" {
		return s.loadLocalFile(ctx, accession, path)
	}

	cfg := &loader.Config{
		Workers: s.workers,
		Full:    getBoolDefault(args, "full", false),
		Force:   getBoolDefault(args, "force", false),
	}
	stats, err := s.loader.LoadAccessions(ctx, []string{accession}, cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "load failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if stats.Failed > 0 {
		return nil, newMCPError(ErrorCodeInternalError, "load failed", map[string]interface{}{
			"accession": accession,
			"errors":    stats.ErrorMessages,
		})
	}

	response := map[string]interface{}{
		"accession":    accession,
		"loaded":       stats.Loaded > 0,
		"skipped":      stats.Skipped > 0,
		"load_id":      stats.LoadID,
		"entities":     stats.Entities,
		"warnings":     stats.Warnings,
		"table_errors": stats.TableErrors,
		"duration_ms":  stats.Duration.Milliseconds(),
	}
	if stats.Skipped > 0 {
		response["message"] = "Accession already loaded. Pass force=true to reload it."
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) loadLocalFile(ctx context.Context, accession, path string) (*mcp.CallToolResult, error) {
	t0 := time.Now()
	doc, res, err := s.loader.LoadFile(ctx, accession, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "load failed", map[string]interface{}{
			"accession": accession,
			"path":      path,
			"error":     err.Error(),
		})
	}

	response := map[string]interface{}{
		"accession":    doc.Accession,
		"loaded":       true,
		"skipped":      false,
		"load_id":      doc.LoadID,
		"entities":     doc.EntityCount,
		"warnings":     doc.WarningCount,
		"table_errors": len(res.TableErrors),
		"duration_ms":  time.Since(t0).Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListEntities handles the list_entities tool invocation
func (s *Server) handleListEntities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	doc, err := s.documentArg(ctx, args)
	if err != nil {
		return nil, err
	}

	kind, err := kindArg(args, false)
	if err != nil {
		return nil, err
	}

	entities, err := s.storage.ListEntities(ctx, doc.ID, kind)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list entities", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(entities))
	for _, e := range entities {
		items = append(items, entitySummary(e))
	}

	response := map[string]interface{}{
		"accession": doc.Accession,
		"count":     len(items),
		"entities":  items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetEntity handles the get_entity tool invocation
func (s *Server) handleGetEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	doc, e, err := s.entityArg(ctx, args)
	if err != nil {
		return nil, err
	}

	attrs, err := s.storage.ListAttributes(ctx, e.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list attributes", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cols, err := s.storage.ListColumnDescriptions(ctx, e.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list column descriptions", map[string]interface{}{
			"error": err.Error(),
		})
	}

	attributes := make([]map[string]interface{}, 0, len(attrs))
	for _, a := range attrs {
		item := map[string]interface{}{
			"name": a.Name,
			"slot": a.Slot,
		}
		switch a.Slot {
		case "scalar":
			if len(a.Values) > 0 {
				item["value"] = a.Values[0]
			}
		case "list":
			item["values"] = a.Values
		}
		attributes = append(attributes, item)
	}

	columns := make([]map[string]interface{}, 0, len(cols))
	for _, c := range cols {
		columns = append(columns, map[string]interface{}{
			"column":      c.Column,
			"description": c.Description,
		})
	}

	response := entitySummary(e)
	response["accession"] = doc.Accession
	response["attributes"] = attributes
	response["column_descriptions"] = columns
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDataTable handles the get_data_table tool invocation
func (s *Server) handleGetDataTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset must not be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}
	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	doc, e, err := s.entityArg(ctx, args)
	if err != nil {
		return nil, err
	}

	if !e.HasDataTable {
		response := entitySummary(e)
		response["accession"] = doc.Accession
		response["rows"] = [][]string{}
		response["message"] = "Entity has no data table."
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	rows, err := s.storage.ListTableRows(ctx, e.ID, offset, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read table rows", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"accession":  doc.Accession,
		"kind":       string(e.Kind),
		"name":       e.Name,
		"columns":    e.TableColumns,
		"total_rows": e.RowCount,
		"offset":     offset,
		"rows":       rows,
	}
	if e.TableError != nil {
		response["table_error"] = *e.TableError
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRankNormalized handles the rank_normalized tool invocation
func (s *Server) handleRankNormalized(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 10000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 10000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	doc, err := s.documentArg(ctx, args)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RankRequests.Inc()
	}

	src, err := analysis.LoadStoredSamples(ctx, s.storage, doc.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read sample tables", map[string]interface{}{
			"error": err.Error(),
		})
	}

	ranker := analysis.NewRanker(src,
		analysis.WithValueColumn(getStringDefault(args, "value_column", analysis.DefaultValueColumn)),
		analysis.WithIDColumn(getStringDefault(args, "id_column", analysis.DefaultIDColumn)),
	)
	matrix, err := ranker.RankNormalized()
	if errors.Is(err, analysis.ErrNoSamples) {
		return nil, newMCPError(ErrorCodeInvalidParams, "no sample carries a rankable data table", map[string]interface{}{
			"accession":    doc.Accession,
			"value_column": getStringDefault(args, "value_column", analysis.DefaultValueColumn),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "rank normalization failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"accession":  doc.Accession,
		"samples":    matrix.Samples,
		"skipped":    matrix.Skipped,
		"total_rows": len(matrix.RowIDs),
	}

	if rowID := getStringDefault(args, "row_id", ""); rowID != "" {
		ranks, found := matrix.Row(rowID)
		if !found {
			return nil, newMCPError(ErrorCodeInvalidParams, "row not found", map[string]interface{}{
				"param": "row_id",
				"value": rowID,
			})
		}
		response["rows"] = []map[string]interface{}{{"id": rowID, "ranks": nullableRanks(ranks)}}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	n := len(matrix.RowIDs)
	if n > limit {
		n = limit
	}
	rows := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]interface{}{
			"id":    matrix.RowIDs[i],
			"ranks": nullableRanks(matrix.Ranks[i]),
		})
	}
	response["rows"] = rows
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchAttributes handles the search_attributes tool invocation
func (s *Server) handleSearchAttributes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	start := time.Now()
	matches, err := s.storage.SearchAttributes(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(matches))
	for _, m := range matches {
		results = append(results, map[string]interface{}{
			"accession": m.Accession,
			"kind":      string(m.Entity.Kind),
			"name":      m.Entity.Name,
			"attribute": m.Attribute,
			"values":    m.Values,
			"score":     m.Score,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_results": len(results),
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	if acc := getStringDefault(args, "accession", ""); acc != "" {
		return s.documentStatus(ctx, acc)
	}

	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}
	docs, err := s.storage.ListDocuments(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
	}

	documents := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		documents = append(documents, documentSummary(d))
	}

	response := map[string]interface{}{
		"load_in_progress": s.lock.Busy(),
		"documents":        documents,
		"statistics": map[string]interface{}{
			"documents_count":  status.Documents,
			"entities_count":   status.Entities,
			"attributes_count": status.Attributes,
			"table_rows_count": status.TableRows,
			"warnings_count":   status.Warnings,
			"store_size_mb":    fmt.Sprintf("%.2f", status.SizeMB),
			"schema_version":   status.SchemaVersion,
			"build_mode":       status.BuildMode,
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_index_built":     status.Health.FTSIndexBuilt,
		},
	}
	if !status.LastLoadedAt.IsZero() {
		response["last_loaded_at"] = status.LastLoadedAt.Format(timeLayout)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) documentStatus(ctx context.Context, accession string) (*mcp.CallToolResult, error) {
	accession = source.NormalizeAccession(accession)
	doc, err := s.storage.GetDocument(ctx, accession)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"loaded":    false,
			"accession": accession,
			"message":   "Accession not loaded. Use load_accession tool to load it.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	warnings, err := s.storage.ListWarnings(ctx, doc.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list warnings", map[string]interface{}{
			"error": err.Error(),
		})
	}
	items := make([]map[string]interface{}, 0, len(warnings))
	for _, w := range warnings {
		items = append(items, map[string]interface{}{
			"kind":      string(w.Entity.Kind),
			"name":      w.Entity.Name,
			"attribute": w.Attribute,
			"code":      string(w.Code),
			"message":   w.Message,
		})
	}

	response := map[string]interface{}{
		"loaded":   true,
		"document": documentSummary(doc),
		"warnings": items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// documentArg resolves the required accession argument to a stored document
func (s *Server) documentArg(ctx context.Context, args map[string]interface{}) (*storage.Document, error) {
	accession, err := requireString(args, "accession")
	if err != nil {
		return nil, err
	}
	accession = source.NormalizeAccession(accession)

	doc, err := s.storage.GetDocument(ctx, accession)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotLoaded, "accession not loaded", map[string]interface{}{
			"accession": accession,
			"hint":      "use load_accession first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return doc, nil
}

// entityArg resolves accession, kind and name to a stored entity
func (s *Server) entityArg(ctx context.Context, args map[string]interface{}) (*storage.Document, *storage.Entity, error) {
	kind, err := kindArg(args, true)
	if err != nil {
		return nil, nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.documentArg(ctx, args)
	if err != nil {
		return nil, nil, err
	}

	key := types.EntityKey{Kind: kind, Name: name}
	e, err := s.storage.GetEntity(ctx, doc.ID, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, newMCPError(ErrorCodeInvalidParams, "entity not found", map[string]interface{}{
			"accession": doc.Accession,
			"entity":    key.String(),
		})
	}
	if err != nil {
		return nil, nil, newMCPError(ErrorCodeInternalError, "failed to get entity", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return doc, e, nil
}

// kindArg reads the kind argument; an empty optional kind means all kinds
func kindArg(args map[string]interface{}, required bool) (types.EntityKind, error) {
	raw := strings.ToUpper(strings.TrimSpace(getStringDefault(args, "kind", "")))
	if raw == "" {
		if required {
			return "", newMCPError(ErrorCodeInvalidParams, "kind parameter is required", map[string]interface{}{
				"param":  "kind",
				"reason": "missing or empty",
			})
		}
		return "", nil
	}
	kind := types.EntityKind(raw)
	if !kind.IsKnown() {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
			"param": "kind",
			"value": raw,
		})
	}
	return kind, nil
}

func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return strings.TrimSpace(val), nil
}

func entitySummary(e *storage.Entity) map[string]interface{} {
	out := map[string]interface{}{
		"kind":           string(e.Kind),
		"name":           e.Name,
		"position":       e.Position,
		"has_data_table": e.HasDataTable,
	}
	if e.HasDataTable {
		out["columns"] = e.TableColumns
		out["row_count"] = e.RowCount
	}
	if e.TableError != nil {
		out["table_error"] = *e.TableError
	}
	return out
}

func documentSummary(d *storage.Document) map[string]interface{} {
	return map[string]interface{}{
		"accession":     d.Accession,
		"source":        d.Source,
		"load_id":       d.LoadID,
		"full":          d.Full,
		"entity_count":  d.EntityCount,
		"warning_count": d.WarningCount,
		"loaded_at":     d.LoadedAt.Format(timeLayout),
	}
}

// nullableRanks maps NaN ranks to nil so they encode as JSON null
func nullableRanks(ranks []float64) []interface{} {
	out := make([]interface{}, len(ranks))
	for i, r := range ranks {
		if !math.IsNaN(r) {
			out[i] = r
		}
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
