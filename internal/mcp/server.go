package mcp

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/geosoft-mcp/internal/loader"
	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/metrics"
	"github.com/dshills/geosoft-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "geosoft-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	loader  *loader.Loader
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger

	// lock rejects a load_accession call while another is running
	lock    loader.LoadLock
	workers int
}

// Option configures a Server
type Option func(*Server)

// WithMetrics records rank requests on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithWorkers sets the loader concurrency used by load_accession
func WithWorkers(n int) Option {
	return func(s *Server) { s.workers = n }
}

// NewServer creates a new MCP server instance
func NewServer(store storage.Storage, ld *loader.Loader, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	if ld == nil {
		return nil, errors.New("loader is required")
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		storage: store,
		loader:  ld,
		logger:  logger.ComponentLogger("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.registerTools(); err != nil {
		return nil, errors.Wrap(err, "failed to register tools")
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	s.logger.Infow("serving on stdio", "server", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(loadAccessionTool(), s.handleLoadAccession)
	s.mcp.AddTool(listEntitiesTool(), s.handleListEntities)
	s.mcp.AddTool(getEntityTool(), s.handleGetEntity)
	s.mcp.AddTool(getDataTableTool(), s.handleGetDataTable)
	s.mcp.AddTool(rankNormalizedTool(), s.handleRankNormalized)
	s.mcp.AddTool(searchAttributesTool(), s.handleSearchAttributes)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}
