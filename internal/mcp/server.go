package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/embedder"
	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "mchp-fpga-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Deps are the application services the MCP server exposes
type Deps struct {
	Search   *hybrid.Service
	Embedder embedder.Embedder
	Store    storage.Store
	Logger   *zap.Logger

	// DefaultTopK and MaxTopK bound the top_k tool parameter
	DefaultTopK int
	MaxTopK     int
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	search   *hybrid.Service
	embedder embedder.Embedder
	store    storage.Store
	logger   *zap.Logger

	defaultTopK int
	maxTopK     int
}

// NewServer creates a new MCP server instance
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultTopK := deps.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	maxTopK := deps.MaxTopK
	if maxTopK <= 0 {
		maxTopK = 20
	}

	s := &Server{
		mcp:         server.NewMCPServer(ServerName, ServerVersion),
		search:      deps.Search,
		embedder:    deps.Embedder,
		store:       deps.Store,
		logger:      logger,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting",
		zap.String("name", ServerName),
		zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocsTool(), s.handleSearchDocs)
	s.mcp.AddTool(docInfoTool(), s.handleDocInfo)
	s.mcp.AddTool(queryIPParametersTool(), s.handleQueryIPParameters)
	s.mcp.AddTool(explainErrorTool(), s.handleExplainError)
	s.mcp.AddTool(timingConstraintsTool(), s.handleTimingConstraints)
}
