package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"sitecms/internal/service"
)

// Server is the MCP server for the CMS.
// It exposes tools, resources, and prompts so AI agents can edit the site.
type Server struct {
	mcp     *server.MCPServer
	svc     *service.Services
	emitter service.EventEmitter
	logger  *zap.Logger
}

// Deps holds the dependencies passed from the command layer.
type Deps struct {
	Services *service.Services
	Emitter  service.EventEmitter
	Logger   *zap.Logger
	Version  string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.LogEmitter{Logger: logger}
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{svc: deps.Services, emitter: emitter, logger: logger}

	s.mcp = server.NewMCPServer(
		"sitecms-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerButtonTools()
	s.registerPageTools()
	s.registerEditorTools()
	s.registerSiteTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// emitChanged tells listeners an agent modified site content.
func (s *Server) emitChanged(ctx context.Context, what, id string) {
	s.emitter.Emit(ctx, "mcp:content-changed", map[string]string{"kind": what, "id": id})
}
