package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	memorynet "github.com/unowned-ai/memorynet/pkg"
	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/legacy"
)

// Deps are the collaborators the tool handlers run against.
type Deps struct {
	Backend  *backend.SQL
	Gate     *legacy.Gate
	Brain    *brain.Synthesizer
	Location *time.Location
	Logger   *zap.Logger
}

type MemoryNetMCPServer struct {
	mcpServer *server.MCPServer
	deps      Deps
}

// NewMemoryNetMCPServer builds a stdio MCP server with every memorynet tool
// registered. The caller keeps ownership of the database.
func NewMemoryNetMCPServer(deps Deps) *MemoryNetMCPServer {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Brain == nil {
		deps.Brain = brain.NewSynthesizer(brain.DefaultMaxCitations, deps.Location)
	}
	if deps.Gate == nil {
		deps.Gate = legacy.NewGate(legacy.SQLStore{DB: deps.Backend.DB}, deps.Brain, deps.Location, deps.Logger)
	}

	s := server.NewMCPServer(
		"MemoryNet MCP Server",
		memorynet.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	RegisterPingTool(s)
	RegisterCreateMemoryTool(s, deps)
	RegisterListMemoriesTool(s, deps)
	RegisterGetMemoryTool(s, deps)
	RegisterUpdateMemoryTool(s, deps)
	RegisterDeleteMemoryTool(s, deps)
	RegisterShareMemoryTool(s, deps)
	RegisterSearchMemoriesTool(s, deps)
	RegisterListTagsTool(s, deps)
	RegisterAskMemoriesTool(s, deps)
	RegisterResolvePortalTool(s, deps)
	RegisterListLegacyMemoriesTool(s, deps)

	return &MemoryNetMCPServer{mcpServer: s, deps: deps}
}

// Start runs the stdio event loop until stdin closes.
func (s *MemoryNetMCPServer) Start() error {
	s.deps.Logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server.
func (s *MemoryNetMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
