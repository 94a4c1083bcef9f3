package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/musicreward/musicreward/internal/model"
)

// Lookup is the music lookup surface the tools call.
type Lookup interface {
	Search(ctx context.Context, query string, limit int) []model.Song
	Charts(ctx context.Context, country string) []model.Song
	SongDetails(ctx context.Context, videoID string) model.Song
}

// Featured lists the active featured catalog.
type Featured interface {
	List(ctx context.Context) ([]model.FeaturedSong, error)
}

// MCPServer wraps the mcp-go server with MusicReward's read-only tools and
// resources, so AI agents can search music and browse the featured catalog.
type MCPServer struct {
	lookup   Lookup
	featured Featured
	logger   *slog.Logger
	server   *server.MCPServer
}

const instructions = `MusicReward is a listen-to-earn music catalog. Use musicreward_list_featured
for the curated songs users are rewarded for, musicreward_charts for the home
screen list and musicreward_search_songs to find other songs. All tools are
read-only. Song durations from search are a fixed 180 second placeholder; use
musicreward_song_details for the real length.`

// NewMCPServer creates an MCPServer pre-loaded with all MusicReward tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(lookup Lookup, featured Featured, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		lookup:   lookup,
		featured: featured,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"MusicReward",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, for clients that launch
// the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode on addr.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:   boolPtr(true),
		OpenWorldHint:  boolPtr(true),
		IdempotentHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
