package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerTools registers all MusicReward MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("musicreward_search_songs",
			mcp.WithDescription(
				"Search for songs by title or artist. Uses YouTube when an API key is "+
					"configured and the featured catalog otherwise. Returns id, title, "+
					"artist, thumbnail, duration (seconds) and audioUrl for each song.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search terms, e.g. \"dewa 19\""),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of songs (default 25, max 50)"),
			),
		),
		s.handleSearchSongs,
	)

	srv.AddTool(
		mcp.NewTool("musicreward_charts",
			mcp.WithDescription(
				"List the songs shown on the home screen: the active featured catalog, "+
					"or trending music for the region when nothing is featured.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("country",
				mcp.Description("ISO 3166 region code, e.g. \"ID\" or \"US\". Defaults to the server region."),
			),
		),
		s.handleCharts,
	)

	srv.AddTool(
		mcp.NewTool("musicreward_song_details",
			mcp.WithDescription(
				"Get details for one YouTube video id. Unknown ids return a "+
					"\"Song Not Found\" placeholder rather than an error.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("videoId",
				mcp.Required(),
				mcp.Description("YouTube video id, e.g. \"dQw4w9WgXcQ\""),
			),
		),
		s.handleSongDetails,
	)

	srv.AddTool(
		mcp.NewTool("musicreward_list_featured",
			mcp.WithDescription(
				"List the active featured songs in display order, including their "+
					"catalog ids and display order.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListFeatured,
	)
}

func (s *MCPServer) handleSearchSongs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := stringArg(request, "query")
	if err != nil {
		return toolError("%v", err)
	}
	return songsResult(s.lookup.Search(ctx, query, searchLimitArg(request)))
}

func (s *MCPServer) handleCharts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return songsResult(s.lookup.Charts(ctx, regionArg(request)))
}

func (s *MCPServer) handleSongDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := videoIDArg(request)
	if err != nil {
		return toolError("%v", err)
	}
	return jsonResult(s.lookup.SongDetails(ctx, videoID))
}

func (s *MCPServer) handleListFeatured(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	songs, err := s.featured.List(ctx)
	if err != nil {
		s.logger.Error("mcp list featured", "error", err)
		return toolError("failed to list featured songs: %v", err)
	}
	return songsResult(songs)
}
