package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	featuredURI   = "musicreward://featured"
	songURIPrefix = "musicreward://song/"
	jsonMIMEType  = "application/json"
)

// registerResources adds read-only data that clients can load into their
// context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			featuredURI,
			"Featured Songs",
			mcp.WithResourceDescription("The active featured catalog in display order."),
			mcp.WithMIMEType(jsonMIMEType),
		),
		s.handleFeaturedResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			songURIPrefix+"{videoId}",
			"Song Details",
			mcp.WithTemplateDescription("Details for one YouTube video id."),
			mcp.WithTemplateMIMEType(jsonMIMEType),
		),
		s.handleSongResource,
	)
}

func (s *MCPServer) handleFeaturedResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	songs, err := s.featured.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured songs: %w", err)
	}
	return jsonContents(featuredURI, songs)
}

func (s *MCPServer) handleSongResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	videoID := strings.TrimPrefix(uri, songURIPrefix)
	if videoID == uri || !validVideoID(videoID) {
		return nil, fmt.Errorf("invalid song URI %q: expected %s{videoId}", uri, songURIPrefix)
	}
	return jsonContents(uri, s.lookup.SongDetails(ctx, videoID))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(b),
		},
	}, nil
}
