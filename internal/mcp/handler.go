package mcp

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/musicreward/musicreward/internal/lookup"
	"github.com/musicreward/musicreward/internal/model"
)

// stringArg returns a trimmed argument that must be present and non-blank.
func stringArg(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	val = strings.TrimSpace(val)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// videoIDArg returns the videoId argument.
func videoIDArg(request mcp.CallToolRequest) (string, error) {
	id, err := stringArg(request, "videoId")
	if err != nil {
		return "", err
	}
	if !validVideoID(id) {
		return "", fmt.Errorf("invalid videoId %q", id)
	}
	return id, nil
}

// validVideoID rejects ids that cannot be YouTube video ids, so they never
// reach the upstream API.
func validVideoID(id string) bool {
	return id != "" && !strings.ContainsAny(id, " \t/?#")
}

// searchLimitArg returns the limit argument bounded to what the lookup
// service accepts.
func searchLimitArg(request mcp.CallToolRequest) int {
	return clamp(request.GetInt("limit", lookup.DefaultSearchLimit), 1, lookup.MaxSearchLimit)
}

// regionArg returns the optional country argument; "" selects the server
// region.
func regionArg(request mcp.CallToolRequest) string {
	return strings.TrimSpace(request.GetString("country", ""))
}

type songList[T any] struct {
	Songs []T `json:"songs"`
	Count int `json:"count"`
}

// songsResult renders a song list with its count. A nil list is rendered as
// an empty array.
func songsResult[T model.Song | model.FeaturedSong](songs []T) (*mcp.CallToolResult, error) {
	if songs == nil {
		songs = []T{}
	}
	return jsonResult(songList[T]{Songs: songs, Count: len(songs)})
}

// jsonResult returns v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError reports a failure to the calling model without closing the
// session.
func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

func clamp(val, lo, hi int) int {
	return max(lo, min(val, hi))
}
