package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/musicreward/musicreward/internal/model"
)

type fakeLookup struct {
	lastQuery   string
	lastLimit   int
	lastCountry string
}

func (f *fakeLookup) Search(_ context.Context, query string, limit int) []model.Song {
	f.lastQuery, f.lastLimit = query, limit
	return []model.Song{{ID: "s1", Title: query, Duration: 180}}
}

func (f *fakeLookup) Charts(_ context.Context, country string) []model.Song {
	f.lastCountry = country
	return []model.Song{}
}

func (f *fakeLookup) SongDetails(_ context.Context, videoID string) model.Song {
	return model.SongNotFound(videoID)
}

type fakeFeatured struct {
	songs []model.FeaturedSong
	err   error
}

func (f *fakeFeatured) List(context.Context) ([]model.FeaturedSong, error) {
	return f.songs, f.err
}

func newTestServer(featured *fakeFeatured) (*MCPServer, *fakeLookup) {
	l := &fakeLookup{}
	if featured == nil {
		featured = &fakeFeatured{}
	}
	return NewMCPServer(l, featured, "test", slog.New(slog.NewTextHandler(io.Discard, nil))), l
}

func callTool(t *testing.T, s *MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.Server().GetTool(name)
	if tool == nil {
		t.Fatalf("tool %q not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestToolsRegistered(t *testing.T) {
	s, _ := newTestServer(nil)
	tools := s.Server().ListTools()

	for _, name := range []string{
		"musicreward_search_songs",
		"musicreward_charts",
		"musicreward_song_details",
		"musicreward_list_featured",
	} {
		tool, ok := tools[name]
		if !ok {
			t.Errorf("missing tool %s", name)
			continue
		}
		if hint := tool.Tool.Annotations.ReadOnlyHint; hint == nil || !*hint {
			t.Errorf("%s should be read-only", name)
		}
	}
	if len(tools) != 4 {
		t.Errorf("tool count = %d, want 4", len(tools))
	}
}

func TestSearchSongsTool(t *testing.T) {
	s, l := newTestServer(nil)

	res := callTool(t, s, "musicreward_search_songs", map[string]any{"query": " noah ", "limit": float64(500)})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	if l.lastQuery != "noah" || l.lastLimit != 50 {
		t.Errorf("lookup called with (%q, %d), want (noah, 50)", l.lastQuery, l.lastLimit)
	}

	var out struct {
		Songs []model.Song `json:"songs"`
		Count int          `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || out.Songs[0].ID != "s1" {
		t.Errorf("out = %+v", out)
	}
}

func TestSearchSongsRequiresQuery(t *testing.T) {
	s, _ := newTestServer(nil)
	for _, args := range []map[string]any{{}, {"query": "   "}} {
		res := callTool(t, s, "musicreward_search_songs", args)
		if !res.IsError {
			t.Errorf("args %v: expected tool error", args)
		}
	}
}

func TestSearchSongsDefaultLimit(t *testing.T) {
	s, l := newTestServer(nil)
	callTool(t, s, "musicreward_search_songs", map[string]any{"query": "x"})
	if l.lastLimit != 25 {
		t.Errorf("limit = %d, want 25", l.lastLimit)
	}
}

func TestChartsTool(t *testing.T) {
	s, l := newTestServer(nil)
	res := callTool(t, s, "musicreward_charts", map[string]any{"country": "us"})
	if res.IsError {
		t.Fatal("unexpected error")
	}
	if l.lastCountry != "us" {
		t.Errorf("country = %q", l.lastCountry)
	}
	if !strings.Contains(resultText(t, res), `"songs": []`) {
		t.Errorf("text = %s, want empty songs array", resultText(t, res))
	}
}

func TestSongDetailsTool(t *testing.T) {
	s, _ := newTestServer(nil)

	res := callTool(t, s, "musicreward_song_details", map[string]any{"videoId": "zzz"})
	var song model.Song
	if err := json.Unmarshal([]byte(resultText(t, res)), &song); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if song.ID != "zzz" || song.Title != "Song Not Found" {
		t.Errorf("song = %+v", song)
	}

	if res := callTool(t, s, "musicreward_song_details", nil); !res.IsError {
		t.Error("expected tool error without videoId")
	}
	if res := callTool(t, s, "musicreward_song_details", map[string]any{"videoId": "a/../b"}); !res.IsError {
		t.Error("expected tool error for malformed videoId")
	}
}

func TestSongsResultNil(t *testing.T) {
	res, err := songsResult[model.Song](nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), `"songs": []`) || !strings.Contains(resultText(t, res), `"count": 0`) {
		t.Errorf("text = %s, want empty list", resultText(t, res))
	}
}

func TestListFeaturedTool(t *testing.T) {
	s, _ := newTestServer(&fakeFeatured{songs: []model.FeaturedSong{
		{ID: 1, VideoID: "a", Title: "A", IsActive: true},
		{ID: 2, VideoID: "b", Title: "B", IsActive: true, DisplayOrder: 1},
	}})
	res := callTool(t, s, "musicreward_list_featured", nil)

	var out struct {
		Songs []model.FeaturedSong `json:"songs"`
		Count int                  `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || out.Songs[1].VideoID != "b" {
		t.Errorf("out = %+v", out)
	}

	s, _ = newTestServer(&fakeFeatured{err: errors.New("db down")})
	res = callTool(t, s, "musicreward_list_featured", nil)
	if !res.IsError || !strings.Contains(resultText(t, res), "db down") {
		t.Errorf("expected tool error mentioning the cause, got %+v", res)
	}
}

func TestSongResource(t *testing.T) {
	s, _ := newTestServer(nil)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "musicreward://song/abc"
	contents, err := s.handleSongResource(context.Background(), req)
	if err != nil {
		t.Fatalf("handleSongResource: %v", err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok || text.URI != "musicreward://song/abc" || !strings.Contains(text.Text, `"id": "abc"`) {
		t.Errorf("contents = %+v", contents)
	}

	req.Params.URI = "musicreward://song/"
	if _, err := s.handleSongResource(context.Background(), req); err == nil {
		t.Error("expected error for empty video id")
	}
}

func TestFeaturedResource(t *testing.T) {
	s, _ := newTestServer(&fakeFeatured{songs: []model.FeaturedSong{{ID: 7, VideoID: "v"}}})
	contents, err := s.handleFeaturedResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleFeaturedResource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents)
	if text.MIMEType != "application/json" || !strings.Contains(text.Text, `"videoId": "v"`) {
		t.Errorf("contents = %+v", text)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      int
		min      int
		max      int
		expected int
	}{
		{"value in range", 5, 1, 10, 5},
		{"value below min", -3, 1, 10, 1},
		{"value above max", 15, 1, 10, 10},
		{"value equals min", 1, 1, 10, 1},
		{"value equals max", 10, 1, 10, 10},
		{"negative limit", -50, 1, 50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clamp(tt.val, tt.min, tt.max)
			if got != tt.expected {
				t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.expected)
			}
		})
	}
}
