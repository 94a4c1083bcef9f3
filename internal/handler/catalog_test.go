package handler

import (
	"fmt"
	"net/http"
	"testing"
)

type songsBody struct {
	Songs []struct {
		ID           int64  `json:"id"`
		VideoID      string `json:"videoId"`
		Title        string `json:"title"`
		Thumbnail    string `json:"thumbnail"`
		Duration     int    `json:"duration"`
		IsActive     bool   `json:"isActive"`
		DisplayOrder int    `json:"displayOrder"`
	} `json:"songs"`
}

func addSong(t *testing.T, env *testEnv, token string, body map[string]interface{}) int64 {
	t.Helper()
	rr := env.doAuth(t, "POST", "/api/admin/featured-songs", token, toJSON(t, body))
	assertStatus(t, rr, http.StatusOK)
	var resp struct {
		Song struct {
			ID int64 `json:"id"`
		} `json:"song"`
	}
	decodeJSON(t, rr, &resp)
	return resp.Song.ID
}

func TestFeaturedSongs_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	addSong(t, env, token, map[string]interface{}{
		"videoId": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", "artist": "Rick Astley",
	})

	rr := env.do(t, "GET", "/api/featured-songs", nil)
	assertStatus(t, rr, http.StatusOK)
	var resp songsBody
	decodeJSON(t, rr, &resp)

	if len(resp.Songs) != 1 {
		t.Fatalf("len(songs) = %d, want 1", len(resp.Songs))
	}
	s := resp.Songs[0]
	if s.Duration != 180 {
		t.Errorf("duration = %d, want 180", s.Duration)
	}
	if s.Thumbnail != "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg" {
		t.Errorf("thumbnail = %q", s.Thumbnail)
	}
	if !s.IsActive || s.DisplayOrder != 0 {
		t.Errorf("song = %+v, want active with order 0", s)
	}
}

func TestFeaturedSongs_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing videoId", map[string]interface{}{"title": "T", "artist": "A"}},
		{"missing title", map[string]interface{}{"videoId": "v", "artist": "A"}},
		{"missing artist", map[string]interface{}{"videoId": "v", "title": "T"}},
		{"blank title", map[string]interface{}{"videoId": "v", "title": "   ", "artist": "A"}},
		{"negative duration", map[string]interface{}{"videoId": "v", "title": "T", "artist": "A", "duration": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.doAuth(t, "POST", "/api/admin/featured-songs", token, toJSON(t, tt.body))
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}

	rr := env.doAuth(t, "GET", "/api/admin/featured-songs", token, nil)
	var resp songsBody
	decodeJSON(t, rr, &resp)
	if len(resp.Songs) != 0 {
		t.Errorf("rejected songs were stored: %d", len(resp.Songs))
	}
}

func TestFeaturedSongs_OrderAndStatus(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	first := addSong(t, env, token, map[string]interface{}{"videoId": "a", "title": "A", "artist": "X", "displayOrder": 1})
	second := addSong(t, env, token, map[string]interface{}{"videoId": "b", "title": "B", "artist": "X", "displayOrder": 2})

	// Move b ahead of a.
	rr := env.doAuth(t, "PATCH", fmt.Sprintf("/api/admin/featured-songs/%d/order", second), token,
		toJSON(t, map[string]int{"displayOrder": 0}))
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/featured-songs", nil)
	var resp songsBody
	decodeJSON(t, rr, &resp)
	if len(resp.Songs) != 2 || resp.Songs[0].VideoID != "b" {
		t.Fatalf("order = %+v, want b first", resp.Songs)
	}

	// Hide a via the toggle alias.
	rr = env.doAuth(t, "PATCH", fmt.Sprintf("/api/admin/featured-songs/%d/toggle", first), token,
		toJSON(t, map[string]bool{"isActive": false}))
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/featured-songs", nil)
	resp = songsBody{}
	decodeJSON(t, rr, &resp)
	if len(resp.Songs) != 1 || resp.Songs[0].VideoID != "b" {
		t.Errorf("public list = %+v, want only b", resp.Songs)
	}

	rr = env.doAuth(t, "GET", "/api/admin/featured-songs", token, nil)
	resp = songsBody{}
	decodeJSON(t, rr, &resp)
	if len(resp.Songs) != 2 {
		t.Errorf("admin list = %d songs, want 2", len(resp.Songs))
	}
}

func TestFeaturedSongs_PatchValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	id := addSong(t, env, token, map[string]interface{}{"videoId": "a", "title": "A", "artist": "X"})

	assertStatus(t, env.doAuth(t, "PATCH", fmt.Sprintf("/api/admin/featured-songs/%d/order", id), token,
		toJSON(t, map[string]string{})), http.StatusBadRequest)
	assertStatus(t, env.doAuth(t, "PATCH", fmt.Sprintf("/api/admin/featured-songs/%d/status", id), token,
		toJSON(t, map[string]string{})), http.StatusBadRequest)
	assertStatus(t, env.doAuth(t, "PATCH", "/api/admin/featured-songs/abc/status", token,
		toJSON(t, map[string]bool{"isActive": true})), http.StatusBadRequest)
	assertStatus(t, env.doAuth(t, "PATCH", "/api/admin/featured-songs/999/status", token,
		toJSON(t, map[string]bool{"isActive": true})), http.StatusNotFound)
}

func TestFeaturedSongs_Delete(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	id := addSong(t, env, token, map[string]interface{}{"videoId": "a", "title": "A", "artist": "X"})

	path := fmt.Sprintf("/api/admin/featured-songs/%d", id)
	assertStatus(t, env.doAuth(t, "DELETE", path, token, nil), http.StatusOK)
	assertStatus(t, env.doAuth(t, "DELETE", path, token, nil), http.StatusNotFound)
}

func TestFeaturedSongs_AdminRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	body := toJSON(t, map[string]interface{}{"videoId": "a", "title": "A", "artist": "X"})
	assertStatus(t, env.do(t, "POST", "/api/admin/featured-songs", body), http.StatusUnauthorized)
	assertStatus(t, env.doAuth(t, "GET", "/api/admin/featured-songs", "bogus", nil), http.StatusUnauthorized)
}
