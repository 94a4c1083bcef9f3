package handler

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMusicSearch_RequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/ytmusic/search", "/api/ytmusic/search?q=", "/api/ytmusic/search?q=%20%20"} {
		rr := env.do(t, "GET", path, nil)
		assertStatus(t, rr, http.StatusBadRequest)
	}
}

func TestMusicSearch_FallsBackToCatalog(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	addSong(t, env, token, map[string]interface{}{"videoId": "v1", "title": "Bohemian Rhapsody", "artist": "Queen"})
	addSong(t, env, token, map[string]interface{}{"videoId": "v2", "title": "Imagine", "artist": "John Lennon"})

	rr := env.do(t, "GET", "/api/ytmusic/search?q=queen", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Songs []struct {
			ID       string `json:"id"`
			AudioURL string `json:"audioUrl"`
		} `json:"songs"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Songs) != 1 || resp.Songs[0].ID != "v1" {
		t.Fatalf("songs = %+v, want only v1", resp.Songs)
	}
	if resp.Songs[0].AudioURL != "https://www.youtube.com/watch?v=v1" {
		t.Errorf("audioUrl = %q", resp.Songs[0].AudioURL)
	}
}

func TestMusicCharts(t *testing.T) {
	env := newTestEnv(t)

	// Nothing featured and no upstream key: empty, never an error.
	rr := env.do(t, "GET", "/api/ytmusic/charts?country=US", nil)
	assertStatus(t, rr, http.StatusOK)
	var empty struct {
		Songs []interface{} `json:"songs"`
	}
	decodeJSON(t, rr, &empty)
	if empty.Songs == nil || len(empty.Songs) != 0 {
		t.Errorf("songs = %v, want []", empty.Songs)
	}

	token := env.login(t)
	addSong(t, env, token, map[string]interface{}{"videoId": "v1", "title": "T", "artist": "A"})

	rr = env.do(t, "GET", "/api/ytmusic/charts", nil)
	var resp struct {
		Songs []struct {
			ID string `json:"id"`
		} `json:"songs"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.Songs) != 1 || resp.Songs[0].ID != "v1" {
		t.Errorf("songs = %+v, want featured v1", resp.Songs)
	}
}

func TestMusicSong_Placeholder(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/ytmusic/song/unknown", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Song struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Duration int    `json:"duration"`
		} `json:"song"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Song.ID != "unknown" || resp.Song.Title != "Song Not Found" || resp.Song.Duration != 180 {
		t.Errorf("song = %+v", resp.Song)
	}
}

func TestPlays_StartHeartbeatEnd(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/user/plays", toJSON(t, map[string]string{"userId": "u1", "videoId": "v1"}))
	assertStatus(t, rr, http.StatusCreated)
	var play struct {
		PlayID           string `json:"playId"`
		Token            string `json:"token"`
		ThresholdSeconds int    `json:"thresholdSeconds"`
		Amount           int64  `json:"amount"`
	}
	decodeJSON(t, rr, &play)
	if play.PlayID == "" || play.Token == "" || play.ThresholdSeconds != 30 || play.Amount != 5 {
		t.Fatalf("play = %+v", play)
	}

	hb := fmt.Sprintf("/api/user/plays/%s/heartbeat", play.PlayID)
	rr = env.do(t, "POST", hb, toJSON(t, map[string]interface{}{"token": play.Token, "playing": true}))
	assertStatus(t, rr, http.StatusOK)
	var res struct {
		State    string `json:"state"`
		Rewarded bool   `json:"rewarded"`
	}
	decodeJSON(t, rr, &res)
	if res.State != "playing" || res.Rewarded {
		t.Errorf("heartbeat = %+v, want playing without reward", res)
	}

	assertStatus(t, env.do(t, "POST", hb, toJSON(t, map[string]interface{}{"token": "forged", "playing": true})), http.StatusUnauthorized)
	assertStatus(t, env.do(t, "POST", hb, toJSON(t, map[string]interface{}{"playing": true})), http.StatusBadRequest)

	end := "/api/user/plays/" + play.PlayID
	assertStatus(t, env.do(t, "DELETE", end, nil), http.StatusBadRequest)
	assertStatus(t, env.do(t, "DELETE", end, toJSON(t, map[string]string{"token": "forged"})), http.StatusUnauthorized)
	assertStatus(t, env.do(t, "POST", hb, toJSON(t, map[string]interface{}{"token": play.Token, "playing": true})), http.StatusOK)

	assertStatus(t, env.do(t, "DELETE", end, toJSON(t, map[string]string{"token": play.Token})), http.StatusOK)
	assertStatus(t, env.do(t, "POST", hb, toJSON(t, map[string]interface{}{"token": play.Token, "playing": true})), http.StatusNotFound)
}

func TestPlays_Validation(t *testing.T) {
	env := newTestEnv(t)
	assertStatus(t, env.do(t, "POST", "/api/user/plays", toJSON(t, map[string]string{"userId": "u1"})), http.StatusBadRequest)
	assertStatus(t, env.do(t, "POST", "/api/user/plays", toJSON(t, map[string]string{"userId": "  ", "videoId": "v"})), http.StatusBadRequest)
}

func TestBalance(t *testing.T) {
	env := newTestEnv(t)
	assertStatus(t, env.do(t, "GET", "/api/user/balance", nil), http.StatusBadRequest)

	rr := env.do(t, "GET", "/api/user/balance?userId=u1", nil)
	assertStatus(t, rr, http.StatusOK)
	var resp struct {
		Wallet struct {
			UserID  string `json:"userId"`
			Balance int64  `json:"balance"`
		} `json:"wallet"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Wallet.UserID != "u1" || resp.Wallet.Balance != 0 {
		t.Errorf("wallet = %+v", resp.Wallet)
	}
}

func TestHealthAndTest(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/health", nil)
	assertStatus(t, rr, http.StatusOK)
	var health struct {
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		Environment string `json:"environment"`
	}
	decodeJSON(t, rr, &health)
	if health.Status != "OK" || health.Timestamp == "" || health.Environment != "" {
		t.Errorf("health = %+v", health)
	}

	rr = env.do(t, "GET", "/api/test", nil)
	assertStatus(t, rr, http.StatusOK)
	var test struct {
		Environment string `json:"environment"`
	}
	decodeJSON(t, rr, &test)
	if test.Environment != "memory" {
		t.Errorf("environment = %q, want memory", test.Environment)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/nope", nil)
	assertStatus(t, rr, http.StatusNotFound)

	var resp struct {
		Error  string `json:"error"`
		Path   string `json:"path"`
		Method string `json:"method"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Error != "Route not found" || resp.Path != "/api/nope" || resp.Method != "GET" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOpenAPISpec(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil)
	assertStatus(t, rr, http.StatusOK)
	var doc struct {
		OpenAPI string                 `json:"openapi"`
		Paths   map[string]interface{} `json:"paths"`
	}
	decodeJSON(t, rr, &doc)
	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if _, ok := doc.Paths["/api/featured-songs"]; !ok {
		t.Error("missing /api/featured-songs path")
	}
}
