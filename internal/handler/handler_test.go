package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/musicreward/musicreward/internal/lookup"
	"github.com/musicreward/musicreward/internal/openapi"
	"github.com/musicreward/musicreward/internal/reward"
	"github.com/musicreward/musicreward/internal/server/middleware"
	"github.com/musicreward/musicreward/internal/service"
	"github.com/musicreward/musicreward/internal/store/memory"
)

const (
	testUsername = "admin"
	testPassword = "audio"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store     *memory.Store
	sessions  *service.SessionManager
	catalog   *service.CatalogService
	withdraws *service.WithdrawService
	tracker   *reward.Tracker
	router    chi.Router
}

// newTestEnv wires every handler against an in-memory store and mounts the
// routes on a bare chi router. Admin routes require a bearer token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.New()

	sessions := service.NewSessionManager(st, st, time.Hour)
	if _, err := sessions.EnsureAdmin(context.Background(), testUsername, testPassword); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	catalog := service.NewCatalogService(st)
	withdraws := service.NewWithdrawService(st, st, service.WithdrawPolicy{Minimum: 100}, logger)
	ads := service.NewAdSettingsService(st)
	music := lookup.New(catalog, lookup.NewClient(lookup.ClientConfig{}), "ID", logger)
	tracker := reward.NewTracker(reward.TrackerConfig{
		Policy: reward.Policy{ThresholdSeconds: 30, Amount: 5},
		Secret: []byte("handler-test-secret"),
	}, st, logger)

	adminH := NewAdminHandler(sessions, logger)
	catalogH := NewCatalogHandler(catalog, logger)
	withdrawH := NewWithdrawHandler(withdraws, logger)
	adsH := NewAdSettingsHandler(ads, logger)
	musicH := NewMusicHandler(music)
	playH := NewPlayHandler(tracker, st, logger)
	systemH := NewSystemHandler("memory")

	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.Get("/openapi.json", NewOpenAPIHandler(openapi.Options{}).ServeSpec)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", systemH.Health)
		r.Get("/test", systemH.Test)
		r.Get("/featured-songs", catalogH.ListPublic)

		r.Post("/admin/login", adminH.Login)
		r.Post("/admin/logout", adminH.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(sessions, true))
			r.Get("/admin/profile", adminH.Profile)
			r.Get("/admin/featured-songs", catalogH.List)
			r.Post("/admin/featured-songs", catalogH.Create)
			r.Delete("/admin/featured-songs/{id}", catalogH.Delete)
			r.Patch("/admin/featured-songs/{id}/order", catalogH.SetOrder)
			r.Patch("/admin/featured-songs/{id}/status", catalogH.SetStatus)
			r.Patch("/admin/featured-songs/{id}/toggle", catalogH.SetStatus)
			r.Get("/admin/withdrawals", withdrawH.List)
			r.Patch("/admin/withdrawals/{id}", withdrawH.SetStatus)
			r.Get("/admin/ad-settings", adsH.Get)
			r.Post("/admin/ad-settings", adsH.Save)
		})

		r.Get("/ytmusic/search", musicH.Search)
		r.Get("/ytmusic/charts", musicH.Charts)
		r.Get("/ytmusic/song/{videoId}", musicH.Song)

		r.Post("/user/withdraw", withdrawH.Create)
		r.Get("/user/withdrawals", withdrawH.History)
		r.Post("/user/plays", playH.Start)
		r.Post("/user/plays/{playId}/heartbeat", playH.Heartbeat)
		r.Delete("/user/plays/{playId}", playH.End)
		r.Get("/user/balance", playH.Balance)
	})

	return &testEnv{
		store:     st,
		sessions:  sessions,
		catalog:   catalog,
		withdraws: withdraws,
		tracker:   tracker,
		router:    r,
	}
}

// login returns a bearer token for the seeded admin.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	sess, _, err := e.sessions.Login(context.Background(), testUsername, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return sess.Token
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAuth(t, method, path, "", body)
}

// doAuth is do with an Authorization: Bearer header when token is set.
func (e *testEnv) doAuth(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}
