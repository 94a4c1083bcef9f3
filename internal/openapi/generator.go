// Package openapi builds the OpenAPI 3.1 description of the MusicReward HTTP
// API served at /openapi.json and printed by `musicreward openapi`.
package openapi

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/reward"
)

// Options selects which optional route groups the document describes.
type Options struct {
	BaseURL string
	Version string
	// RequireAdmin marks admin operations as needing a bearer token.
	RequireAdmin bool
	// ServerAttested adds the play session and wallet routes.
	ServerAttested bool
}

// Request bodies, mirrored from the handlers so the schema does not depend on
// handler internals.
type (
	loginBody struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	loginResult struct {
		Token     string             `json:"token"`
		ExpiresAt string             `json:"expiresAt"`
		Admin     model.AdminSummary `json:"admin"`
	}
	addSongBody struct {
		VideoID      string `json:"videoId"`
		Title        string `json:"title"`
		Artist       string `json:"artist"`
		Thumbnail    string `json:"thumbnail,omitempty"`
		Duration     *int   `json:"duration,omitempty"`
		DisplayOrder *int   `json:"displayOrder,omitempty"`
	}
	orderBody struct {
		DisplayOrder int `json:"displayOrder"`
	}
	statusBody struct {
		IsActive bool `json:"isActive"`
	}
	decisionBody struct {
		Status string `json:"status"`
	}
	withdrawBody struct {
		UserID         string `json:"userId,omitempty"`
		Amount         int64  `json:"amount"`
		PaymentMethod  string `json:"paymentMethod"`
		PaymentDetails string `json:"paymentDetails"`
	}
	withdrawResult struct {
		Success bool                  `json:"success"`
		Request model.WithdrawRequest `json:"request"`
	}
	startPlayBody struct {
		UserID  string `json:"userId"`
		VideoID string `json:"videoId"`
	}
	heartbeatBody struct {
		Token   string `json:"token"`
		Playing bool   `json:"playing"`
	}
	endPlayBody struct {
		Token string `json:"token"`
	}
)

// components lists the named schemas placed under #/components/schemas.
var components = map[string]any{
	"ErrorResponse":   model.ErrorResponse{},
	"SuccessResponse": model.SuccessResponse{},
	"HealthResponse":  model.HealthResponse{},
	"ClientConfig":    model.ClientConfig{},
	"AdminSummary":    model.AdminSummary{},
	"FeaturedSong":    model.FeaturedSong{},
	"Song":            model.Song{},
	"WithdrawRequest": model.WithdrawRequest{},
	"AdSettings":      model.AdSettings{},
	"Wallet":          model.Wallet{},
	"PlaySession":     reward.PlaySession{},
	"HeartbeatResult": reward.HeartbeatResult{},
}

type route struct {
	method   string
	path     string
	tag      string
	id       string
	summary  string
	admin    bool
	params   openapi3.Parameters
	body     any
	status   string
	response *openapi3.SchemaRef
}

// Generate builds the API document.
func Generate(opts Options) *openapi3.T {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "MusicReward API",
			Description: "Listen to curated music, earn rupiah rewards, and withdraw them. Admin endpoints curate the catalog, ad scripts, and withdrawals.",
			Version:     opts.Version,
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	c := openapi3.NewComponents()
	c.Schemas = openapi3.Schemas{}
	c.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "http",
				Scheme:      "bearer",
				Description: "Admin session token from POST /api/admin/login.",
			},
		},
	}
	for name, v := range components {
		c.Schemas[name] = openapi3.NewSchemaRef("", SchemaFor(v))
	}
	doc.Components = &c

	doc.Paths = openapi3.NewPaths()
	for _, rt := range routes(opts) {
		addRoute(doc, rt, opts.RequireAdmin)
	}
	return doc
}

func routes(opts Options) []route {
	songID := pathParam("id", "Featured song id", openapi3.NewInt64Schema())
	withdrawID := pathParam("id", "Withdraw request id", openapi3.NewInt64Schema())
	userID := openapi3.Parameters{queryParam("userId", "Listener id", true)}

	rs := []route{
		{method: "GET", path: "/api/health", tag: "system", id: "health", summary: "API health", response: ref("HealthResponse")},
		{method: "GET", path: "/api/test", tag: "system", id: "test", summary: "Connectivity check", response: ref("HealthResponse")},
		{method: "GET", path: "/api/config", tag: "system", id: "clientConfig", summary: "Reward and withdrawal policy", response: ref("ClientConfig")},

		{method: "POST", path: "/api/admin/login", tag: "admin", id: "adminLogin", summary: "Log in as admin", body: loginBody{}, response: inline(loginResult{})},
		{method: "POST", path: "/api/admin/logout", tag: "admin", id: "adminLogout", summary: "End the admin session", response: ref("SuccessResponse")},
		{method: "GET", path: "/api/admin/profile", tag: "admin", id: "adminProfile", summary: "Current admin", admin: true, response: object("admin", ref("AdminSummary"))},

		{method: "GET", path: "/api/featured-songs", tag: "catalog", id: "listFeaturedSongs", summary: "Active featured songs in display order", response: object("songs", arrayOf("FeaturedSong"))},
		{method: "GET", path: "/api/admin/featured-songs", tag: "catalog", id: "adminListFeaturedSongs", summary: "All featured songs", admin: true, response: object("songs", arrayOf("FeaturedSong"))},
		{method: "POST", path: "/api/admin/featured-songs", tag: "catalog", id: "addFeaturedSong", summary: "Add a featured song", admin: true, body: addSongBody{}, response: object("song", ref("FeaturedSong"))},
		{method: "DELETE", path: "/api/admin/featured-songs/{id}", tag: "catalog", id: "deleteFeaturedSong", summary: "Remove a featured song", admin: true, params: songID, response: ref("SuccessResponse")},
		{method: "PATCH", path: "/api/admin/featured-songs/{id}/order", tag: "catalog", id: "setFeaturedSongOrder", summary: "Change display order", admin: true, params: songID, body: orderBody{}, response: ref("SuccessResponse")},
		{method: "PATCH", path: "/api/admin/featured-songs/{id}/status", tag: "catalog", id: "setFeaturedSongStatus", summary: "Show or hide a song", admin: true, params: songID, body: statusBody{}, response: ref("SuccessResponse")},
		{method: "PATCH", path: "/api/admin/featured-songs/{id}/toggle", tag: "catalog", id: "toggleFeaturedSong", summary: "Show or hide a song (alias of /status)", admin: true, params: songID, body: statusBody{}, response: ref("SuccessResponse")},

		{method: "GET", path: "/api/admin/ad-settings", tag: "ads", id: "getAdSettings", summary: "Ad injection scripts", admin: true, response: object("settings", ref("AdSettings"))},
		{method: "POST", path: "/api/admin/ad-settings", tag: "ads", id: "saveAdSettings", summary: "Save ad injection scripts", admin: true, body: model.AdSettings{}, response: ref("SuccessResponse")},

		{method: "GET", path: "/api/ytmusic/search", tag: "music", id: "searchSongs", summary: "Search songs", params: openapi3.Parameters{
			queryParam("q", "Search text", true),
			&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("limit").WithDescription("Maximum results (1-50, default 25)").WithSchema(openapi3.NewIntegerSchema())},
		}, response: object("songs", arrayOf("Song"))},
		{method: "GET", path: "/api/ytmusic/charts", tag: "music", id: "charts", summary: "Featured catalog, or trending songs when it is empty", params: openapi3.Parameters{
			queryParam("country", "ISO 3166-1 alpha-2 region code", false),
		}, response: object("songs", arrayOf("Song"))},
		{method: "GET", path: "/api/ytmusic/song/{videoId}", tag: "music", id: "songDetails", summary: "Song details; unknown ids return a placeholder", params: pathParam("videoId", "YouTube video id", openapi3.NewStringSchema()), response: object("song", ref("Song"))},

		{method: "POST", path: "/api/user/withdraw", tag: "withdrawals", id: "createWithdraw", summary: "Request a withdrawal", body: withdrawBody{}, response: inline(withdrawResult{})},
		{method: "GET", path: "/api/user/withdrawals", tag: "withdrawals", id: "withdrawHistory", summary: "A listener's withdrawals, newest first", params: userID, response: object("requests", arrayOf("WithdrawRequest"))},
		{method: "GET", path: "/api/admin/withdrawals", tag: "withdrawals", id: "adminListWithdrawals", summary: "All withdrawals, newest first", admin: true, response: object("requests", arrayOf("WithdrawRequest"))},
		{method: "PATCH", path: "/api/admin/withdrawals/{id}", tag: "withdrawals", id: "decideWithdraw", summary: "Approve or reject a withdrawal", admin: true, params: withdrawID, body: decisionBody{}, response: ref("SuccessResponse")},
	}

	if opts.ServerAttested {
		playID := pathParam("playId", "Play session id", openapi3.NewStringSchema())
		rs = append(rs,
			route{method: "POST", path: "/api/user/plays", tag: "rewards", id: "startPlay", summary: "Start a server-attested play", body: startPlayBody{}, status: "201", response: ref("PlaySession")},
			route{method: "POST", path: "/api/user/plays/{playId}/heartbeat", tag: "rewards", id: "playHeartbeat", summary: "Report playback progress", params: playID, body: heartbeatBody{}, response: ref("HeartbeatResult")},
			route{method: "DELETE", path: "/api/user/plays/{playId}", tag: "rewards", id: "endPlay", summary: "End a play session", params: playID, body: endPlayBody{}, response: ref("SuccessResponse")},
			route{method: "GET", path: "/api/user/balance", tag: "rewards", id: "balance", summary: "Server-side wallet", params: userID, response: object("wallet", ref("Wallet"))},
		)
	}
	return rs
}

func addRoute(doc *openapi3.T, rt route, requireAdmin bool) {
	status := rt.status
	if status == "" {
		status = "200"
	}
	op := &openapi3.Operation{
		Tags:        []string{rt.tag},
		Summary:     rt.summary,
		OperationID: rt.id,
		Parameters:  rt.params,
		Responses:   newResponses(status, rt.summary, rt.response),
	}
	if rt.body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchema(SchemaFor(rt.body)),
			},
		}
	}
	if rt.admin && requireAdmin {
		op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}

	item := doc.Paths.Value(rt.path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(rt.path, item)
	}
	item.SetOperation(strings.ToUpper(rt.method), op)
}

// ─── Schema Helpers ─────────────────────────────────────────────────────────

// ref points at a component schema. The resolved value is attached so the
// document validates without a loader pass.
func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, SchemaFor(components[name]))
}

func arrayOf(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: ref(name),
	})
}

func object(field string, s *openapi3.SchemaRef) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{field: s},
		Required:   []string{field},
	})
}

func inline(v any) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", SchemaFor(v))
}

func pathParam(name, desc string, schema *openapi3.Schema) openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter(name).WithDescription(desc).WithSchema(schema)},
	}
}

func queryParam(name, desc string, required bool) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).
			WithDescription(desc).
			WithRequired(required).
			WithSchema(openapi3.NewStringSchema()),
	}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// newResponses builds a Responses map with a success response and standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponsesWithCapacity(5)

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for _, e := range []struct{ code, desc string }{
		{"400", "Bad request"},
		{"401", "Unauthorized"},
		{"404", "Not found"},
		{"500", "Internal server error"},
	} {
		desc := e.desc
		responses.Set(e.code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

// OperationCount returns the number of operations in doc.
func OperationCount(doc *openapi3.T) int {
	n := 0
	for _, item := range doc.Paths.Map() {
		n += len(item.Operations())
	}
	return n
}

// Describe returns a one-line summary used in CLI output.
func Describe(doc *openapi3.T) string {
	return fmt.Sprintf("%s %s: %d paths, %d operations", doc.Info.Title, doc.Info.Version, doc.Paths.Len(), OperationCount(doc))
}
