package handler

import (
	"net/http"
	"testing"
)

// ---------------------------------------------------------------------------
// Login / Logout / Profile
// ---------------------------------------------------------------------------

func TestLogin_ValidCredentials(t *testing.T) {
	env := newTestEnv(t)

	body := toJSON(t, map[string]string{"username": testUsername, "password": testPassword})
	rr := env.do(t, "POST", "/api/admin/login", body)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
		Admin struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"admin"`
	}
	decodeJSON(t, rr, &resp)

	if resp.Token == "" {
		t.Error("expected non-empty token")
	}
	if resp.Admin.ID == 0 || resp.Admin.Username != testUsername {
		t.Errorf("admin = %+v", resp.Admin)
	}

	rr = env.doAuth(t, "GET", "/api/admin/profile", resp.Token, nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestLogin_InvalidPassword(t *testing.T) {
	env := newTestEnv(t)
	body := toJSON(t, map[string]string{"username": testUsername, "password": "wrong"})
	rr := env.do(t, "POST", "/api/admin/login", body)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	body := toJSON(t, map[string]string{"username": "nobody", "password": testPassword})
	rr := env.do(t, "POST", "/api/admin/login", body)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []map[string]string{
		{"username": testUsername},
		{"password": testPassword},
		{},
	} {
		rr := env.do(t, "POST", "/api/admin/login", toJSON(t, body))
		assertStatus(t, rr, http.StatusBadRequest)
	}
}

func TestLogout_InvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rr := env.doAuth(t, "POST", "/api/admin/logout", token, nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAuth(t, "GET", "/api/admin/profile", token, nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	// Logging out again, or without a token, still succeeds.
	assertStatus(t, env.doAuth(t, "POST", "/api/admin/logout", token, nil), http.StatusOK)
	assertStatus(t, env.do(t, "POST", "/api/admin/logout", nil), http.StatusOK)
}

func TestProfile_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/admin/profile", nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	var resp struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Error != "Unauthorized" {
		t.Errorf("error = %q, want Unauthorized", resp.Error)
	}
}

func TestAdSettings_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rr := env.doAuth(t, "GET", "/api/admin/ad-settings", token, nil)
	assertStatus(t, rr, http.StatusOK)
	var initial struct {
		Settings struct {
			HeaderScript string `json:"headerScript"`
			IsEnabled    bool   `json:"isEnabled"`
		} `json:"settings"`
	}
	decodeJSON(t, rr, &initial)
	if initial.Settings.HeaderScript != "" || initial.Settings.IsEnabled {
		t.Errorf("initial settings = %+v", initial.Settings)
	}

	body := toJSON(t, map[string]interface{}{
		"headerScript": "<script>h()</script>",
		"footerScript": "<script>f()</script>",
		"bannerScript": "",
		"popupScript":  "<div>pop</div>",
		"isEnabled":    true,
	})
	assertStatus(t, env.doAuth(t, "POST", "/api/admin/ad-settings", token, body), http.StatusOK)

	rr = env.doAuth(t, "GET", "/api/admin/ad-settings", token, nil)
	var saved struct {
		Settings struct {
			HeaderScript string `json:"headerScript"`
			PopupScript  string `json:"popupScript"`
			IsEnabled    bool   `json:"isEnabled"`
		} `json:"settings"`
	}
	decodeJSON(t, rr, &saved)
	if saved.Settings.HeaderScript != "<script>h()</script>" || saved.Settings.PopupScript != "<div>pop</div>" || !saved.Settings.IsEnabled {
		t.Errorf("saved settings = %+v", saved.Settings)
	}
}

func TestAdSettings_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	assertStatus(t, env.do(t, "GET", "/api/admin/ad-settings", nil), http.StatusUnauthorized)
	assertStatus(t, env.do(t, "POST", "/api/admin/ad-settings", toJSON(t, map[string]bool{"isEnabled": true})), http.StatusUnauthorized)
}
