package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type withdrawBody struct {
	Success bool `json:"success"`
	Request struct {
		ID            int64   `json:"id"`
		UserID        string  `json:"userId"`
		Amount        int64   `json:"amount"`
		WalletAddress string  `json:"walletAddress"`
		Status        string  `json:"status"`
		ProcessedAt   *string `json:"processedAt"`
	} `json:"request"`
}

type requestsBody struct {
	Requests []struct {
		ID          int64   `json:"id"`
		UserID      string  `json:"userId"`
		Amount      int64   `json:"amount"`
		Status      string  `json:"status"`
		ProcessedAt *string `json:"processedAt"`
	} `json:"requests"`
}

func createWithdraw(t *testing.T, env *testEnv, userID string, amount int64) withdrawBody {
	t.Helper()
	rr := env.do(t, "POST", "/api/user/withdraw", toJSON(t, map[string]interface{}{
		"userId": userID, "amount": amount, "paymentMethod": "DANA", "paymentDetails": "0812",
	}))
	assertStatus(t, rr, http.StatusOK)
	var resp withdrawBody
	decodeJSON(t, rr, &resp)
	return resp
}

func TestWithdraw_Create(t *testing.T) {
	env := newTestEnv(t)
	resp := createWithdraw(t, env, "u1", 150)

	if !resp.Success {
		t.Error("success = false")
	}
	r := resp.Request
	if r.ID == 0 || r.Status != "pending" || r.Amount != 150 {
		t.Errorf("request = %+v", r)
	}
	if r.WalletAddress != "DANA: 0812" {
		t.Errorf("walletAddress = %q, want %q", r.WalletAddress, "DANA: 0812")
	}
	if r.ProcessedAt != nil {
		t.Errorf("processedAt = %v, want null", *r.ProcessedAt)
	}
}

func TestWithdraw_BelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/user/withdraw", toJSON(t, map[string]interface{}{
		"userId": "u1", "amount": 50, "paymentMethod": "DANA", "paymentDetails": "0812",
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	var resp struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	decodeJSON(t, rr, &resp)
	if !strings.Contains(resp.Details, "100") {
		t.Errorf("details = %q, want the minimum named", resp.Details)
	}

	rr = env.do(t, "GET", "/api/user/withdrawals?userId=u1", nil)
	var list requestsBody
	decodeJSON(t, rr, &list)
	if len(list.Requests) != 0 {
		t.Errorf("rejected request was stored")
	}
}

func TestWithdraw_MissingPayment(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/user/withdraw", toJSON(t, map[string]interface{}{
		"userId": "u1", "amount": 500, "paymentMethod": "DANA",
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestWithdraw_HistoryAndList(t *testing.T) {
	env := newTestEnv(t)
	createWithdraw(t, env, "u1", 100)
	createWithdraw(t, env, "u2", 200)
	createWithdraw(t, env, "u1", 300)

	assertStatus(t, env.do(t, "GET", "/api/user/withdrawals", nil), http.StatusBadRequest)

	rr := env.do(t, "GET", "/api/user/withdrawals?userId=u1", nil)
	assertStatus(t, rr, http.StatusOK)
	var mine requestsBody
	decodeJSON(t, rr, &mine)
	if len(mine.Requests) != 2 {
		t.Fatalf("len = %d, want 2", len(mine.Requests))
	}
	if mine.Requests[0].Amount != 300 {
		t.Errorf("first amount = %d, want newest (300)", mine.Requests[0].Amount)
	}

	token := env.login(t)
	rr = env.doAuth(t, "GET", "/api/admin/withdrawals", token, nil)
	assertStatus(t, rr, http.StatusOK)
	var all requestsBody
	decodeJSON(t, rr, &all)
	if len(all.Requests) != 3 {
		t.Errorf("len = %d, want 3", len(all.Requests))
	}
}

func TestWithdraw_Decision(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	created := createWithdraw(t, env, "u1", 150)
	path := fmt.Sprintf("/api/admin/withdrawals/%d", created.Request.ID)

	rr := env.doAuth(t, "PATCH", path, token, toJSON(t, map[string]string{"status": "approved"}))
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "GET", "/api/user/withdrawals?userId=u1", nil)
	var list requestsBody
	decodeJSON(t, rr, &list)
	if list.Requests[0].Status != "approved" || list.Requests[0].ProcessedAt == nil {
		t.Errorf("request = %+v, want approved with processedAt", list.Requests[0])
	}

	// Same decision again is accepted; a different one is a conflict.
	assertStatus(t, env.doAuth(t, "PATCH", path, token, toJSON(t, map[string]string{"status": "approved"})), http.StatusOK)
	assertStatus(t, env.doAuth(t, "PATCH", path, token, toJSON(t, map[string]string{"status": "rejected"})), http.StatusConflict)
}

func TestWithdraw_DecisionErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	created := createWithdraw(t, env, "u1", 150)
	path := fmt.Sprintf("/api/admin/withdrawals/%d", created.Request.ID)

	assertStatus(t, env.doAuth(t, "PATCH", path, token, toJSON(t, map[string]string{"status": "pending"})), http.StatusBadRequest)
	assertStatus(t, env.doAuth(t, "PATCH", path, token, toJSON(t, map[string]string{})), http.StatusBadRequest)
	assertStatus(t, env.doAuth(t, "PATCH", "/api/admin/withdrawals/999", token, toJSON(t, map[string]string{"status": "approved"})), http.StatusNotFound)
	assertStatus(t, env.do(t, "PATCH", path, toJSON(t, map[string]string{"status": "approved"})), http.StatusUnauthorized)
}
