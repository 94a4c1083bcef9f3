// Package storetest is a behavioral suite every store.Store backend must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Admins", testAdmins},
		{"Sessions", testSessions},
		{"SongOrdering", testSongOrdering},
		{"SongMutations", testSongMutations},
		{"Withdraws", testWithdraws},
		{"ConcurrentDecisions", testConcurrentDecisions},
		{"Settings", testSettings},
		{"Wallets", testWallets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testAdmins(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := &model.Admin{Username: "admin", PasswordHash: "hash-1"}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}

	err := s.CreateAdmin(ctx, &model.Admin{Username: "admin", PasswordHash: "x"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate CreateAdmin error = %v, want ErrDuplicate", err)
	}

	got, err := s.GetAdminByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetAdminByUsername: %v", err)
	}
	if got.ID != admin.ID || got.PasswordHash != "hash-1" {
		t.Errorf("got %+v", got)
	}

	if _, err := s.GetAdminByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing admin error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetAdmin(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing admin id error = %v, want ErrNotFound", err)
	}

	if err := s.UpdateAdminPassword(ctx, admin.ID, "hash-2"); err != nil {
		t.Fatalf("UpdateAdminPassword: %v", err)
	}
	if err := s.UpdateAdminLastLogin(ctx, admin.ID, base); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	got, err = s.GetAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if got.PasswordHash != "hash-2" {
		t.Errorf("password hash = %q, want hash-2", got.PasswordHash)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(base) {
		t.Errorf("last login = %v, want %v", got.LastLoginAt, base)
	}
	if err := s.UpdateAdminPassword(ctx, 9999, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing admin error = %v, want ErrNotFound", err)
	}

	if err := s.CreateAdmin(ctx, &model.Admin{Username: "beta", PasswordHash: "h"}); err != nil {
		t.Fatalf("CreateAdmin beta: %v", err)
	}
	admins, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 2 || admins[0].Username != "admin" || admins[1].Username != "beta" {
		t.Errorf("ListAdmins = %+v", admins)
	}
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := &model.Admin{Username: "admin", PasswordHash: "h"}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	sess := &model.AdminSession{Token: "tok-1", AdminID: admin.ID, ExpiresAt: base.Add(24 * time.Hour)}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.AdminID != admin.ID || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("got %+v", got)
	}

	if err := s.DeleteSession(ctx, "tok-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "tok-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted session error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSession(ctx, "tok-1"); err != nil {
		t.Errorf("second DeleteSession should be a no-op, got %v", err)
	}
}

func addSong(t *testing.T, s store.Store, videoID string, order int, created time.Time, active bool) *model.FeaturedSong {
	t.Helper()
	song := &model.FeaturedSong{
		VideoID:      videoID,
		Title:        "Title " + videoID,
		Artist:       "Artist",
		Duration:     180,
		IsActive:     active,
		DisplayOrder: order,
		CreatedAt:    created,
	}
	if err := s.CreateSong(context.Background(), song); err != nil {
		t.Fatalf("CreateSong %s: %v", videoID, err)
	}
	if song.ID == 0 {
		t.Fatalf("CreateSong %s: expected non-zero ID", videoID)
	}
	return song
}

func videoIDs(songs []model.FeaturedSong) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.VideoID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testSongOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()

	addSong(t, s, "b", 1, base, true)
	addSong(t, s, "a", 0, base, true)
	addSong(t, s, "c", 1, base.Add(time.Minute), true) // newer, same order as b
	addSong(t, s, "hidden", 0, base, false)

	active, err := s.ListSongs(ctx, true)
	if err != nil {
		t.Fatalf("ListSongs: %v", err)
	}
	if got, want := videoIDs(active), []string{"a", "c", "b"}; !equalIDs(got, want) {
		t.Errorf("active order = %v, want %v", got, want)
	}

	all, err := s.ListSongs(ctx, false)
	if err != nil {
		t.Fatalf("ListSongs(all): %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all songs = %d, want 4", len(all))
	}
	for _, song := range active {
		if !song.IsActive {
			t.Errorf("inactive song %s in active list", song.VideoID)
		}
	}
}

func testSongMutations(t *testing.T, s store.Store) {
	ctx := context.Background()

	x := addSong(t, s, "x", 0, base, true)
	y := addSong(t, s, "y", 1, base, true)

	if err := s.UpdateSongOrder(ctx, x.ID, 5); err != nil {
		t.Fatalf("UpdateSongOrder: %v", err)
	}
	list, _ := s.ListSongs(ctx, true)
	if got, want := videoIDs(list), []string{"y", "x"}; !equalIDs(got, want) {
		t.Errorf("after reorder = %v, want %v", got, want)
	}

	if err := s.UpdateSongActive(ctx, y.ID, false); err != nil {
		t.Fatalf("UpdateSongActive: %v", err)
	}
	list, _ = s.ListSongs(ctx, true)
	if got, want := videoIDs(list), []string{"x"}; !equalIDs(got, want) {
		t.Errorf("after deactivate = %v, want %v", got, want)
	}
	got, err := s.GetSong(ctx, y.ID)
	if err != nil {
		t.Fatalf("GetSong: %v", err)
	}
	if got.IsActive {
		t.Error("song y should be inactive")
	}

	if err := s.DeleteSong(ctx, x.ID); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}
	if _, err := s.GetSong(ctx, x.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted song error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSong(ctx, x.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSongOrder(ctx, 9999, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("reorder missing error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSongActive(ctx, 9999, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("toggle missing error = %v, want ErrNotFound", err)
	}
}

func testWithdraws(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := &model.WithdrawRequest{UserID: "u1", Amount: 100, WalletAddress: "dana: 0812", Status: model.WithdrawPending, CreatedAt: base}
	second := &model.WithdrawRequest{UserID: "u2", Amount: 500, WalletAddress: "ovo: 0813", Status: model.WithdrawPending, CreatedAt: base.Add(time.Hour)}
	third := &model.WithdrawRequest{UserID: "u1", Amount: 200, WalletAddress: "gopay: 0814", Status: model.WithdrawPending, CreatedAt: base.Add(2 * time.Hour)}
	for _, r := range []*model.WithdrawRequest{first, second, third} {
		if err := s.CreateWithdraw(ctx, r); err != nil {
			t.Fatalf("CreateWithdraw: %v", err)
		}
	}

	all, err := s.ListWithdraws(ctx, "")
	if err != nil {
		t.Fatalf("ListWithdraws: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("ListWithdraws should be newest first, got %+v", all)
	}
	if all[0].ProcessedAt != nil {
		t.Error("new request should have nil processedAt")
	}

	mine, err := s.ListWithdraws(ctx, "u1")
	if err != nil {
		t.Fatalf("ListWithdraws(u1): %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("u1 requests = %d, want 2", len(mine))
	}

	processed := base.Add(3 * time.Hour)
	fromPending, err := s.DecideWithdraw(ctx, second.ID, model.WithdrawApproved, processed)
	if err != nil {
		t.Fatalf("DecideWithdraw: %v", err)
	}
	if !fromPending {
		t.Error("first decision should report fromPending")
	}
	got, err := s.GetWithdraw(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetWithdraw: %v", err)
	}
	if got.Status != model.WithdrawApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.ProcessedAt == nil || !got.ProcessedAt.Equal(processed) {
		t.Errorf("processedAt = %v, want %v", got.ProcessedAt, processed)
	}
	if got.WalletAddress != "ovo: 0813" || got.Amount != 500 {
		t.Errorf("got %+v", got)
	}

	restamp := processed.Add(time.Hour)
	fromPending, err = s.DecideWithdraw(ctx, second.ID, model.WithdrawApproved, restamp)
	if err != nil || fromPending {
		t.Errorf("repeat decision = (%v, %v), want (false, nil)", fromPending, err)
	}
	if got, _ := s.GetWithdraw(ctx, second.ID); got.ProcessedAt == nil || !got.ProcessedAt.Equal(restamp) {
		t.Errorf("processedAt after repeat = %v, want %v", got.ProcessedAt, restamp)
	}
	if _, err := s.DecideWithdraw(ctx, second.ID, model.WithdrawRejected, restamp); !errors.Is(err, store.ErrStatusConflict) {
		t.Errorf("reverse decision error = %v, want ErrStatusConflict", err)
	}
	if got, _ := s.GetWithdraw(ctx, second.ID); got.Status != model.WithdrawApproved {
		t.Errorf("status after reverse = %q, want approved", got.Status)
	}

	if _, err := s.DecideWithdraw(ctx, 9999, model.WithdrawApproved, processed); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("decide missing error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetWithdraw(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get missing error = %v, want ErrNotFound", err)
	}
}

func testConcurrentDecisions(t *testing.T, s store.Store) {
	ctx := context.Background()

	req := &model.WithdrawRequest{UserID: "u1", Amount: 500, WalletAddress: "dana: 0812", Status: model.WithdrawPending, CreatedAt: base}
	if err := s.CreateWithdraw(ctx, req); err != nil {
		t.Fatalf("CreateWithdraw: %v", err)
	}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won       int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		status := model.WithdrawRejected
		if i%2 == 0 {
			status = model.WithdrawApproved
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fromPending, err := s.DecideWithdraw(ctx, req.ID, status, base.Add(time.Hour))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, store.ErrStatusConflict):
				conflicts++
			case err != nil:
				t.Errorf("DecideWithdraw: %v", err)
			case fromPending:
				won++
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("decisions leaving pending = %d, want 1", won)
	}
	if conflicts != workers/2 {
		t.Errorf("conflicting decisions = %d, want %d", conflicts, workers/2)
	}
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()

	got, err := s.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fresh settings = %v, want empty", got)
	}

	if err := s.SetSettings(ctx, map[string]string{"headerScript": "<script>a</script>", "adsEnabled": "true"}); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	if err := s.SetSettings(ctx, map[string]string{"headerScript": "<script>b</script>"}); err != nil {
		t.Fatalf("SetSettings upsert: %v", err)
	}

	got, err = s.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got["headerScript"] != "<script>b</script>" {
		t.Errorf("headerScript = %q", got["headerScript"])
	}
	if got["adsEnabled"] != "true" {
		t.Errorf("adsEnabled = %q", got["adsEnabled"])
	}
}

func testWallets(t *testing.T, s store.Store) {
	ctx := context.Background()

	w, err := s.GetWallet(ctx, "listener")
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if w.Balance != 0 || w.UserID != "listener" {
		t.Errorf("fresh wallet = %+v", w)
	}

	if _, err := s.DebitWallet(ctx, "listener", 1); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Errorf("debit empty wallet error = %v, want ErrInsufficientBalance", err)
	}

	if _, err := s.CreditWallet(ctx, "listener", 5, 1); err != nil {
		t.Fatalf("CreditWallet: %v", err)
	}
	w, err = s.CreditWallet(ctx, "listener", 5, 1)
	if err != nil {
		t.Fatalf("CreditWallet: %v", err)
	}
	if w.Balance != 10 || w.TotalEarnings != 10 || w.SongsPlayed != 2 {
		t.Errorf("after credits = %+v", w)
	}

	if _, err := s.DebitWallet(ctx, "listener", 11); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Errorf("overdraw error = %v, want ErrInsufficientBalance", err)
	}
	w, err = s.DebitWallet(ctx, "listener", 4)
	if err != nil {
		t.Fatalf("DebitWallet: %v", err)
	}
	if w.Balance != 6 || w.TotalEarnings != 10 {
		t.Errorf("after debit = %+v", w)
	}

	w, _ = s.GetWallet(ctx, "listener")
	if w.Balance != 6 {
		t.Errorf("persisted balance = %d, want 6", w.Balance)
	}

	w, err = s.RefundWallet(ctx, "listener", 4)
	if err != nil {
		t.Fatalf("RefundWallet: %v", err)
	}
	if w.Balance != 10 || w.TotalEarnings != 10 || w.SongsPlayed != 2 {
		t.Errorf("after refund = %+v", w)
	}
}
