package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"overlaykit/internal/admin"
	"overlaykit/internal/api"
	"overlaykit/internal/auth"
	"overlaykit/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminRouter(f *fixture, email string) *gin.Engine {
	return routerAs(f, f.users.SeedAdmin("Ops", email), email)
}

// routerAs serves the admin routes to callerID, whose token claims email.
func routerAs(f *fixture, callerID int, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := admin.NewHandler(f.svc)

	r := gin.New()
	g := r.Group("/admin", func(c *gin.Context) {
		auth.SetIdentity(c, callerID, email, "admin")
		c.Next()
	}, auth.RequireAdmin(auth.NewAllowList("ops@example.com"), user.NewService(f.users, "test-secret")))
	g.POST("/users/:userID/wallet", h.AdjustWallet)
	g.GET("/users/:userID/wallet", h.GetUserWallet)
	g.POST("/users/:userID/lock", h.LockUser)
	g.GET("/audit", h.ListAudit)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminHandler_ForbiddenForNonAdmin(t *testing.T) {
	f := newFixture()
	r := setupAdminRouter(f, "someone@example.com")

	w := doJSON(r, http.MethodPost, "/admin/users/"+strconv.Itoa(f.target)+"/wallet",
		admin.AdjustWalletRequest{Action: "credit", Amount: 10})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, int64(0), f.wallets.Balance(f.target))
}

func TestAdminHandler_AllowListIsCaseInsensitive(t *testing.T) {
	f := newFixture()
	r := setupAdminRouter(f, "OPS@Example.com")

	w := doJSON(r, http.MethodPost, "/admin/users/"+strconv.Itoa(f.target)+"/wallet",
		admin.AdjustWalletRequest{Action: "credit", Amount: 10.9, Description: "goodwill"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(10), f.wallets.Balance(f.target))
}

func TestAdminHandler_DebitShowsShortfall(t *testing.T) {
	f := newFixture()
	f.wallets.Seed(f.target, 3)
	r := setupAdminRouter(f, "ops@example.com")

	w := doJSON(r, http.MethodPost, "/admin/users/"+strconv.Itoa(f.target)+"/wallet",
		admin.AdjustWalletRequest{Action: "debit", Amount: 9})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp api.InsufficientFundsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Balance)
	assert.Equal(t, int64(9), resp.Required)
}

func TestAdminHandler_NegativeAmount(t *testing.T) {
	f := newFixture()
	r := setupAdminRouter(f, "ops@example.com")

	w := doJSON(r, http.MethodPost, "/admin/users/"+strconv.Itoa(f.target)+"/wallet",
		admin.AdjustWalletRequest{Action: "credit", Amount: -4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_LockAndListAudit(t *testing.T) {
	f := newFixture()
	r := setupAdminRouter(f, "ops@example.com")

	w := doJSON(r, http.MethodPost, "/admin/users/"+strconv.Itoa(f.target)+"/lock", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/admin/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []admin.AuditEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, admin.ActionLockUser, entries[0].Action)
}

func TestAdminHandler_UnknownUser(t *testing.T) {
	f := newFixture()
	r := setupAdminRouter(f, "ops@example.com")

	w := doJSON(r, http.MethodGet, "/admin/users/999/wallet", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_ListedMemberIsForbidden(t *testing.T) {
	f := newFixture()
	memberID := f.users.Seed("Mallory", "ops@example.com")
	r := routerAs(f, memberID, "ops@example.com")

	w := doJSON(r, http.MethodPost, "/admin/users/"+strconv.Itoa(f.target)+"/wallet",
		admin.AdjustWalletRequest{Action: "credit", Amount: 1000000})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, int64(0), f.wallets.Balance(f.target))
	assert.Empty(t, f.audit.Entries())
}

func TestAdminHandler_StoredStateRevokesAccess(t *testing.T) {
	t.Run("locked admin", func(t *testing.T) {
		f := newFixture()
		opsID := f.users.SeedAdmin("Ops", "ops@example.com")
		r := routerAs(f, opsID, "ops@example.com")
		require.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/admin/audit", nil).Code)

		_, err := f.users.SetLocked(context.Background(), opsID, true)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/admin/audit", nil).Code)
	})

	t.Run("email moved off the list", func(t *testing.T) {
		f := newFixture()
		opsID := f.users.SeedAdmin("Ops", "ops@example.com")
		r := routerAs(f, opsID, "ops@example.com")

		_, err := f.users.Update(context.Background(), opsID, "Ops", "former@example.com", user.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/admin/audit", nil).Code)
	})

	t.Run("deleted admin", func(t *testing.T) {
		f := newFixture()
		opsID := f.users.SeedAdmin("Ops", "ops@example.com")
		r := routerAs(f, opsID, "ops@example.com")

		require.NoError(t, f.users.Delete(context.Background(), opsID))
		assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/admin/audit", nil).Code)
	})
}
