package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"orgdirectory/internal/auth"
	"orgdirectory/internal/config"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/models"
	"orgdirectory/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type gateFixture struct {
	db         *gorm.DB
	manager    *auth.Manager
	router     *gin.Engine
	terminated []string
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	f := &gateFixture{db: testutil.SetupSQLiteTestDB(t)}
	f.manager = &auth.Manager{
		Store:  auth.NewDBSessionStore(f.db),
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
	}
	gate := &auth.Gate{
		DB:               f.db,
		Sessions:         f.manager,
		LoginPath:        "/",
		ExcludedPrefixes: config.DefaultExcludedPrefixes,
		Log:              zap.NewNop(),
		OnTerminate:      func(reason string) { f.terminated = append(f.terminated, reason) },
	}

	r := gin.New()
	r.POST("/test-login/:id", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		token, err := f.manager.Start(c, id)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, token)
	})

	app := r.Group("/", gate.Middleware())
	whoami := func(c *gin.Context) {
		u, ok := auth.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u.Username})
	}
	app.GET("/", whoami)
	app.GET("/dashboard/", whoami)
	app.GET("/admin/pending-users/", whoami)
	f.router = r
	return f
}

func (f *gateFixture) login(t *testing.T, userID int64) string {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test-login/"+strconv.FormatInt(userID, 10), nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func (f *gateFixture) get(path, token string, html bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	if html {
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func whoamiUser(t *testing.T, w *httptest.ResponseRecorder) interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["user"]
}

func sessionCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Session{}).Count(&n).Error)
	return n
}

func hasCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func TestGate_ActiveAccountPassesThrough(t *testing.T) {
	f := newGateFixture(t)
	u := testutil.CreateUser(t, f.db, "ana", testutil.Active)
	token := f.login(t, u.ID)

	w := f.get("/dashboard/", token, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", whoamiUser(t, w))
	assert.Empty(t, f.terminated)
}

func TestGate_AnonymousRequest(t *testing.T) {
	f := newGateFixture(t)

	w := f.get("/dashboard/", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, whoamiUser(t, w))
}

func TestGate_DeactivatedAccountIsSignedOutOnNextRequest(t *testing.T) {
	f := newGateFixture(t)
	u := testutil.CreateUser(t, f.db, "ana", testutil.Active)
	token := f.login(t, u.ID)
	require.Equal(t, int64(1), sessionCount(t, f.db))

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	w := f.get("/dashboard/", token, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.True(t, hasCookie(w, "flash"), "a message explains the sign-out")
	assert.Zero(t, sessionCount(t, f.db))
	assert.Equal(t, []string{auth.ReasonInactive}, f.terminated)

	// The old cookie no longer identifies anyone.
	w = f.get("/dashboard/", token, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, whoamiUser(t, w))
}

func TestGate_DeactivatedAccountAPIResponse(t *testing.T) {
	f := newGateFixture(t)
	u := testutil.CreateUser(t, f.db, "ana", testutil.Active)
	token := f.login(t, u.ID)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	w := f.get("/dashboard/", token, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body respond.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, respond.ErrCodeSessionInvalid, body.Error.Code)
	assert.True(t, strings.HasPrefix(body.Error.Message, "Hello ana,"))
	require.Len(t, body.Messages, 1)
}

func TestGate_ExcludedPathsSkipActiveCheck(t *testing.T) {
	f := newGateFixture(t)
	u := testutil.CreateUser(t, f.db, "ana", testutil.Active)
	token := f.login(t, u.ID)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	for _, path := range []string{"/", "/admin/pending-users/"} {
		w := f.get(path, token, true)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "ana", whoamiUser(t, w), path)
	}
	assert.Equal(t, int64(1), sessionCount(t, f.db))
	assert.Empty(t, f.terminated)
}

func TestGate_IntegrityCheckRunsEverywhere(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(db *gorm.DB, id int64) error
		reason string
	}{
		{
			name: "account deleted",
			mutate: func(db *gorm.DB, id int64) error {
				return db.Delete(&models.User{}, id).Error
			},
			reason: auth.ReasonMissingAccount,
		},
		{
			name: "username emptied",
			mutate: func(db *gorm.DB, id int64) error {
				return db.Model(&models.User{}).Where("id = ?", id).Update("username", "").Error
			},
			reason: auth.ReasonEmptyHandle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t)
			u := testutil.CreateUser(t, f.db, "ana", testutil.Active)
			token := f.login(t, u.ID)
			require.NoError(t, tt.mutate(f.db, u.ID))

			// Excluded from the active check, but not from the integrity check.
			w := f.get("/admin/pending-users/", token, true)
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
			assert.Zero(t, sessionCount(t, f.db))
			assert.Equal(t, []string{tt.reason}, f.terminated)
		})
	}
}

func TestGate_StaleTokenIsIgnored(t *testing.T) {
	f := newGateFixture(t)
	u := testutil.CreateUser(t, f.db, "ana", testutil.Active)
	token := f.login(t, u.ID)
	require.NoError(t, f.db.Where("1 = 1").Delete(&models.Session{}).Error)

	w := f.get("/dashboard/", token, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, whoamiUser(t, w))
	assert.Empty(t, f.terminated)

	w = f.get("/dashboard/", "not-a-jwt", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, whoamiUser(t, w))
}

func TestGate_Excluded(t *testing.T) {
	g := &auth.Gate{LoginPath: "/", ExcludedPrefixes: config.DefaultExcludedPrefixes}

	assert.True(t, g.Excluded("/"))
	assert.True(t, g.Excluded("/login"))
	assert.True(t, g.Excluded("/signup/"))
	assert.True(t, g.Excluded("/admin/activate-user/3/"))
	assert.True(t, g.Excluded("/api/v1/x"))
	assert.True(t, g.Excluded("/public/logo.png"))
	assert.False(t, g.Excluded("/dashboard/"))
	assert.False(t, g.Excluded("/organizations/"))
	assert.False(t, g.Excluded("/feed/"))
}
