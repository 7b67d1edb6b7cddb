package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/models"
)

func TestGuards(t *testing.T) {
	pending := &models.User{ID: 1, Username: "p"}
	member := &models.User{ID: 2, Username: "m", IsActive: true}
	inactiveStaff := &models.User{ID: 3, Username: "s", IsStaff: true}
	staff := &models.User{ID: 4, Username: "a", IsActive: true, IsStaff: true}

	tests := []struct {
		name  string
		user  *models.User
		guard Guard
		want  Decision
	}{
		{"anonymous authenticated", nil, Authenticated, Unauthenticated},
		{"pending authenticated", pending, Authenticated, Allow},
		{"anonymous active", nil, Active, Unauthenticated},
		{"pending active", pending, Active, Inactive},
		{"member active", member, Active, Allow},
		{"member staff", member, Staff, NotStaff},
		{"inactive staff", inactiveStaff, Staff, Inactive},
		{"staff", staff, Staff, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.guard(tt.user))
		})
	}
}

func TestCheckReturnsFirstDenial(t *testing.T) {
	assert.Equal(t, Allow, Check(nil))
	assert.Equal(t, Unauthenticated, Check(nil, Staff, Active))
	assert.Equal(t, NotStaff, Check(&models.User{IsActive: true}, Active, Staff))
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Allow.Err())
	assert.ErrorIs(t, Unauthenticated.Err(), apperr.ErrAuthRequired)
	assert.ErrorIs(t, Inactive.Err(), apperr.ErrAccountInactive)
	assert.ErrorIs(t, NotStaff.Err(), apperr.ErrPermissionDenied)
	assert.Equal(t, "not_staff", NotStaff.String())
}

func TestRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(u *models.User, html bool) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/staff", func(c *gin.Context) {
			if u != nil {
				c.Set("auth.user", u)
			}
		}, Require("/", "/dashboard/", Staff), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodGet, "/staff", nil)
		if html {
			req.Header.Set("Accept", "text/html")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, serve(&models.User{IsActive: true, IsStaff: true}, false).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(nil, false).Code)
	assert.Equal(t, http.StatusForbidden, serve(&models.User{IsActive: true}, false).Code)

	w := serve(&models.User{IsActive: true}, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/", w.Header().Get("Location"))

	w = serve(nil, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
