package auth

import (
	"github.com/gin-gonic/gin"

	"orgdirectory/internal/models"
)

const (
	userKey    = "auth.user"
	sessionKey = "auth.session"
)

// CurrentUser returns the account loaded by the gate for this request.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

func CurrentSession(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*models.Session)
	return s, ok
}

func setIdentity(c *gin.Context, u *models.User, s *models.Session) {
	c.Set(userKey, u)
	c.Set(sessionKey, s)
}
