package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/http/flash"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/models"
)

// Reasons a session is ended by the gate.
const (
	ReasonInactive       = "inactive"
	ReasonMissingAccount = "missing_account"
	ReasonEmptyHandle    = "empty_handle"
)

// Gate resolves the session on every request and ends sessions whose account
// was deactivated, removed, or left without a username after login. A session
// cookie stays valid in the browser until expiry, so this is the only place a
// staff deactivation takes effect.
type Gate struct {
	DB       *gorm.DB
	Sessions *Manager
	// LoginPath is matched exactly; ExcludedPrefixes by prefix.
	LoginPath        string
	ExcludedPrefixes []string
	Log              *zap.Logger
	OnTerminate      func(reason string)
}

// Excluded reports whether the active-account check is skipped for path.
// The account integrity check still runs there.
func (g *Gate) Excluded(path string) bool {
	if path == g.LoginPath {
		return true
	}
	for _, p := range g.ExcludedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := g.Sessions.Resolve(c)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoSession):
			c.Next()
			return
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrSessionNotFound):
			// Stale cookie: carry on anonymously.
			_ = g.Sessions.End(c, "")
			c.Next()
			return
		default:
			g.Log.Error("session lookup failed", zap.Error(err))
			c.Next()
			return
		}

		var user models.User
		if err := g.DB.WithContext(c.Request.Context()).First(&user, sess.UserID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				g.Log.Error("account lookup failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
			}
			g.terminate(c, sess, ReasonMissingAccount,
				"There was a problem with your session. Please sign in again.")
			return
		}

		if strings.TrimSpace(user.Username) == "" {
			g.terminate(c, sess, ReasonEmptyHandle, "Invalid session. Please sign in again.")
			return
		}

		if !user.IsActive && !g.Excluded(c.Request.URL.Path) {
			g.terminate(c, sess, ReasonInactive, fmt.Sprintf(
				"Hello %s, your account has been deactivated and you have been signed out automatically. "+
					"Contact the administrator for more information.", user.Username))
			return
		}

		setIdentity(c, &user, sess)
		c.Next()
	}
}

func (g *Gate) terminate(c *gin.Context, sess *models.Session, reason, msg string) {
	if err := g.Sessions.End(c, sess.ID); err != nil {
		g.Log.Error("failed to delete session", zap.String("session_id", sess.ID), zap.Error(err))
	}
	g.Log.Warn("session terminated",
		zap.String("reason", reason),
		zap.Int64("user_id", sess.UserID),
		zap.String("path", c.Request.URL.Path),
	)
	if g.OnTerminate != nil {
		g.OnTerminate(reason)
	}

	flash.Add(c, flash.Error, msg)
	if respond.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, g.LoginPath)
		c.Abort()
		return
	}
	info := respond.Classify(apperr.ErrSessionInvalid)
	info.Message = msg
	c.AbortWithStatusJSON(respond.HTTPStatus(info.Code), respond.Response{
		Success:  false,
		Error:    info,
		Messages: flash.Pop(c),
	})
}
