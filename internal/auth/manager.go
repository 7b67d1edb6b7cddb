package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orgdirectory/internal/models"
)

const cookieName = "token"

var ErrNoSession = errors.New("no session token")

// now is swapped in tests.
var now = time.Now

// Manager ties the signed cookie to the server-side session store.
type Manager struct {
	Store  SessionStore
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Start opens a session for userID and sets the cookie. The token is also
// returned for API clients that send it in the Authorization header.
func (m *Manager) Start(c *gin.Context, userID int64) (string, error) {
	issued := now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IP:        c.ClientIP(),
		UserAgent: truncate(c.Request.UserAgent(), 255),
		ExpiresAt: issued.Add(m.TTL),
		CreatedAt: issued,
	}
	if err := m.Store.Create(c.Request.Context(), sess); err != nil {
		return "", err
	}

	token, err := signToken(m.Secret, userID, sess.ID, sess.ExpiresAt)
	if err != nil {
		_ = m.Store.Delete(c.Request.Context(), sess.ID)
		return "", err
	}
	c.SetCookie(cookieName, token, int(m.TTL.Seconds()), "/", "", m.Secure, true)
	return token, nil
}

// Resolve finds the live session behind the request's token. It returns
// ErrNoSession when no token was sent, ErrInvalidToken or ErrSessionNotFound
// when the token no longer refers to a live session.
func (m *Manager) Resolve(c *gin.Context) (*models.Session, error) {
	tokenStr := tokenFromRequest(c)
	if tokenStr == "" {
		return nil, ErrNoSession
	}
	claims, err := parseToken(m.Secret, tokenStr)
	if err != nil {
		return nil, err
	}
	sess, err := m.Store.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

// End deletes the session (when known) and expires the cookie.
func (m *Manager) End(c *gin.Context, sessionID string) error {
	c.SetCookie(cookieName, "", -1, "/", "", m.Secure, true)
	if sessionID == "" {
		return nil
	}
	return m.Store.Delete(c.Request.Context(), sessionID)
}

// tokenFromRequest reads the Authorization header, falling back to the cookie.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
