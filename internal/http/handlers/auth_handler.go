package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/auth"
	"orgdirectory/internal/http/flash"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/metrics"
	"orgdirectory/internal/models"
	"orgdirectory/internal/service"
)

type credentials struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// LoginPage describes the login form. Signed-in active users are sent to
// their dashboard.
func LoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, ok := auth.CurrentUser(c); ok && u.IsActive {
			respond.Redirect(c, DashboardPath, "", "", gin.H{"user": viewAccount(u)})
			return
		}
		respond.OK(c, http.StatusOK, gin.H{
			"fields":       []string{"username", "password"},
			"signup":       "/signup/",
			"check_status": "/check-status/",
		})
	}
}

// LoginHandler checks credentials and opens a server-side session.
func LoginHandler(accounts *service.Accounts, sessions *auth.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in credentials
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, apperr.ErrInvalidCredentials, "")
			return
		}

		user, err := accounts.Authenticate(c.Request.Context(), in.Username, in.Password)
		if err != nil {
			respond.Fail(c, err, LoginPath)
			return
		}

		// Never reuse a session opened before authentication.
		if sess, ok := auth.CurrentSession(c); ok {
			if err := sessions.End(c, sess.ID); err != nil {
				log.Warn("failed to end previous session", zap.String("session_id", sess.ID), zap.Error(err))
			}
		}

		token, err := sessions.Start(c, user.ID)
		if err != nil {
			respond.Fail(c, fmt.Errorf("start session: %w", err), "")
			return
		}
		if err := accounts.MarkLogin(c.Request.Context(), user.ID); err != nil {
			log.Warn("failed to record login", zap.Int64("user_id", user.ID), zap.Error(err))
		}

		respond.Redirect(c, DashboardPath, flash.Success, fmt.Sprintf("Welcome, %s.", user.Username), gin.H{
			"token": token,
			"user":  viewAccount(user),
		})
	}
}

type signupRequest struct {
	Username             string `form:"username" json:"username"`
	Email                string `form:"email" json:"email"`
	Password             string `form:"password" json:"password"`
	PasswordConfirm      string `form:"password_confirm" json:"password_confirm"`
	FirstName            string `form:"first_name" json:"first_name"`
	LastName             string `form:"last_name" json:"last_name"`
	Bio                  string `form:"bio" json:"bio"`
	Phone                string `form:"phone" json:"phone"`
	Location             string `form:"location" json:"location"`
	Language             string `form:"language" json:"language"`
	ReceiveNotifications *bool  `form:"receive_notifications" json:"receive_notifications"`
}

// SignupPage lists the signup fields and their choices.
func SignupPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		respond.OK(c, http.StatusOK, gin.H{
			"fields": []string{
				"username", "email", "password", "password_confirm", "first_name", "last_name",
				"bio", "phone", "location", "language", "receive_notifications",
			},
			"languages": languages,
		})
	}
}

// SignupHandler creates an inactive account. The user cannot sign in until
// staff activate it.
func SignupHandler(accounts *service.Accounts, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in signupRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}

		user, err := accounts.Signup(c.Request.Context(), service.SignupInput{
			Username:             in.Username,
			Email:                in.Email,
			Password:             in.Password,
			PasswordConfirm:      in.PasswordConfirm,
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			Bio:                  in.Bio,
			Phone:                in.Phone,
			Location:             in.Location,
			Language:             in.Language,
			ReceiveNotifications: in.ReceiveNotifications,
		}, requestMeta(c))
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		m.Signup()

		respond.Redirect(c, LoginPath, flash.Success,
			"Your account was created. An administrator must activate it before you can sign in.",
			gin.H{"user": viewAccount(user)})
	}
}

// LogoutHandler ends the session and clears the cookie.
func LogoutHandler(sessions *auth.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID string
		if sess, ok := auth.CurrentSession(c); ok {
			sessionID = sess.ID
		}
		if err := sessions.End(c, sessionID); err != nil {
			log.Warn("failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
		}
		respond.Redirect(c, LoginPath, flash.Info, "You have been signed out.", nil)
	}
}

// CheckStatus reports an account's activation status. Signed-in users get
// their own status; anyone else may post credentials, which never opens a
// session.
func CheckStatus(accounts *service.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u, ok := auth.CurrentUser(c); ok {
			respond.OK(c, http.StatusOK, statusBody(u))
			return
		}
		if c.Request.Method != http.MethodPost {
			respond.Fail(c, apperr.ErrAuthRequired, "")
			return
		}

		var in credentials
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), in.Username, in.Password)
		if err != nil && !errors.Is(err, apperr.ErrAccountInactive) {
			respond.Fail(c, err, "")
			return
		}
		respond.OK(c, http.StatusOK, statusBody(user))
	}
}

func statusBody(u *models.User) gin.H {
	body := gin.H{
		"username":  u.Username,
		"status":    u.Status(),
		"is_active": u.IsActive,
	}
	switch u.Status() {
	case models.UserPending:
		body["message"] = "Your account is pending activation by an administrator."
	case models.UserDeactivated:
		body["message"] = "Your account has been deactivated. Contact the administrator for more information."
	default:
		body["message"] = "Your account is active."
	}
	return body
}
