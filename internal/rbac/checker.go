package rbac

import (
	"github.com/gin-gonic/gin"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/auth"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/models"
)

// Decision is the outcome of evaluating guards against the current account.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Inactive
	NotStaff
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Inactive:
		return "inactive"
	case NotStaff:
		return "not_staff"
	}
	return "unknown"
}

// Err maps a denial onto the shared error taxonomy. Allow maps to nil.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case Unauthenticated:
		return apperr.ErrAuthRequired
	case Inactive:
		return apperr.ErrAccountInactive
	}
	return apperr.ErrPermissionDenied
}

// Guard inspects the account (nil when anonymous).
type Guard func(u *models.User) Decision

func Authenticated(u *models.User) Decision {
	if u == nil {
		return Unauthenticated
	}
	return Allow
}

func Active(u *models.User) Decision {
	if d := Authenticated(u); d != Allow {
		return d
	}
	if !u.IsActive {
		return Inactive
	}
	return Allow
}

func Staff(u *models.User) Decision {
	if d := Active(u); d != Allow {
		return d
	}
	if !u.IsStaff {
		return NotStaff
	}
	return Allow
}

// Check returns the first denial among guards, or Allow.
func Check(u *models.User, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(u); d != Allow {
			return d
		}
	}
	return Allow
}

// Require aborts the request unless every guard allows the current account.
// Browsers are sent to loginPath, or to deniedPath when signed in but not
// allowed.
func Require(loginPath, deniedPath string, guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := auth.CurrentUser(c)
		d := Check(u, guards...)
		switch d {
		case Allow:
			c.Next()
		case NotStaff:
			respond.Fail(c, d.Err(), deniedPath)
		default:
			respond.Fail(c, d.Err(), loginPath)
		}
	}
}
