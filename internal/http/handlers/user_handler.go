package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/http/flash"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/metrics"
	"orgdirectory/internal/service"
)

// ListPendingUsers returns the accounts waiting for (or removed from)
// activation.
func ListPendingUsers(accounts *service.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := accounts.ListPending(c.Request.Context(), currentUser(c))
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		respond.OK(c, http.StatusOK, gin.H{"users": viewAccounts(users)})
	}
}

func ActivateUser(accounts *service.Accounts, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		user, err := accounts.Activate(c.Request.Context(), currentUser(c), id, requestMeta(c))
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		m.StatusChanged(true, 1)
		respond.Redirect(c, PendingUsersPath, flash.Success,
			fmt.Sprintf("User %s has been activated successfully.", user.Username),
			gin.H{"user": viewAccount(user)})
	}
}

// DeactivateUser switches an account off. Its open sessions end on their
// next request.
func DeactivateUser(accounts *service.Accounts, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		user, err := accounts.Deactivate(c.Request.Context(), currentUser(c), id, requestMeta(c))
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		m.StatusChanged(false, 1)
		respond.Redirect(c, PendingUsersPath, flash.Success,
			fmt.Sprintf("User %s has been deactivated.", user.Username),
			gin.H{"user": viewAccount(user)})
	}
}

type statusRequest struct {
	IDs    []int64 `form:"ids" json:"ids" binding:"required"`
	Active *bool   `form:"active" json:"active" binding:"required"`
}

// SetUsersStatus activates or deactivates several accounts at once.
func SetUsersStatus(accounts *service.Accounts, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in statusRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		n, err := accounts.SetActiveMany(c.Request.Context(), currentUser(c), in.IDs, *in.Active, requestMeta(c))
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		m.StatusChanged(*in.Active, n)

		verb := "deactivated"
		if *in.Active {
			verb = "activated"
		}
		respond.Redirect(c, PendingUsersPath, flash.Success,
			fmt.Sprintf("%d user(s) %s successfully.", n, verb),
			gin.H{"updated": n, "active": *in.Active})
	}
}
