package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/service"
)

// ListAudit pages through account audit records. Query params: limit,
// after_id (cursor from the previous page) and q.
func ListAudit(audit *service.Audit) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := service.AuditQuery{Search: c.Query("q")}
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil {
				q.Limit = parsed
			}
		}
		if cursorStr := c.Query("after_id"); cursorStr != "" {
			if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
				q.AfterID = parsed
			}
		}

		logs, next, err := audit.List(c.Request.Context(), currentUser(c), q)
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		respond.OK(c, http.StatusOK, gin.H{
			"logs":        logs,
			"next_cursor": next,
		})
	}
}
