package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/service"
)

// Dashboard shows the caller's profile, their first organization and the
// most recent organizations in the directory. A missing profile is created.
func Dashboard(profiles *service.Profiles, orgs *service.Organizations, recent int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := currentUser(c)

		profile, err := profiles.GetOrCreate(ctx, user.ID)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		first, err := orgs.FirstOwned(ctx, profile)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		latest, err := orgs.Recent(ctx, recent)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}

		respond.OK(c, http.StatusOK, gin.H{
			"user":                 viewAccount(user),
			"profile":              profile,
			"organization":         viewOrganization(first),
			"recent_organizations": viewOrganizations(latest),
		})
	}
}

// Feed lists organizations matching the "q" terms and "category" filter,
// together with the active categories to filter by. It serves both the
// public and the dashboard feed.
func Feed(orgs *service.Organizations, categories *service.Categories) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := service.FeedQuery{Search: c.Query("q")}
		if raw := strings.TrimSpace(c.Query("category")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				respond.Fail(c, apperr.Field("category", "Select a valid choice."), "")
				return
			}
			q.CategoryID = id
		}

		ctx := c.Request.Context()
		found, err := orgs.Search(ctx, q)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		active, err := categories.ListActive(ctx)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}

		respond.OK(c, http.StatusOK, gin.H{
			"organizations": viewOrganizations(found),
			"categories":    active,
			"query": gin.H{
				"q":        q.Search,
				"terms":    service.ParseTerms(q.Search),
				"category": q.CategoryID,
			},
		})
	}
}
