// Package handlers holds the gin handlers. Each handler returns JSON; browser
// navigations (Accept: text/html) are answered with a redirect and a flash
// message instead.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/auth"
	"orgdirectory/internal/models"
	"orgdirectory/internal/service"
)

// Redirect targets.
const (
	LoginPath         = "/"
	DashboardPath     = "/dashboard/"
	OrganizationsPath = "/organizations/"
	CategoriesPath    = "/categories/"
	PendingUsersPath  = "/admin/pending-users/"
)

var languages = []string{"es", "en"}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// currentUser returns the signed-in account. Routes using it sit behind an
// rbac guard, so nil only happens on misconfigured routes.
func currentUser(c *gin.Context) *models.User {
	u, _ := auth.CurrentUser(c)
	return u
}

// idParam parses a numeric path parameter. Anything else is reported as not
// found, matching how an unknown id behaves.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

type accountView struct {
	models.User
	Status models.UserStatus `json:"status"`
}

func viewAccount(u *models.User) accountView {
	return accountView{User: *u, Status: u.Status()}
}

func viewAccounts(users []models.User) []accountView {
	out := make([]accountView, 0, len(users))
	for i := range users {
		out = append(out, viewAccount(&users[i]))
	}
	return out
}

type organizationView struct {
	models.Organization
	ServiceList []string `json:"service_list"`
}

func viewOrganization(o *models.Organization) *organizationView {
	if o == nil {
		return nil
	}
	return &organizationView{Organization: *o, ServiceList: o.ServicesList()}
}

func viewOrganizations(orgs []models.Organization) []*organizationView {
	out := make([]*organizationView, 0, len(orgs))
	for i := range orgs {
		out = append(out, viewOrganization(&orgs[i]))
	}
	return out
}
