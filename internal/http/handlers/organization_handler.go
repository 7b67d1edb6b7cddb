package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/http/flash"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/models"
	"orgdirectory/internal/service"
)

type organizationRequest struct {
	Name        string  `form:"name" json:"name"`
	Type        string  `form:"type" json:"type"`
	Website     string  `form:"website" json:"website"`
	Phone       string  `form:"phone" json:"phone"`
	TaxID       string  `form:"nit" json:"nit"`
	Services    string  `form:"services" json:"services"`
	Logo        string  `form:"logo" json:"logo"`
	CategoryIDs []int64 `form:"categories" json:"categories"`
}

func (r organizationRequest) input() service.OrganizationInput {
	return service.OrganizationInput{
		Name:        r.Name,
		Type:        r.Type,
		Website:     r.Website,
		Phone:       r.Phone,
		TaxID:       r.TaxID,
		Services:    r.Services,
		Logo:        r.Logo,
		CategoryIDs: r.CategoryIDs,
	}
}

// OrganizationHandlers serves the owner-scoped organization pages.
type OrganizationHandlers struct {
	Profiles      *service.Profiles
	Organizations *service.Organizations
	Categories    *service.Categories
}

func (h *OrganizationHandlers) owner(c *gin.Context) (*models.Profile, bool) {
	profile, err := h.Profiles.GetOrCreate(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respond.Fail(c, err, "")
		return nil, false
	}
	return profile, true
}

func (h *OrganizationHandlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := h.owner(c)
		if !ok {
			return
		}
		orgs, err := h.Organizations.ListOwned(c.Request.Context(), owner)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.OK(c, http.StatusOK, gin.H{"organizations": viewOrganizations(orgs)})
	}
}

// Form returns the choices for the create form.
func (h *OrganizationHandlers) Form() gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := h.Categories.ListActive(c.Request.Context())
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.OK(c, http.StatusOK, gin.H{"categories": cats})
	}
}

func (h *OrganizationHandlers) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in organizationRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		owner, ok := h.owner(c)
		if !ok {
			return
		}
		org, err := h.Organizations.Create(c.Request.Context(), owner, in.input())
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.Redirect(c, OrganizationsPath, flash.Success, "Organization created successfully.",
			gin.H{"organization": viewOrganization(org)})
	}
}

func (h *OrganizationHandlers) Detail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		owner, ok := h.owner(c)
		if !ok {
			return
		}
		org, err := h.Organizations.Get(c.Request.Context(), owner, id)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.OK(c, http.StatusOK, gin.H{"organization": viewOrganization(org)})
	}
}

// EditForm returns the organization with the choices for the edit form.
func (h *OrganizationHandlers) EditForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		owner, ok := h.owner(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		org, err := h.Organizations.Get(ctx, owner, id)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		cats, err := h.Categories.ListActive(ctx)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.OK(c, http.StatusOK, gin.H{
			"organization": viewOrganization(org),
			"categories":   cats,
		})
	}
}

func (h *OrganizationHandlers) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		var in organizationRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		owner, ok := h.owner(c)
		if !ok {
			return
		}
		org, err := h.Organizations.Update(c.Request.Context(), owner, id, in.input())
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.Redirect(c, OrganizationsPath, flash.Success, "Organization updated successfully.",
			gin.H{"organization": viewOrganization(org)})
	}
}

func (h *OrganizationHandlers) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		owner, ok := h.owner(c)
		if !ok {
			return
		}
		if err := h.Organizations.Delete(c.Request.Context(), owner, id); err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.Redirect(c, OrganizationsPath, flash.Success, "Organization deleted successfully.",
			gin.H{"id": id})
	}
}
