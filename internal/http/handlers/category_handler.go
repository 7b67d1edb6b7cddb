package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/http/flash"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/service"
)

type categoryRequest struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
	Status      *bool  `form:"status" json:"status"`
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Description: r.Description, Status: r.Status}
}

// ListCategories returns all categories, including inactive ones.
func ListCategories(categories *service.Categories) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := categories.List(c.Request.Context(), currentUser(c))
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		respond.OK(c, http.StatusOK, gin.H{"categories": cats})
	}
}

func CreateCategory(categories *service.Categories) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in categoryRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		cat, err := categories.Create(c.Request.Context(), currentUser(c), in.input())
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		respond.Redirect(c, CategoriesPath, flash.Success,
			fmt.Sprintf("Category %q created successfully.", cat.Name), gin.H{"category": cat})
	}
}

func GetCategory(categories *service.Categories) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		cat, err := categories.Get(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		respond.OK(c, http.StatusOK, gin.H{"category": cat})
	}
}

func UpdateCategory(categories *service.Categories) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		var in categoryRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		cat, err := categories.Update(c.Request.Context(), currentUser(c), id, in.input())
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		respond.Redirect(c, CategoriesPath, flash.Success,
			fmt.Sprintf("Category %q updated successfully.", cat.Name), gin.H{"category": cat})
	}
}

// ToggleCategory flips a category between active and inactive.
func ToggleCategory(categories *service.Categories) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		cat, err := categories.ToggleStatus(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respond.Fail(c, err, DashboardPath)
			return
		}
		state := "deactivated"
		if cat.Status {
			state = "activated"
		}
		respond.Redirect(c, CategoriesPath, flash.Success,
			fmt.Sprintf("Category %q %s successfully.", cat.Name, state), gin.H{"category": cat})
	}
}
