package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orgdirectory/internal/http/flash"
	"orgdirectory/internal/http/respond"
	"orgdirectory/internal/service"
)

type profileRequest struct {
	FirstName            string `form:"first_name" json:"first_name"`
	LastName             string `form:"last_name" json:"last_name"`
	Email                string `form:"email" json:"email"`
	Bio                  string `form:"bio" json:"bio"`
	Phone                string `form:"phone" json:"phone"`
	Location             string `form:"location" json:"location"`
	Language             string `form:"language" json:"language"`
	ReceiveNotifications bool   `form:"receive_notifications" json:"receive_notifications"`
	Image                string `form:"image" json:"image"`
}

// ProfileHandler returns the signed-in user's account and profile for
// editing.
func ProfileHandler(profiles *service.Profiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		profile, err := profiles.GetOrCreate(c.Request.Context(), user.ID)
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.OK(c, http.StatusOK, gin.H{
			"user":      viewAccount(user),
			"profile":   profile,
			"languages": languages,
		})
	}
}

func UpdateProfile(profiles *service.Profiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in profileRequest
		if err := respond.Bind(c, &in); err != nil {
			respond.Fail(c, err, "")
			return
		}
		user := currentUser(c)
		profile, err := profiles.Update(c.Request.Context(), user, service.ProfileInput{
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			Email:                in.Email,
			Bio:                  in.Bio,
			Phone:                in.Phone,
			Location:             in.Location,
			Language:             in.Language,
			ReceiveNotifications: in.ReceiveNotifications,
			Image:                in.Image,
		})
		if err != nil {
			respond.Fail(c, err, "")
			return
		}
		respond.Redirect(c, DashboardPath, flash.Success, "Profile updated successfully.", gin.H{
			"user":    viewAccount(user),
			"profile": profile,
		})
	}
}
