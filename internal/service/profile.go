package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/models"
)

var supportedLanguages = map[string]bool{"es": true, "en": true}

type Profiles struct {
	DB *gorm.DB
}

// GetOrCreate returns the user's profile, creating one with defaults for
// accounts that predate profiles (e.g. staff created out of band).
func (s *Profiles) GetOrCreate(ctx context.Context, userID int64) (*models.Profile, error) {
	var profile models.Profile
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Attrs(models.NewProfile(userID)).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

type ProfileInput struct {
	FirstName            string
	LastName             string
	Email                string
	Bio                  string
	Phone                string
	Location             string
	Language             string
	ReceiveNotifications bool
	// Image replaces the stored image reference when non-empty.
	Image string
}

// Update edits the account's name and email together with its profile.
func (s *Profiles) Update(ctx context.Context, user *models.User, in ProfileInput) (*models.Profile, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	verr := &apperr.ValidationError{}
	if in.FirstName == "" {
		verr.Add("first_name", "This field is required.")
	} else if len(in.FirstName) > 30 {
		verr.Add("first_name", "Ensure this value has at most 30 characters.")
	}
	if in.LastName == "" {
		verr.Add("last_name", "This field is required.")
	} else if len(in.LastName) > 30 {
		verr.Add("last_name", "Ensure this value has at most 30 characters.")
	}
	if in.Email == "" {
		verr.Add("email", "This field is required.")
	} else if validate.Var(in.Email, "email") != nil {
		verr.Add("email", "Enter a valid email address.")
	}
	validateProfileFields(verr, in.Phone, in.Location, in.Language)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	taken, err := exists(db.Model(&models.User{}).Where("LOWER(email) = ? AND id <> ?", in.Email, user.ID))
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Field("email", "A user with that email already exists.")
	}

	profile, err := s.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(map[string]interface{}{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
			"email":      in.Email,
		}).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"bio":                   in.Bio,
			"phone":                 strings.TrimSpace(in.Phone),
			"location":              strings.TrimSpace(in.Location),
			"receive_notifications": in.ReceiveNotifications,
		}
		if in.Language != "" {
			updates["language"] = in.Language
		}
		if in.Image != "" {
			updates["image"] = in.Image
		}
		return tx.Model(profile).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Field("email", "A user with that email already exists.")
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	user.FirstName, user.LastName, user.Email = in.FirstName, in.LastName, in.Email
	profile.Bio = in.Bio
	profile.Phone = strings.TrimSpace(in.Phone)
	profile.Location = strings.TrimSpace(in.Location)
	profile.ReceiveNotifications = in.ReceiveNotifications
	if in.Language != "" {
		profile.Language = in.Language
	}
	if in.Image != "" {
		profile.Image = in.Image
	}
	return profile, nil
}

func validateProfileFields(verr *apperr.ValidationError, phone, location, language string) {
	if len(strings.TrimSpace(phone)) > 20 {
		verr.Add("phone", "Ensure this value has at most 20 characters.")
	}
	if len(strings.TrimSpace(location)) > 100 {
		verr.Add("location", "Ensure this value has at most 100 characters.")
	}
	if language != "" && !supportedLanguages[language] {
		verr.Add("language", "Select a valid choice.")
	}
}
