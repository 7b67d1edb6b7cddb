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

type Organizations struct {
	DB *gorm.DB
}

type OrganizationInput struct {
	Name     string
	Type     string
	Website  string
	Phone    string
	TaxID    string
	Services string
	// Logo replaces the stored logo reference when non-empty.
	Logo        string
	CategoryIDs []int64
}

var orgFieldLimits = []struct {
	field    string
	max      int
	required bool
}{
	{"name", 50, true},
	{"type", 50, true},
	{"website", 80, true},
	{"phone", 50, true},
	{"nit", 20, true},
	{"services", 200, false},
}

func (in *OrganizationInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Website = strings.TrimSpace(in.Website)
	in.Phone = strings.TrimSpace(in.Phone)
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.Services = strings.TrimSpace(in.Services)
}

func (in *OrganizationInput) value(field string) string {
	switch field {
	case "name":
		return in.Name
	case "type":
		return in.Type
	case "website":
		return in.Website
	case "phone":
		return in.Phone
	case "nit":
		return in.TaxID
	case "services":
		return in.Services
	}
	return ""
}

// validate checks the scalar fields and resolves the submitted category ids.
// New links must name active categories; ids in linked may stay even if
// their category has since been deactivated.
func (s *Organizations) validate(db *gorm.DB, in *OrganizationInput, linked []models.Category) ([]models.Category, error) {
	in.normalize()

	verr := &apperr.ValidationError{}
	for _, f := range orgFieldLimits {
		v := in.value(f.field)
		switch {
		case v == "" && f.required:
			verr.Add(f.field, "This field is required.")
		case len(v) > f.max:
			verr.Add(f.field, fmt.Sprintf("Ensure this value has at most %d characters.", f.max))
		}
	}
	if in.Website != "" && validate.Var(in.Website, "url") != nil {
		verr.Add("website", "Enter a valid URL.")
	}

	kept := make(map[int64]bool, len(linked))
	for _, c := range linked {
		kept[c.ID] = true
	}
	ids := uniqueIDs(in.CategoryIDs)
	var cats []models.Category
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Order("id").Find(&cats).Error; err != nil {
			return nil, err
		}
		valid := len(cats) == len(ids)
		for _, c := range cats {
			if !c.Status && !kept[c.ID] {
				valid = false
			}
		}
		if !valid {
			verr.Add("categories", "Select a valid choice. One of the selected categories is not available.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return cats, nil
}

// Create stores a new organization owned by owner and links its categories.
// The row and its links are written in one transaction.
func (s *Organizations) Create(ctx context.Context, owner *models.Profile, in OrganizationInput) (*models.Organization, error) {
	db := s.DB.WithContext(ctx)
	cats, err := s.validate(db, &in, nil)
	if err != nil {
		return nil, err
	}

	org := models.Organization{
		OwnerID:  owner.ID,
		Name:     in.Name,
		Type:     in.Type,
		Website:  in.Website,
		Phone:    in.Phone,
		TaxID:    in.TaxID,
		Services: in.Services,
		Logo:     in.Logo,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories", "Owner").Create(&org).Error; err != nil {
			return err
		}
		if len(cats) == 0 {
			return nil
		}
		return tx.Model(&org).Association("Categories").Append(cats)
	})
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	org.Categories = cats
	return &org, nil
}

// Get loads an organization owned by owner. Organizations owned by someone
// else are reported as not found.
func (s *Organizations) Get(ctx context.Context, owner *models.Profile, id int64) (*models.Organization, error) {
	return s.owned(s.DB.WithContext(ctx), owner, id)
}

func (s *Organizations) owned(db *gorm.DB, owner *models.Profile, id int64) (*models.Organization, error) {
	var org models.Organization
	err := db.Preload("Categories", func(q *gorm.DB) *gorm.DB { return q.Order("categories.name") }).
		Where("id = ? AND owner_id = ?", id, owner.ID).
		First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Update edits an owned organization. The category set becomes exactly the
// submitted ids; an inactive category stays linked only while it is
// submitted again.
func (s *Organizations) Update(ctx context.Context, owner *models.Profile, id int64, in OrganizationInput) (*models.Organization, error) {
	db := s.DB.WithContext(ctx)
	org, err := s.owned(db, owner, id)
	if err != nil {
		return nil, err
	}
	cats, err := s.validate(db, &in, org.Categories)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":     in.Name,
		"type":     in.Type,
		"website":  in.Website,
		"phone":    in.Phone,
		"nit":      in.TaxID,
		"services": in.Services,
	}
	if in.Logo != "" {
		updates["logo"] = in.Logo
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(org).Omit("Categories", "Owner").Updates(updates).Error; err != nil {
			return err
		}
		links := tx.Model(org).Association("Categories")
		if len(cats) == 0 {
			return links.Clear()
		}
		return links.Replace(cats)
	})
	if err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return s.owned(db, owner, id)
}

// Delete removes an owned organization together with its category links.
func (s *Organizations) Delete(ctx context.Context, owner *models.Profile, id int64) error {
	db := s.DB.WithContext(ctx)
	org, err := s.owned(db, owner, id)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(org).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Organization{}, org.ID).Error
	})
}

// ListOwned returns the owner's organizations in creation order.
func (s *Organizations) ListOwned(ctx context.Context, owner *models.Profile) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.DB.WithContext(ctx).
		Preload("Categories").
		Where("owner_id = ?", owner.ID).
		Order("id").
		Find(&orgs).Error
	return orgs, err
}

// FirstOwned returns the owner's earliest organization, or nil if there is
// none.
func (s *Organizations) FirstOwned(ctx context.Context, owner *models.Profile) (*models.Organization, error) {
	var orgs []models.Organization
	err := s.DB.WithContext(ctx).
		Preload("Categories").
		Where("owner_id = ?", owner.ID).
		Order("id").
		Limit(1).
		Find(&orgs).Error
	if err != nil || len(orgs) == 0 {
		return nil, err
	}
	return &orgs[0], nil
}

// Recent returns the n most recently created organizations in the directory.
func (s *Organizations) Recent(ctx context.Context, n int) ([]models.Organization, error) {
	if n <= 0 {
		return []models.Organization{}, nil
	}
	var orgs []models.Organization
	err := s.DB.WithContext(ctx).
		Preload("Categories").
		Order("created_at DESC").Order("id DESC").
		Limit(n).
		Find(&orgs).Error
	return orgs, err
}
