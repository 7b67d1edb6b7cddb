package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/models"
	"orgdirectory/internal/rbac"
)

type Categories struct {
	DB *gorm.DB
}

type CategoryInput struct {
	Name        string
	Description string
	// Status is left unchanged (or active on create) when nil.
	Status *bool
}

// List returns every category, active or not. Staff only.
func (s *Categories) List(ctx context.Context, actor *models.User) ([]models.Category, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	var cats []models.Category
	err := s.DB.WithContext(ctx).Order("name").Find(&cats).Error
	return cats, err
}

// ListActive returns the categories offered in organization forms and feed
// filters.
func (s *Categories) ListActive(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.DB.WithContext(ctx).Where("status = ?", true).Order("name").Find(&cats).Error
	return cats, err
}

func (s *Categories) Get(ctx context.Context, actor *models.User, id int64) (*models.Category, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	return s.find(s.DB.WithContext(ctx), id)
}

func (s *Categories) Create(ctx context.Context, actor *models.User, in CategoryInput) (*models.Category, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	name, err := s.validate(db, in, 0)
	if err != nil {
		return nil, err
	}

	cat := models.NewCategory(name, strings.TrimSpace(in.Description))
	if in.Status != nil {
		cat.Status = *in.Status
	}
	if err := db.Create(&cat).Error; err != nil {
		return nil, translateCategoryErr(err)
	}
	return &cat, nil
}

func (s *Categories) Update(ctx context.Context, actor *models.User, id int64, in CategoryInput) (*models.Category, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	cat, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	name, err := s.validate(db, in, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        name,
		"description": strings.TrimSpace(in.Description),
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if err := db.Model(cat).Updates(updates).Error; err != nil {
		return nil, translateCategoryErr(err)
	}
	return s.find(db, id)
}

// ToggleStatus flips the active flag. Organizations keep the category
// either way.
func (s *Categories) ToggleStatus(ctx context.Context, actor *models.User, id int64) (*models.Category, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	cat, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	next := !cat.Status
	if err := db.Model(cat).Update("status", next).Error; err != nil {
		return nil, err
	}
	cat.Status = next
	return cat, nil
}

func (s *Categories) find(db *gorm.DB, id int64) (*models.Category, error) {
	var cat models.Category
	err := db.First(&cat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// validate checks the name and its case-insensitive uniqueness, ignoring
// the category being edited (selfID).
func (s *Categories) validate(db *gorm.DB, in CategoryInput, selfID int64) (string, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return "", apperr.Field("name", "This field is required.")
	case len(name) > 100:
		return "", apperr.Field("name", "Ensure this value has at most 100 characters.")
	}

	q := db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if selfID != 0 {
		q = q.Where("id <> ?", selfID)
	}
	taken, err := exists(q)
	if err != nil {
		return "", err
	}
	if taken {
		return "", apperr.Field("name", fmt.Sprintf("A category named %q already exists.", name))
	}
	return name, nil
}

func translateCategoryErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Field("name", "A category with that name already exists.")
	}
	return err
}
