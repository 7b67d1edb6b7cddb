package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"orgdirectory/internal/models"
)

// FeedQuery filters the public organization feed. Search holds
// comma-separated terms; CategoryID of zero means no category filter.
type FeedQuery struct {
	Search     string
	CategoryID int64
}

// ParseTerms splits a comma-separated search string into trimmed, non-empty
// terms.
func ParseTerms(search string) []string {
	var terms []string
	for _, t := range strings.Split(search, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ? ESCAPE '!'".
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

var feedColumns = []string{
	"organizations.name",
	"organizations.services",
	"organizations.type",
	"c.name",
}

// Search returns the organizations matching any of the search terms (in
// name, services, type or a category name) and, when set, tagged with the
// category. Each organization appears once, in id order.
func (s *Organizations) Search(ctx context.Context, q FeedQuery) ([]models.Organization, error) {
	db := s.DB.WithContext(ctx)

	matching := db.Table("organizations").
		Select("organizations.id").
		Joins("LEFT JOIN organization_categories oc ON oc.organization_id = organizations.id").
		Joins("LEFT JOIN categories c ON c.id = oc.category_id")

	if terms := ParseTerms(q.Search); len(terms) > 0 {
		var conds []string
		var args []interface{}
		for _, t := range terms {
			like := likePattern(t)
			for _, col := range feedColumns {
				conds = append(conds, "LOWER("+col+") LIKE ? ESCAPE '!'")
				args = append(args, like)
			}
		}
		matching = matching.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	if q.CategoryID > 0 {
		matching = matching.Where(
			"EXISTS (SELECT 1 FROM organization_categories f WHERE f.organization_id = organizations.id AND f.category_id = ?)",
			q.CategoryID)
	}

	var orgs []models.Organization
	err := db.Preload("Categories", func(tx *gorm.DB) *gorm.DB { return tx.Order("categories.name") }).
		Where("id IN (?)", matching).
		Order("id").
		Find(&orgs).Error
	return orgs, err
}
