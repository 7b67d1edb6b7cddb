package models

import (
	"strings"
	"time"
)

type Organization struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	OwnerID   int64     `gorm:"index;not null" json:"owner_id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Website   string    `gorm:"size:80" json:"website"`
	Phone     string    `gorm:"size:50" json:"phone"`
	TaxID     string    `gorm:"column:nit;size:20" json:"nit"`
	Services  string    `gorm:"size:200" json:"services"`
	Logo      string    `gorm:"size:255" json:"logo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner      *Profile   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Categories []Category `gorm:"many2many:organization_categories;" json:"categories"`
}

// ServicesList splits the comma-joined Services field. Commas inside a
// service name cannot be represented.
func (o *Organization) ServicesList() []string {
	return ParseServices(o.Services)
}

// ParseServices splits s on commas and trims each entry. An empty string
// yields an empty list.
func ParseServices(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// CategoryIDs returns the ids of the attached categories.
func (o *Organization) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(o.Categories))
	for _, c := range o.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
