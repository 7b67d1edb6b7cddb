package models

import "time"

const DefaultLanguage = "es"

// Profile extends a User one-to-one with contact details and preferences.
type Profile struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	UserID               int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio                  string    `gorm:"type:text" json:"bio"`
	Phone                string    `gorm:"size:20" json:"phone"`
	Location             string    `gorm:"size:100" json:"location"`
	Language             string    `gorm:"size:10;not null" json:"language"`
	ReceiveNotifications bool      `gorm:"not null" json:"receive_notifications"`
	Image                string    `gorm:"size:255" json:"image,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewProfile returns a profile for userID with the default preferences set.
func NewProfile(userID int64) Profile {
	return Profile{
		UserID:               userID,
		Language:             DefaultLanguage,
		ReceiveNotifications: true,
	}
}
