package models

import "time"

type UserStatus string

const (
	UserPending     UserStatus = "pending"
	UserActive      UserStatus = "active"
	UserDeactivated UserStatus = "deactivated"
)

// User is an account. New accounts start inactive and wait for staff approval.
type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	IsActive     bool       `gorm:"not null;default:false" json:"is_active"`
	IsStaff      bool       `gorm:"not null;default:false" json:"is_staff"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"date_joined"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// Status reports whether the account is waiting for approval, active, or was
// switched off after having been approved. Access checks only look at IsActive.
func (u *User) Status() UserStatus {
	switch {
	case u.IsActive:
		return UserActive
	case u.ActivatedAt != nil:
		return UserDeactivated
	default:
		return UserPending
	}
}
