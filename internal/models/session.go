package models

import "time"

// Session is a server-side login session. Removing the row ends the session
// regardless of the cookie the browser still holds.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    int64     `gorm:"index;not null"`
	IP        string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:255"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
