package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"orgdirectory/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	// Get returns ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// DBSessionStore keeps sessions in the sessions table.
type DBSessionStore struct {
	DB *gorm.DB
}

func NewDBSessionStore(db *gorm.DB) *DBSessionStore {
	return &DBSessionStore{DB: db}
}

func (s *DBSessionStore) Create(ctx context.Context, sess *models.Session) error {
	return s.DB.WithContext(ctx).Create(sess).Error
}

func (s *DBSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(now()) {
		_ = s.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *DBSessionStore) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

// DeleteExpired removes every session past its expiry.
func (s *DBSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", now()).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
