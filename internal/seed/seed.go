package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"orgdirectory/internal/auth"
	"orgdirectory/internal/config"
	"orgdirectory/internal/models"
)

// FirstSetup makes sure an active staff account exists so pending signups
// can be approved. It is a no-op when the account is already present.
func FirstSetup(ctx context.Context, db *gorm.DB, cfg config.SeedConfig, log *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" || cfg.AdminPassword == "" {
		return errors.New("seed: admin username and password are required")
	}

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		log.Info("seed skipped, admin already exists", zap.String("username", username))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	activated := time.Now()
	admin := models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		FirstName:    "Admin",
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		ActivatedAt:  &activated,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		profile := models.NewProfile(admin.ID)
		return tx.Create(&profile).Error
	})
	if err != nil {
		return err
	}

	log.Info("seed ok", zap.String("admin", admin.Username), zap.Int64("id", admin.ID))
	return nil
}
