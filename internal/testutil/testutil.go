// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"orgdirectory/internal/auth"
	"orgdirectory/internal/models"
)

// Password is the password of every fixture account.
const Password = "correct-horse-battery"

// SetupSQLiteTestDB opens a fresh in-memory database with every table
// migrated. The pool is pinned to one connection so all queries see the same
// in-memory database.
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

type UserOption func(*models.User)

func Active(u *models.User) {
	u.IsActive = true
	t := time.Now()
	u.ActivatedAt = &t
}

func Staff(u *models.User) {
	Active(u)
	u.IsStaff = true
}

// CreateUser stores an account (inactive unless an option says otherwise)
// with a default profile. Its password is Password.
func CreateUser(t *testing.T, db *gorm.DB, username string, opts ...UserOption) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(Password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: hash,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	profile := models.NewProfile(u.ID)
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile for %s: %v", username, err)
	}
	u.Profile = &profile
	return u
}

// CreateCategory stores a category with the given active flag.
func CreateCategory(t *testing.T, db *gorm.DB, name string, active bool) *models.Category {
	t.Helper()
	cat := models.NewCategory(name, "")
	cat.Status = active
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return &cat
}
