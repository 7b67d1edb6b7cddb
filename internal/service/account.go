package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"orgdirectory/internal/apperr"
	"orgdirectory/internal/auth"
	"orgdirectory/internal/models"
	"orgdirectory/internal/rbac"
)

const minPasswordLength = 8

var (
	validate        = validator.New()
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// RequestMeta describes where a request came from, for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type Accounts struct {
	DB *gorm.DB
}

type SignupInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string

	Bio                  string
	Phone                string
	Location             string
	Language             string
	ReceiveNotifications *bool
}

// Signup creates an inactive account and its profile in one transaction.
// The account cannot be used until staff activate it.
func (s *Accounts) Signup(ctx context.Context, in SignupInput, meta RequestMeta) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	verr := &apperr.ValidationError{}
	switch {
	case in.Username == "":
		verr.Add("username", "This field is required.")
	case len(in.Username) > 150:
		verr.Add("username", "Ensure this value has at most 150 characters.")
	case !usernamePattern.MatchString(in.Username):
		verr.Add("username", "Enter a valid username. Use only letters, numbers and @/./+/-/_ characters.")
	}
	if in.Email == "" {
		verr.Add("email", "This field is required.")
	} else if validate.Var(in.Email, "email") != nil {
		verr.Add("email", "Enter a valid email address.")
	}
	if len(in.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	if in.Password != in.PasswordConfirm {
		verr.Add("password_confirm", "The two password fields didn't match.")
	}
	validateProfileFields(verr, in.Phone, in.Location, in.Language)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	if taken, err := exists(db.Model(&models.User{}).Where("LOWER(username) = ?", strings.ToLower(in.Username))); err != nil {
		return nil, err
	} else if taken {
		verr.Add("username", "A user with that username already exists.")
	}
	if taken, err := exists(db.Model(&models.User{}).Where("LOWER(email) = ?", in.Email)); err != nil {
		return nil, err
	} else if taken {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     false,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.NewProfile(user.ID)
		profile.Bio = in.Bio
		profile.Phone = strings.TrimSpace(in.Phone)
		profile.Location = strings.TrimSpace(in.Location)
		if in.Language != "" {
			profile.Language = in.Language
		}
		if in.ReceiveNotifications != nil {
			profile.ReceiveNotifications = *in.ReceiveNotifications
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.Profile = &profile
		return recordAudit(tx, nil, models.AuditUserSignup, &user, nil, meta)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Field("username", "A user with that username or email already exists.")
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &user, nil
}

// Authenticate checks credentials. Inactive accounts are refused with
// ErrAccountInactive, but only once the password has been verified.
func (s *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	if !user.IsActive {
		return &user, apperr.ErrAccountInactive
	}
	return &user, nil
}

// MarkLogin records a successful sign-in.
func (s *Accounts) MarkLogin(ctx context.Context, userID int64) error {
	return s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).Error
}

func (s *Accounts) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Preload("Profile").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListPending returns the accounts that are not active, newest first.
func (s *Accounts) ListPending(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.DB.WithContext(ctx).
		Preload("Profile").
		Where("is_active = ?", false).
		Order("created_at DESC").Order("id DESC").
		Find(&users).Error
	return users, err
}

func (s *Accounts) Activate(ctx context.Context, actor *models.User, userID int64, meta RequestMeta) (*models.User, error) {
	return s.setActive(ctx, actor, userID, true, meta)
}

func (s *Accounts) Deactivate(ctx context.Context, actor *models.User, userID int64, meta RequestMeta) (*models.User, error) {
	return s.setActive(ctx, actor, userID, false, meta)
}

// SetActiveMany applies the same status to several accounts atomically and
// returns how many accounts were updated.
func (s *Accounts) SetActiveMany(ctx context.Context, actor *models.User, ids []int64, active bool, meta RequestMeta) (int, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return 0, err
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, apperr.Field("ids", "Select at least one account.")
	}
	if !active {
		for _, id := range ids {
			if id == actor.ID {
				return 0, apperr.Field("ids", "You cannot deactivate your own account.")
			}
		}
	}

	var n int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if err := tx.Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
			return err
		}
		for i := range users {
			if err := applyStatus(tx, actor, &users[i], active, meta); err != nil {
				return err
			}
		}
		n = len(users)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Accounts) setActive(ctx context.Context, actor *models.User, userID int64, active bool, meta RequestMeta) (*models.User, error) {
	if err := rbac.Check(actor, rbac.Staff).Err(); err != nil {
		return nil, err
	}
	if !active && actor.ID == userID {
		return nil, apperr.Field("", "You cannot deactivate your own account.")
	}

	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}
		return applyStatus(tx, actor, &user, active, meta)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func applyStatus(tx *gorm.DB, actor *models.User, user *models.User, active bool, meta RequestMeta) error {
	updates := map[string]interface{}{"is_active": active}
	if active && user.ActivatedAt == nil {
		t := time.Now()
		updates["activated_at"] = t
		user.ActivatedAt = &t
	}
	if err := tx.Model(user).Updates(updates).Error; err != nil {
		return err
	}
	user.IsActive = active

	action := models.AuditUserDeactivate
	if active {
		action = models.AuditUserActivate
	}
	return recordAudit(tx, actor, action, user, nil, meta)
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id <= 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
