// Package user provides experimenter/admin account storage. Passwords
// are bcrypt-hashed before they touch the database; there is no login
// or token logic in this backend.
package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/KaihuiLiang/openai-realtime-agents/internal/apperr"
	"github.com/KaihuiLiang/openai-realtime-agents/internal/models"
)

// Roles accepted for an account.
const (
	RoleExperimenter = "experimenter"
	RoleAdmin        = "admin"
)

// CreateOpts holds parameters for creating a new account.
type CreateOpts struct {
	Username string
	Email    string
	Password string
	Role     string // empty → experimenter
}

// UpdateOpts holds a partial patch for an account.
type UpdateOpts struct {
	Email    *string
	Role     *string
	IsActive *bool
	Password *string // re-hashed when set
}

// List returns all accounts, newest first.
func List(gormDB *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := gormDB.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return users, nil
}

// Get retrieves an account by id, falling back to username.
func Get(gormDB *gorm.DB, ref string) (*models.User, error) {
	var u models.User
	err := gormDB.Where("id = ? OR username = ?", ref, ref).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user: %s", ref)
		}
		return nil, fmt.Errorf("user: get %s: %w", ref, err)
	}
	return &u, nil
}

// Create creates a new account with a bcrypt-hashed password.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.User, error) {
	if opts.Username == "" || opts.Email == "" {
		return nil, apperr.Conflict("user: username and email are required")
	}
	if opts.Password == "" {
		return nil, apperr.Conflict("user: password is required")
	}
	role := opts.Role
	if role == "" {
		role = RoleExperimenter
	}
	if role != RoleExperimenter && role != RoleAdmin {
		return nil, apperr.Conflict("user: unknown role %q", role)
	}

	var count int64
	if err := gormDB.Model(&models.User{}).
		Where("username = ? OR email = ?", opts.Username, opts.Email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("user: check duplicate: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("user: username or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}

	u := models.User{
		ID:           uuid.NewString(),
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := gormDB.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("user: create %s: %w", opts.Username, err)
	}
	return &u, nil
}

// Update applies a partial patch to an account.
func Update(gormDB *gorm.DB, ref string, opts UpdateOpts) (*models.User, error) {
	u, err := Get(gormDB, ref)
	if err != nil {
		return nil, err
	}

	if opts.Email != nil {
		u.Email = *opts.Email
	}
	if opts.Role != nil {
		if *opts.Role != RoleExperimenter && *opts.Role != RoleAdmin {
			return nil, apperr.Conflict("user: unknown role %q", *opts.Role)
		}
		u.Role = *opts.Role
	}
	if opts.IsActive != nil {
		u.IsActive = *opts.IsActive
	}
	if opts.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*opts.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("user: hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := gormDB.Save(u).Error; err != nil {
		return nil, fmt.Errorf("user: update %s: %w", u.ID, err)
	}
	return u, nil
}

// Delete removes an account.
func Delete(gormDB *gorm.DB, ref string) error {
	u, err := Get(gormDB, ref)
	if err != nil {
		return err
	}
	if err := gormDB.Delete(u).Error; err != nil {
		return fmt.Errorf("user: delete %s: %w", u.ID, err)
	}
	return nil
}
