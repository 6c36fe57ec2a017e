package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/lowilleq/exterra/internal/models"
)

// AdminRepository stores dashboard accounts.
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository constructs AdminRepository.
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail loads an admin account.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&admin).Error
	if err != nil {
		return nil, classify(err)
	}
	return &admin, nil
}

// Ensure creates the account when missing and resets its password hash
// when it already exists.
func (r *AdminRepository) Ensure(ctx context.Context, email, passwordHash string) (*models.AdminUser, error) {
	admin := models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
	}

	err := classify(r.db.WithContext(ctx).Create(&admin).Error)
	if err == nil {
		return &admin, nil
	}
	if err != ErrConflict {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("email = ?", admin.Email).
		Update("password_hash", passwordHash).Error; err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, admin.Email)
}
