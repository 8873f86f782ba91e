package database

import (
	"context"
	"strings"

	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/models"
	"gorm.io/gorm"
)

type AdminRepo struct {
	db *gorm.DB
}

func NewAdminRepo(db *gorm.DB) *AdminRepo {
	return &AdminRepo{db}
}

// FindByEmail looks the admin up by normalized (trimmed, lower-case) email.
func (r *AdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&admin).Error
	if err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (r *AdminRepo) Add(ctx context.Context, admin *models.Admin) error {
	admin.Email = NormalizeEmail(admin.Email)
	return translate(r.db.WithContext(ctx).Create(admin).Error)
}

func (r *AdminRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("email = ?", NormalizeEmail(email)).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
