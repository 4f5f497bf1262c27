package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/models"
)

// AdminUserRepository persists admin dashboard accounts.
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	Save(ctx context.Context, user *models.AdminUser) error
	GetByID(ctx context.Context, id uint) (models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (models.AdminUser, error)
	Deactivate(ctx context.Context, id uint) error
	ListActive(ctx context.Context) ([]models.AdminUser, error)
}

type adminUserRepository struct {
	db *gorm.DB
}

// NewAdminUserRepository constructs the admin user repository.
func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *adminUserRepository) Save(ctx context.Context, user *models.AdminUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *adminUserRepository) GetByID(ctx context.Context, id uint) (models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.AdminUser{}, err
	}
	return user, nil
}

func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return models.AdminUser{}, err
	}
	return user, nil
}

func (r *adminUserRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *adminUserRepository) ListActive(ctx context.Context) ([]models.AdminUser, error) {
	var users []models.AdminUser
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("role ASC, name ASC").
		Find(&users).Error
	return users, err
}
