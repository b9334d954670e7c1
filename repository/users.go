package repository

import (
	"context"
	"errors"
	"fmt"

	"breadit/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 新建用户，用户名重复时返回 ErrDuplicate
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
