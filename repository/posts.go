package repository

import (
	"context"
	"errors"
	"fmt"

	"breadit/models"

	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Votes").Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// FindWithVotes 读取帖子及其作者和全部投票
func (r *PostRepository) FindWithVotes(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Votes").
		Where("id = ?", id).
		Take(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}
