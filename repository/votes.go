package repository

import (
	"context"
	"errors"
	"fmt"

	"breadit/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository 投票账本，是帖子分数的唯一事实来源
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Find 查询 (userID, postID) 的投票记录，不存在时返回 ErrNotFound
func (r *VoteRepository) Find(ctx context.Context, userID, postID string) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Take(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find vote: %w", err)
	}
	return &vote, nil
}

// Upsert 以 (user_id, post_id) 为键原子地插入或修改投票类型
func (r *VoteRepository) Upsert(ctx context.Context, vote *models.Vote) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		}).
		Create(vote).Error
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

// DeleteIfType 仅当当前记录类型仍为 voteType 时删除，返回是否真的删除了
func (r *VoteRepository) DeleteIfType(ctx context.Context, userID, postID string, voteType models.VoteType) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ? AND type = ?", userID, postID, voteType).
		Delete(&models.Vote{})
	if res.Error != nil {
		return false, fmt.Errorf("delete vote: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListByPost 返回帖子的全部投票
func (r *VoteRepository) ListByPost(ctx context.Context, postID string) ([]models.Vote, error) {
	var votes []models.Vote
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}
