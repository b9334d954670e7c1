package services

import (
	"context"
	"time"

	"breadit/models"
	"breadit/repository"
)

// VoteLedger 投票账本（权威数据源）
type VoteLedger interface {
	Find(ctx context.Context, userID, postID string) (*models.Vote, error)
	Upsert(ctx context.Context, vote *models.Vote) error
	DeleteIfType(ctx context.Context, userID, postID string, voteType models.VoteType) (bool, error)
	ListByPost(ctx context.Context, postID string) ([]models.Vote, error)
}

// PostStore 帖子存储
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindWithVotes(ctx context.Context, id string) (*models.Post, error)
}

// UserStore 用户存储
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// SnapshotCache 帖子快照缓存
type SnapshotCache interface {
	Read(ctx context.Context, postID string) (*models.CachedPost, error)
	Write(ctx context.Context, snap *models.CachedPost, ttl time.Duration) error
	WriteIfNewer(ctx context.Context, snap *models.CachedPost, ttl time.Duration) (bool, error)
	NextVersion(ctx context.Context, postID string) (int64, error)
	Evict(ctx context.Context, postID string) error
	EvictIfNewer(ctx context.Context, postID string, version int64, ttl time.Duration) (bool, error)
	Top(ctx context.Context, n int) ([]repository.RankedPost, error)
}

// EventPublisher 投递投票事件，失败不影响投票结果
type EventPublisher interface {
	PublishVote(ctx context.Context, event VoteEvent) error
}

// VoteEvent 每次账本变更后发出的事件
type VoteEvent struct {
	UserID     string          `json:"userId"`
	PostID     string          `json:"postId"`
	Action     VoteAction      `json:"action"`
	Type       models.VoteType `json:"type,omitempty"`
	Score      int             `json:"score"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type nopPublisher struct{}

func (nopPublisher) PublishVote(context.Context, VoteEvent) error { return nil }
