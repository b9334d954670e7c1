package models

import "time"

// Post 帖子。Content 保存编辑器输出的序列化 JSON
type Post struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"size:128;not null"`
	Content     string `gorm:"type:text"`
	SubredditID string `gorm:"size:64;index"`
	AuthorID    string `gorm:"size:36;index"`
	Author      User   `gorm:"foreignKey:AuthorID"`
	Votes       []Vote `gorm:"foreignKey:PostID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CachedPost 是写入 Redis 的帖子快照（hash: post:{id}）
// Score 是某一次投票请求观察到的分数，不是实时总数
type CachedPost struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	AuthorUsername string    `json:"authorUsername"`
	Content        string    `json:"content"`
	CurrentVote    VoteType  `json:"currentVote"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"createdAt"`
	Version        int64     `json:"version,omitempty"`
}
