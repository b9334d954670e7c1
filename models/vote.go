package models

import "time"

// VoteType 投票类型，只允许 UP / DOWN
type VoteType string

const (
	VoteUp   VoteType = "UP"
	VoteDown VoteType = "DOWN"
)

// Valid 判断投票类型是否合法
func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

// Weight 返回该类型对分数的贡献：UP 为 +1，DOWN 为 -1，其余为 0
func (t VoteType) Weight() int {
	switch t {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	default:
		return 0
	}
}

// Vote 表示用户对帖子的一条投票记录，(UserID, PostID) 唯一
type Vote struct {
	UserID    string   `gorm:"primaryKey;size:36"`
	PostID    string   `gorm:"primaryKey;size:36;index"`
	Type      VoteType `gorm:"type:varchar(8);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
