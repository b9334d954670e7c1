package services

import "breadit/models"

// Score 对全部投票求和：UP +1，DOWN -1，空集合为 0
func Score(votes []models.Vote) int {
	score := 0
	for _, v := range votes {
		score += v.Type.Weight()
	}
	return score
}

// VoteOf 返回 userID 在 votes 中的投票类型，没有则返回空字符串
func VoteOf(votes []models.Vote, userID string) models.VoteType {
	if userID == "" {
		return ""
	}
	for _, v := range votes {
		if v.UserID == userID {
			return v.Type
		}
	}
	return ""
}
