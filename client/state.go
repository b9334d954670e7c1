// Package client 实现投票组件的乐观更新：先在本地预测结果，请求失败再回滚。
package client

import "breadit/models"

// VoteNone 表示当前没有投票
const VoteNone models.VoteType = ""

// State 单个帖子在客户端的投票状态
type State struct {
	CurrentVote    models.VoteType
	DisplayedScore int
}

// Predict 根据当前状态和点击的投票类型给出预测状态，以及分数的变化量
//
//	同类型再点一次 -> 取消，UP 为 -1，DOWN 为 +1
//	原来没有投票   -> UP +1，DOWN -1
//	从相反类型切换 -> ±2
func Predict(s State, t models.VoteType) (State, int) {
	var delta int
	next := s

	switch {
	case s.CurrentVote == t:
		next.CurrentVote = VoteNone
		delta = -t.Weight()
	case s.CurrentVote == VoteNone:
		next.CurrentVote = t
		delta = t.Weight()
	default:
		next.CurrentVote = t
		delta = 2 * t.Weight()
	}

	next.DisplayedScore += delta
	return next, delta
}

// Rollback 撤销一次预测：投票恢复为 prev，分数减去当时施加的 delta
func Rollback(current State, prev models.VoteType, delta int) State {
	return State{CurrentVote: prev, DisplayedScore: current.DisplayedScore - delta}
}
