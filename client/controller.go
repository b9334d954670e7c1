package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"breadit/models"
)

var ErrInvalidVote = errors.New("client: invalid vote type")

// Voter 把投票请求发给服务端
type Voter interface {
	Vote(ctx context.Context, postID string, t models.VoteType) error
}

// Controller 管理一个帖子的乐观投票状态。每次预测带一个序号；
// 请求失败时只有在之后没有新的预测时才回滚，否则保留较新的预测
type Controller struct {
	postID   string
	voter    Voter
	onChange func(State)

	mu    sync.Mutex
	state State
	seq   uint64
}

type Option func(*Controller)

// WithOnChange 每次状态变化时在持锁状态下调用 fn，fn 不能回调 Controller
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func NewController(postID string, initial State, voter Voter, opts ...Option) *Controller {
	c := &Controller{postID: postID, voter: voter, state: initial}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset 用服务端数据覆盖本地状态，仍在进行中的请求失败后不再回滚
func (c *Controller) Reset(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.set(s)
}

// Vote 立即应用预测，然后发送请求。成功时保留预测，失败时按条件回滚并返回错误
func (c *Controller) Vote(ctx context.Context, t models.VoteType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVote, t)
	}

	c.mu.Lock()
	prev := c.state.CurrentVote
	next, delta := Predict(c.state, t)
	c.seq++
	seq := c.seq
	c.set(next)
	c.mu.Unlock()

	err := c.voter.Vote(ctx, c.postID, t)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	if c.seq == seq {
		c.set(Rollback(c.state, prev, delta))
	}
	c.mu.Unlock()
	return err
}

func (c *Controller) set(s State) {
	c.state = s
	if c.onChange != nil {
		c.onChange(s)
	}
}
