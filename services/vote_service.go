package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"breadit/logger"
	"breadit/metrics"
	"breadit/models"
	"breadit/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoteAction 一次投票请求对账本做出的变更
type VoteAction string

const (
	ActionCreated VoteAction = "created"
	ActionFlipped VoteAction = "flipped"
	ActionRemoved VoteAction = "removed"
)

// VoteResult SubmitVote 的结果。Vote 为空表示当前用户已没有投票
type VoteResult struct {
	Action VoteAction
	Vote   models.VoteType
	Score  int
	Cache  SyncOutcome
}

// VoteService 投票状态机：决定账本变更、重新计算分数并触发缓存同步
type VoteService struct {
	ledger  VoteLedger
	posts   PostStore
	sync    *CacheSynchronizer
	events  EventPublisher
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type VoteServiceOption func(*VoteService)

func WithEventPublisher(p EventPublisher) VoteServiceOption {
	return func(s *VoteService) {
		if p != nil {
			s.events = p
		}
	}
}

func WithVoteLogger(log *zap.Logger) VoteServiceOption {
	return func(s *VoteService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithVoteMetrics(m *metrics.Metrics) VoteServiceOption {
	return func(s *VoteService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewVoteService(ledger VoteLedger, posts PostStore, sync *CacheSynchronizer, opts ...VoteServiceOption) *VoteService {
	s := &VoteService{
		ledger:  ledger,
		posts:   posts,
		sync:    sync,
		events:  nopPublisher{},
		log:     zap.NewNop(),
		metrics: metrics.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitVote 是账本唯一的写入口。
//
//	无记录         -> 新建
//	类型相同       -> 删除（取消投票）
//	类型不同       -> 修改类型
//
// 账本变更成功即视为成功；缓存同步和事件投递失败只记录日志。
func (s *VoteService) SubmitVote(ctx context.Context, userID, postID string, voteType models.VoteType) (*VoteResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateVote(postID, voteType); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, s.log).With(zap.String("user_id", userID), zap.String("post_id", postID), zap.String("vote", string(voteType)))

	existing, err := s.ledger.Find(ctx, userID, postID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("lookup existing vote failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		existing = nil
	}

	post, err := s.posts.FindWithVotes(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error("lookup post failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	result, err := s.apply(ctx, log, userID, postID, existing, voteType)
	if err != nil {
		log.Error("vote ledger mutation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	s.metrics.Votes.WithLabelValues(string(result.Action)).Inc()

	// 版本号要在提交之后、重新读取投票之前分配
	version := s.sync.Sequence(ctx, postID)

	votes, err := s.ledger.ListByPost(ctx, postID)
	if err != nil {
		log.Warn("reload votes after mutation failed, skipping cache sync", zap.Error(err))
		result.Score = Score(project(post.Votes, userID, result.Vote))
		result.Cache = SyncFailed
		s.metrics.CacheSync.WithLabelValues(string(SyncFailed)).Inc()
	} else {
		result.Score = Score(votes)
		result.Cache = s.sync.Sync(ctx, SyncRequest{
			Post:    post,
			Action:  result.Action,
			Vote:    result.Vote,
			Score:   result.Score,
			Version: version,
		})
	}

	event := VoteEvent{
		UserID:     userID,
		PostID:     postID,
		Action:     result.Action,
		Type:       result.Vote,
		Score:      result.Score,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishVote(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("publish vote event failed", zap.Error(err))
	}

	log.Debug("vote applied",
		zap.String("action", string(result.Action)),
		zap.Int("score", result.Score),
		zap.String("cache", string(result.Cache)))
	return result, nil
}

func (s *VoteService) apply(ctx context.Context, log *zap.Logger, userID, postID string, existing *models.Vote, requested models.VoteType) (*VoteResult, error) {
	switch {
	case existing == nil:
		if err := s.ledger.Upsert(ctx, &models.Vote{UserID: userID, PostID: postID, Type: requested}); err != nil {
			return nil, err
		}
		return &VoteResult{Action: ActionCreated, Vote: requested}, nil

	case existing.Type == requested:
		deleted, err := s.ledger.DeleteIfType(ctx, userID, postID, requested)
		if err != nil {
			return nil, err
		}
		if !deleted {
			log.Debug("vote changed concurrently before toggle-off")
		}
		return &VoteResult{Action: ActionRemoved}, nil

	default:
		if err := s.ledger.Upsert(ctx, &models.Vote{UserID: userID, PostID: postID, Type: requested}); err != nil {
			return nil, err
		}
		return &VoteResult{Action: ActionFlipped, Vote: requested}, nil
	}
}

func validateVote(postID string, voteType models.VoteType) error {
	if _, err := uuid.Parse(postID); err != nil {
		return fmt.Errorf("%w: invalid post id", ErrValidation)
	}
	if !voteType.Valid() {
		return fmt.Errorf("%w: invalid vote type %q", ErrValidation, voteType)
	}
	return nil
}

// project 在内存中把 userID 的投票替换为 vote（为空则移除）
func project(votes []models.Vote, userID string, vote models.VoteType) []models.Vote {
	out := make([]models.Vote, 0, len(votes)+1)
	for _, v := range votes {
		if v.UserID != userID {
			out = append(out, v)
		}
	}
	if vote != "" {
		out = append(out, models.Vote{UserID: userID, Type: vote})
	}
	return out
}
