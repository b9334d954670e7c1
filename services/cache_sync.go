package services

import (
	"context"
	"time"

	"breadit/logger"
	"breadit/metrics"
	"breadit/models"

	"go.uber.org/zap"
)

// CacheStrategy 快照写入方式
type CacheStrategy string

const (
	// StrategyOverwrite 盲写覆盖，最后落地的写入生效
	StrategyOverwrite CacheStrategy = "overwrite"
	// StrategyVersioned 带版本号的条件写，只接受更新的快照
	StrategyVersioned CacheStrategy = "versioned"
)

// CachePolicy 决定何时以及如何把帖子快照写入缓存
type CachePolicy struct {
	Threshold           int
	Strategy            CacheStrategy
	TTL                 time.Duration
	WriteTimeout        time.Duration
	EvictBelowThreshold bool
}

func DefaultCachePolicy() CachePolicy {
	return CachePolicy{
		Threshold:    1,
		Strategy:     StrategyOverwrite,
		WriteTimeout: 250 * time.Millisecond,
	}
}

// SyncOutcome 一次同步的结果
type SyncOutcome string

const (
	SyncWritten SyncOutcome = "written"
	SyncSkipped SyncOutcome = "skipped"
	SyncStale   SyncOutcome = "stale"
	SyncEvicted SyncOutcome = "evicted"
	SyncFailed  SyncOutcome = "failed"
)

// SyncRequest 一次账本变更之后交给同步器的数据
type SyncRequest struct {
	Post    *models.Post
	Action  VoteAction
	Vote    models.VoteType
	Score   int
	Version int64
}

// CacheSynchronizer 按策略把帖子快照写入缓存。所有失败都只记录日志和指标，不向上返回
type CacheSynchronizer struct {
	cache   SnapshotCache
	policy  CachePolicy
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewCacheSynchronizer(cache SnapshotCache, policy CachePolicy, log *zap.Logger, m *metrics.Metrics) *CacheSynchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	if policy.Strategy == "" {
		policy.Strategy = StrategyOverwrite
	}
	return &CacheSynchronizer{cache: cache, policy: policy, log: log, metrics: m}
}

func (s *CacheSynchronizer) Policy() CachePolicy {
	return s.policy
}

// Sequence 为即将读取的分数分配版本号。必须在账本提交之后、读取投票之前调用。
// overwrite 策略或分配失败时返回 0
func (s *CacheSynchronizer) Sequence(ctx context.Context, postID string) int64 {
	if s.policy.Strategy != StrategyVersioned {
		return 0
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	version, err := s.cache.NextVersion(ctx, postID)
	if err != nil {
		s.log.Warn("allocate snapshot version failed", zap.String("post_id", postID), zap.Error(err))
		return 0
	}
	return version
}

// Sync 执行一次同步
func (s *CacheSynchronizer) Sync(ctx context.Context, req SyncRequest) SyncOutcome {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	outcome := s.sync(ctx, req)
	s.metrics.CacheSync.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (s *CacheSynchronizer) sync(ctx context.Context, req SyncRequest) SyncOutcome {
	log := logger.WithContext(ctx, s.log).With(zap.String("post_id", req.Post.ID), zap.Int("score", req.Score))

	if req.Score < s.policy.Threshold {
		if !s.policy.EvictBelowThreshold {
			return SyncSkipped
		}
		if s.policy.Strategy == StrategyVersioned {
			return s.evictIfNewer(ctx, log, req)
		}
		if err := s.cache.Evict(ctx, req.Post.ID); err != nil {
			log.Warn("evict post snapshot failed", zap.Error(err))
			return SyncFailed
		}
		return SyncEvicted
	}

	// 取消投票后没有“当前投票”可写，保持原快照
	if req.Action == ActionRemoved {
		return SyncSkipped
	}

	snap := snapshotOf(req)
	if s.policy.Strategy == StrategyVersioned {
		if req.Version <= 0 {
			log.Warn("skip snapshot write without version")
			return SyncFailed
		}
		written, err := s.cache.WriteIfNewer(ctx, snap, s.policy.TTL)
		if err != nil {
			log.Warn("conditional snapshot write failed", zap.Error(err))
			return SyncFailed
		}
		if !written {
			log.Debug("snapshot superseded by newer version", zap.Int64("version", req.Version))
			return SyncStale
		}
		return SyncWritten
	}

	if err := s.cache.Write(ctx, snap, s.policy.TTL); err != nil {
		log.Warn("snapshot write failed", zap.Error(err))
		return SyncFailed
	}
	return SyncWritten
}

func (s *CacheSynchronizer) evictIfNewer(ctx context.Context, log *zap.Logger, req SyncRequest) SyncOutcome {
	if req.Version <= 0 {
		log.Warn("skip snapshot eviction without version")
		return SyncFailed
	}
	evicted, err := s.cache.EvictIfNewer(ctx, req.Post.ID, req.Version, s.policy.TTL)
	if err != nil {
		log.Warn("conditional snapshot eviction failed", zap.Error(err))
		return SyncFailed
	}
	if !evicted {
		log.Debug("eviction superseded by newer version", zap.Int64("version", req.Version))
		return SyncStale
	}
	return SyncEvicted
}

// withTimeout 与请求的取消解耦：账本已提交，客户端断开不应中断缓存写入
func (s *CacheSynchronizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.policy.WriteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.policy.WriteTimeout)
}

func snapshotOf(req SyncRequest) *models.CachedPost {
	return &models.CachedPost{
		ID:             req.Post.ID,
		Title:          req.Post.Title,
		AuthorUsername: req.Post.Author.Username,
		Content:        req.Post.Content,
		CurrentVote:    req.Vote,
		Score:          req.Score,
		CreatedAt:      req.Post.CreatedAt,
		Version:        req.Version,
	}
}
