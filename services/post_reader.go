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
	"golang.org/x/sync/errgroup"
)

// ReadSource 帖子主体字段的来源
type ReadSource string

const (
	SourceCache ReadSource = "cache"
	SourceStore ReadSource = "store"
)

// VoteAffordance 针对当前浏览者、从账本计算出的投票组件状态
type VoteAffordance struct {
	Score int             `json:"score"`
	Vote  models.VoteType `json:"vote,omitempty"`
}

// PostView 帖子详情页数据。
// Source 为 cache 时 Score 和 SnapshotVote 来自快照，可能过期，SnapshotVote 是最后一个写入者的投票
type PostView struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	AuthorUsername string          `json:"authorUsername"`
	CreatedAt      time.Time       `json:"createdAt"`
	Source         ReadSource      `json:"source"`
	Score          int             `json:"score"`
	SnapshotVote   models.VoteType `json:"snapshotVote,omitempty"`
	Viewer         *VoteAffordance `json:"viewer,omitempty"`
}

// RankedPostView 排行榜条目
type RankedPostView struct {
	Rank  int    `json:"rank"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Score int64  `json:"score"`
}

// PostReader 读路径：优先使用缓存快照，缺失时回退到账本
type PostReader struct {
	cache   SnapshotCache
	posts   PostStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewPostReader(cache SnapshotCache, posts PostStore, log *zap.Logger, m *metrics.Metrics) *PostReader {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &PostReader{cache: cache, posts: posts, log: log, metrics: m}
}

// ReadPost 同时读取缓存快照和账本；快照负责主体字段，账本负责浏览者自己的投票状态
func (r *PostReader) ReadPost(ctx context.Context, postID, viewerID string) (*PostView, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, ErrNotFound
	}
	log := logger.WithContext(ctx, r.log).With(zap.String("post_id", postID))

	// 缓存分支不返回错误，未命中或失败都按未命中处理；Wait 只带回账本的错误
	var (
		snap *models.CachedPost
		post *models.Post
		g    errgroup.Group
	)
	g.Go(func() error {
		cached, err := r.cache.Read(ctx, postID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Warn("read post snapshot failed", zap.Error(err))
			}
			return nil
		}
		snap = cached
		return nil
	})
	g.Go(func() error {
		found, err := r.posts.FindWithVotes(ctx, postID)
		if err != nil {
			return err
		}
		post = found
		return nil
	})
	storeErr := g.Wait()

	if snap != nil {
		r.metrics.ReadPath.WithLabelValues(string(SourceCache)).Inc()
		view := &PostView{
			ID:             snap.ID,
			Title:          snap.Title,
			Content:        snap.Content,
			AuthorUsername: snap.AuthorUsername,
			CreatedAt:      snap.CreatedAt,
			Source:         SourceCache,
			Score:          snap.Score,
			SnapshotVote:   snap.CurrentVote,
		}
		switch {
		case storeErr == nil:
			view.Viewer = affordance(post.Votes, viewerID)
		case !errors.Is(storeErr, repository.ErrNotFound):
			log.Warn("resolve viewer vote failed", zap.Error(storeErr))
		}
		return view, nil
	}

	if storeErr != nil {
		if errors.Is(storeErr, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error("read post failed", zap.Error(storeErr))
		return nil, fmt.Errorf("%w: %v", ErrInternal, storeErr)
	}

	r.metrics.ReadPath.WithLabelValues(string(SourceStore)).Inc()
	viewer := affordance(post.Votes, viewerID)
	return &PostView{
		ID:             post.ID,
		Title:          post.Title,
		Content:        post.Content,
		AuthorUsername: post.Author.Username,
		CreatedAt:      post.CreatedAt,
		Source:         SourceStore,
		Score:          viewer.Score,
		Viewer:         viewer,
	}, nil
}

// TopPosts 从缓存排行榜读取前 n 个帖子，标题尽量从快照补全
func (r *PostReader) TopPosts(ctx context.Context, n int) ([]RankedPostView, error) {
	ranked, err := r.cache.Top(ctx, n)
	if err != nil {
		logger.WithContext(ctx, r.log).Error("read post ranking failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	list := make([]RankedPostView, 0, len(ranked))
	for idx, item := range ranked {
		view := RankedPostView{Rank: idx + 1, ID: item.ID, Score: item.Score}
		if snap, err := r.cache.Read(ctx, item.ID); err == nil {
			view.Title = snap.Title
		}
		list = append(list, view)
	}
	return list, nil
}

func affordance(votes []models.Vote, viewerID string) *VoteAffordance {
	return &VoteAffordance{Score: Score(votes), Vote: VoteOf(votes, viewerID)}
}
