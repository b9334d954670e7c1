package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"breadit/logger"
	"breadit/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePostInput 发帖参数；Content 为编辑器输出的 JSON
type CreatePostInput struct {
	Title       string
	Content     string
	SubredditID string
}

type PostService struct {
	posts PostStore
	log   *zap.Logger
}

func NewPostService(posts PostStore, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{posts: posts, log: log}
}

// CreatePost 标题长度需在 3 到 128 个字符之间
func (s *PostService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*models.Post, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	title := strings.TrimSpace(in.Title)
	if n := utf8.RuneCountInString(title); n < 3 || n > 128 {
		return nil, fmt.Errorf("%w: title must be between 3 and 128 characters", ErrValidation)
	}
	if strings.TrimSpace(in.SubredditID) == "" {
		return nil, fmt.Errorf("%w: subredditId is required", ErrValidation)
	}

	post := &models.Post{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     in.Content,
		SubredditID: in.SubredditID,
		AuthorID:    authorID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		logger.WithContext(ctx, s.log).Error("create post failed", zap.String("author_id", authorID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return post, nil
}
