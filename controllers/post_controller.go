package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"breadit/middlewares"
	"breadit/models"
	"breadit/services"

	"github.com/gin-gonic/gin"
)

type PostCreator interface {
	CreatePost(ctx context.Context, authorID string, in services.CreatePostInput) (*models.Post, error)
}

type PostViewer interface {
	ReadPost(ctx context.Context, postID, viewerID string) (*services.PostView, error)
	TopPosts(ctx context.Context, n int) ([]services.RankedPostView, error)
}

type CreatePostRequest struct {
	Title       string          `json:"title" binding:"required,min=3,max=128"`
	SubredditID string          `json:"subredditId" binding:"required"`
	Content     json.RawMessage `json:"content"`
}

// CreatePost: POST /api/subreddit/post/create
func CreatePost(svc PostCreator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := middlewares.CurrentSession(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CreatePostRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			bindError(ctx, err)
			return
		}

		post, err := svc.CreatePost(ctx.Request.Context(), userID, services.CreatePostInput{
			Title:       req.Title,
			Content:     string(req.Content),
			SubredditID: req.SubredditID,
		})
		if err != nil {
			respondError(ctx, err, "Error creating post")
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"id": post.ID})
	}
}

// GetPost: GET /api/posts/:id
func GetPost(svc PostViewer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		viewerID, _ := middlewares.CurrentSession(ctx)

		view, err := svc.ReadPost(ctx.Request.Context(), ctx.Param("id"), viewerID)
		if err != nil {
			respondError(ctx, err, "Error loading post",
				errorCase{services.ErrNotFound, http.StatusNotFound, "Post not found"})
			return
		}
		ctx.JSON(http.StatusOK, view)
	}
}

// GetTopPosts: GET /api/posts/top?top=N，默认 10
func GetTopPosts(svc PostViewer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		top, err := strconv.Atoi(ctx.DefaultQuery("top", "10"))
		if err != nil || top <= 0 {
			top = 10
		}

		list, err := svc.TopPosts(ctx.Request.Context(), top)
		if err != nil {
			respondError(ctx, err, "Error loading ranking")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"list": list})
	}
}
