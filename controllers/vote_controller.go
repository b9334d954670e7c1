package controllers

import (
	"context"
	"net/http"

	"breadit/middlewares"
	"breadit/models"
	"breadit/services"

	"github.com/gin-gonic/gin"
)

type VoteSubmitter interface {
	SubmitVote(ctx context.Context, userID, postID string, voteType models.VoteType) (*services.VoteResult, error)
}

type VoteRequest struct {
	PostID   string          `json:"postId" binding:"required"`
	VoteType models.VoteType `json:"voteType" binding:"required,oneof=UP DOWN"`
}

// VotePost: PATCH /api/subreddit/post/vote
// 首次投票返回 201，修改或取消投票返回 200
func VotePost(svc VoteSubmitter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := middlewares.CurrentSession(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req VoteRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			bindError(ctx, err)
			return
		}

		result, err := svc.SubmitVote(ctx.Request.Context(), userID, req.PostID, req.VoteType)
		if err != nil {
			respondError(ctx, err, "Error posting vote, please try again.",
				errorCase{services.ErrNotFound, http.StatusNotFound, "Post not found"})
			return
		}

		status := http.StatusOK
		if result.Action == services.ActionCreated {
			status = http.StatusCreated
		}
		ctx.JSON(status, gin.H{"message": "OK", "action": result.Action, "vote": result.Vote, "score": result.Score})
	}
}
