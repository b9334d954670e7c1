package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(svc AccountService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var input credentials
		if err := ctx.ShouldBindJSON(&input); err != nil {
			bindError(ctx, err)
			return
		}

		token, err := svc.Register(ctx.Request.Context(), input.Username, input.Password)
		if err != nil {
			respondError(ctx, err, "Error creating account")
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"token": token})
	}
}

func Login(svc AccountService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var input credentials
		if err := ctx.ShouldBindJSON(&input); err != nil {
			bindError(ctx, err)
			return
		}

		token, err := svc.Login(ctx.Request.Context(), input.Username, input.Password)
		if err != nil {
			respondError(ctx, err, "Error logging in")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"token": token})
	}
}
