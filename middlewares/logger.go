package middlewares

import (
	"context"
	"time"

	"breadit/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestID 为每个请求生成或透传 X-Request-Id
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Header("X-Request-Id", id)
		ctx.Request = ctx.Request.WithContext(context.WithValue(ctx.Request.Context(), logger.RequestIDKey{}, id))
		ctx.Next()
	}
}

// RequestLogger 输出访问日志
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		fields := []zap.Field{
			zap.Int("status", ctx.Writer.Status()),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
		}
		if userID, ok := CurrentSession(ctx); ok {
			fields = append(fields, zap.String("user_id", userID))
		}

		reqLog := logger.WithContext(ctx.Request.Context(), log)
		if len(ctx.Errors) > 0 {
			reqLog.Error("request failed", append(fields, zap.String("errors", ctx.Errors.String()))...)
			return
		}
		reqLog.Info("request completed", fields...)
	}
}
