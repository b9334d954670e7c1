package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据运行环境构建 zap.Logger：production 输出 JSON，其余输出彩色控制台格式
func New(env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env != "production" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}

// RequestIDKey 请求 ID 在 context 中的 key
type RequestIDKey struct{}

// WithContext 给 logger 附加请求范围内的字段
func WithContext(ctx context.Context, lg *zap.Logger) *zap.Logger {
	if lg == nil {
		lg = zap.NewNop()
	}
	if ctx == nil {
		return lg
	}
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		return lg.With(zap.String("request_id", id))
	}
	return lg
}
