package middlewares

import (
	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

// Authenticator 把令牌解析为用户 ID
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AuthMiddleware 解析 Authorization 头并记录用户身份。令牌缺失或无效时不拦截，
// 由具体接口通过 CurrentSession 自行决定是否要求登录
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetHeader("Authorization")
		if token != "" {
			if userID, err := auth.Authenticate(token); err == nil {
				ctx.Set(userIDKey, userID)
			}
		}
		ctx.Next()
	}
}

// CurrentSession 返回当前请求的用户 ID
func CurrentSession(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
