package middlewares

import (
	"strconv"
	"time"

	"breadit/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 记录请求数与耗时，route 使用路由模板避免高基数
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
