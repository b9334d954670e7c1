package router

import (
	"net/http"
	"time"

	"breadit/controllers"
	"breadit/metrics"
	"breadit/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps 路由依赖的服务
type Deps struct {
	Auth     middlewares.Authenticator
	Accounts controllers.AccountService
	Votes    controllers.VoteSubmitter
	Creator  controllers.PostCreator
	Viewer   controllers.PostViewer
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(middlewares.Metrics(d.Metrics))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", controllers.Register(d.Accounts))
		auth.POST("/login", controllers.Login(d.Accounts))
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(d.Auth))
	{
		api.PATCH("/subreddit/post/vote", controllers.VotePost(d.Votes))
		api.POST("/subreddit/post/create", controllers.CreatePost(d.Creator))
		api.GET("/posts/top", controllers.GetTopPosts(d.Viewer))
		api.GET("/posts/:id", controllers.GetPost(d.Viewer))
	}

	return r
}
