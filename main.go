package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"breadit/config"
	"breadit/global"
	"breadit/logger"
	"breadit/metrics"
	"breadit/mq"
	"breadit/repository"
	"breadit/router"
	"breadit/services"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	global.Logger = lg

	if global.Db, err = config.OpenDB(cfg); err != nil {
		lg.Fatal("database init failed", zap.Error(err))
	}
	if err := repository.AutoMigrate(global.Db); err != nil {
		lg.Fatal("database migration failed", zap.Error(err))
	}
	if global.RedisDB, err = config.OpenRedis(cfg); err != nil {
		lg.Fatal("redis init failed", zap.Error(err))
	}
	if global.RabbitConn, global.RabbitChannel, err = config.OpenRabbit(cfg); err != nil {
		lg.Fatal("rabbitmq init failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		lg.Fatal("metrics init failed", zap.Error(err))
	}

	votes := repository.NewVoteRepository(global.Db)
	posts := repository.NewPostRepository(global.Db)
	users := repository.NewUserRepository(global.Db)
	cache := repository.NewPostCache(global.RedisDB)

	policy := services.CachePolicy{
		Threshold:           cfg.Cache.PromotionThreshold,
		Strategy:            services.CacheStrategy(cfg.Cache.Strategy),
		TTL:                 cfg.Cache.TTL,
		WriteTimeout:        cfg.Cache.WriteTimeout,
		EvictBelowThreshold: cfg.Cache.EvictBelowThreshold,
	}
	syncer := services.NewCacheSynchronizer(cache, policy, lg.Named("cache"), m)

	opts := []services.VoteServiceOption{services.WithVoteLogger(lg.Named("vote")), services.WithVoteMetrics(m)}
	if global.RabbitChannel != nil {
		opts = append(opts, services.WithEventPublisher(mq.NewRabbitPublisher(global.RabbitChannel, cfg.RabbitMQ.Queue)))
	} else {
		lg.Info("rabbitmq url empty, vote events disabled")
	}

	accounts := services.NewAuthService(users, cfg.JWT.Secret, cfg.JWT.TTL, lg.Named("auth"))
	reader := services.NewPostReader(cache, posts, lg.Named("read"), m)

	r := router.SetupRouter(router.Deps{
		Auth:     accounts,
		Accounts: accounts,
		Votes:    services.NewVoteService(votes, posts, syncer, opts...),
		Creator:  services.NewPostService(posts, lg.Named("post")),
		Viewer:   reader,
		Metrics:  m,
		Gatherer: reg,
		Logger:   lg,
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: r}
	go func() {
		lg.Info("server listening", zap.String("addr", cfg.App.Port), zap.String("cache_strategy", cfg.Cache.Strategy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown failed", zap.Error(err))
	}
	if global.RabbitChannel != nil {
		_ = global.RabbitChannel.Close()
		_ = global.RabbitConn.Close()
	}
	_ = global.RedisDB.Close()
}
