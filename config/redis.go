package config

import (
	"fmt"

	"github.com/go-redis/redis"
)

// OpenRedis 创建 Redis 客户端并 PING 一次
func OpenRedis(cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})

	if _, err := client.Ping().Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
