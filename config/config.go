package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string
		Port string
		Env  string
	}
	Database struct {
		Dsn          string
		MaxIdleConns int
		MaxOpenConns int
	}
	Redis struct {
		Addr     string
		DB       int
		Password string
	}
	RabbitMQ struct {
		Url   string
		Queue string
	}
	JWT struct {
		Secret string
		TTL    time.Duration
	}
	Cache CacheConfig
}

// CacheConfig 控制帖子快照写入 Redis 的策略
type CacheConfig struct {
	PromotionThreshold  int
	Strategy            string
	TTL                 time.Duration
	WriteTimeout        time.Duration
	EvictBelowThreshold bool
}

var AppConfig *Config

func InitConfig() {
	cfg, err := Load("./config")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	AppConfig = cfg
}

// Load 读取 dir 下的 config.yml，环境变量 BREADIT_* 覆盖文件中的值
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("breadit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "breadit")
	v.SetDefault("app.port", ":3000")
	v.SetDefault("app.env", "development")
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.maxOpenConns", 100)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("rabbitmq.queue", "vote.events")
	v.SetDefault("jwt.ttl", 72*time.Hour)
	v.SetDefault("cache.promotionThreshold", 1)
	v.SetDefault("cache.strategy", "overwrite")
	v.SetDefault("cache.writeTimeout", 250*time.Millisecond)
}

func (c *Config) validate() error {
	switch c.Cache.Strategy {
	case "overwrite", "versioned":
	default:
		return fmt.Errorf("unknown cache strategy %q", c.Cache.Strategy)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	return nil
}
