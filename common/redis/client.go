package redis

import (
	"context"
	"fmt"
	"time"

	"hms-listview/common/config"

	"github.com/go-redis/redis/v8"
)

// Client go-redis 客户端
type Client = redis.Client

// pingTimeout 启动时连通性检查的超时
const pingTimeout = 3 * time.Second

func newClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Connect 创建客户端并 PING；不可达时关闭客户端并返回错误
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := newClient(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}
	return client, nil
}
