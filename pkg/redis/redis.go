package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// SetClient 设置 Redis 客户端（由 internal/initial 调用）
func SetClient(c *redis.Client) {
	client = c
}

// Close 关闭 Redis 连接
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// checkClient 检查客户端是否可用
func checkClient() error {
	if client == nil {
		return fmt.Errorf("Redis 未连接")
	}
	return nil
}

// Expire 设置过期时间
func Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	if err := checkClient(); err != nil {
		return false, err
	}
	return client.Expire(ctx, key, expiration).Result()
}

// HSet 设置 Hash 字段值
func HSet(ctx context.Context, key string, values ...interface{}) (int64, error) {
	if err := checkClient(); err != nil {
		return 0, err
	}
	return client.HSet(ctx, key, values...).Result()
}

// HGetAll 获取 Hash 所有字段和值
func HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if err := checkClient(); err != nil {
		return nil, err
	}
	return client.HGetAll(ctx, key).Result()
}

// HIncrBy Hash 字段原子自增
func HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error) {
	if err := checkClient(); err != nil {
		return 0, err
	}
	return client.HIncrBy(ctx, key, field, incr).Result()
}
