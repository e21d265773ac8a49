package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var rdb *redis.Client

// InitRedis connects to redis. An empty url leaves the client nil and the
// presence mirror disabled.
func InitRedis(url, password string, db int) error {
	if url == "" {
		WithModule("redis").Info("REDIS_URL not set, presence mirror disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return err
	}

	rdb = client
	WithModule("redis").Info("redis connected", zap.String("addr", url))
	return nil
}

// GetRedis returns the redis client, nil when disabled.
func GetRedis() *redis.Client {
	return rdb
}

// CloseRedis closes the redis client.
func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}
