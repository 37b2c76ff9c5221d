package main

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis returns the redis client backing the index page cache, or nil
// when no address is configured. A nil client simply disables caching.
func NewRedis(cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
