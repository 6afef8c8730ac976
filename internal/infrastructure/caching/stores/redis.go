package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares contexts between server instances through Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logging.ChanneledLogger
	hits   atomic.Int64
	misses atomic.Int64
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *logging.ChanneledLogger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}

	logger.Cache().Info("Redis cache connected", "address", cfg.Addr, "db", cfg.DB)
	return NewRedisStoreWithClient(client, cfg.Prefix, cfg.TTL, logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *logging.ChanneledLogger) *RedisStore {
	if prefix == "" {
		prefix = "wireviz:context:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (s *RedisStore) GetContext(ctx context.Context, partID int64) (harness.Context, bool) {
	raw, err := s.client.Get(ctx, s.key(partID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Cache().Error("Redis get failed", "error", err.Error(), "partId", partID)
		}
		s.misses.Add(1)
		return harness.Context{}, false
	}

	value, err := harness.NormalizeJSON(raw)
	if err != nil {
		s.logger.Cache().Warn("Discarding undecodable cached context", "error", err.Error(), "partId", partID)
		s.misses.Add(1)
		return harness.Context{}, false
	}
	s.hits.Add(1)
	return value, true
}

func (s *RedisStore) SetContext(ctx context.Context, partID int64, value harness.Context) {
	raw, err := json.Marshal(value.Map())
	if err != nil {
		s.logger.Cache().Error("Failed to encode context", "error", err.Error(), "partId", partID)
		return
	}
	if err := s.client.Set(ctx, s.key(partID), raw, s.ttl).Err(); err != nil {
		s.logger.Cache().Error("Redis set failed", "error", err.Error(), "partId", partID)
	}
}

// FillContext stores value with SET NX so a concurrent writer's entry wins.
func (s *RedisStore) FillContext(ctx context.Context, partID int64, value harness.Context) bool {
	raw, err := json.Marshal(value.Map())
	if err != nil {
		s.logger.Cache().Error("Failed to encode context", "error", err.Error(), "partId", partID)
		return false
	}
	stored, err := s.client.SetNX(ctx, s.key(partID), raw, s.ttl).Result()
	if err != nil {
		s.logger.Cache().Error("Redis setnx failed", "error", err.Error(), "partId", partID)
		return false
	}
	return stored
}

func (s *RedisStore) InvalidatePart(ctx context.Context, partID int64) {
	if err := s.client.Del(ctx, s.key(partID)).Err(); err != nil {
		s.logger.Cache().Error("Redis delete failed", "error", err.Error(), "partId", partID)
	}
}

// InvalidateAll removes every key under the store prefix.
func (s *RedisStore) InvalidateAll(ctx context.Context) {
	keys, err := s.keys(ctx)
	if err != nil {
		s.logger.Cache().Error("Redis scan failed", "error", err.Error())
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Cache().Error("Redis delete failed", "error", err.Error(), "keys", len(keys))
	}
}

func (s *RedisStore) Stats() interfaces.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	keys, _ := s.keys(ctx)
	return interfaces.Stats{
		Backend: "redis",
		Entries: len(keys),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}

// Close releases the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (s *RedisStore) key(partID int64) string {
	return s.prefix + strconv.FormatInt(partID, 10)
}
