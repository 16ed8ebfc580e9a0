package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"princals-dashboard/config"
)

const (
	sheetsKey      = "sheets" // Set: every cached sheet key
	sheetKeyPrefix = "sheet:" // String prefix: sheet:{fingerprint} -> JSON rows
)

// RedisService caches parsed workbook rows in Redis
type RedisService struct {
	Client *redis.Client
	Logger *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, logger *zap.Logger) *RedisService {
	return &RedisService{
		Client: client,
		Logger: logger,
	}
}

func getSheetKey(fingerprint string) string {
	return sheetKeyPrefix + fingerprint
}

// GetSheet returns the cached rows for a fingerprint. ok is false on a miss.
func (s *RedisService) GetSheet(ctx context.Context, fingerprint string) ([][]string, bool, error) {
	data, err := s.Client.Get(ctx, getSheetKey(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get sheet from Redis: %w", err)
	}

	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached sheet %s: %w", fingerprint, err)
	}
	return rows, true, nil
}

// PutSheet stores rows under a fingerprint and records the key in the sheets set
func (s *RedisService) PutSheet(ctx context.Context, fingerprint string, rows [][]string, ttl time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode sheet: %w", err)
	}

	key := getSheetKey(fingerprint)
	pipe := s.Client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, sheetsKey, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache sheet in Redis: %w", err)
	}
	s.Logger.Debug("Cached sheet", zap.String("key", key), zap.Int("rows", len(rows)))
	return nil
}

// CachedSheets lists the sheet keys that are still live in Redis.
func (s *RedisService) CachedSheets(ctx context.Context) ([]string, error) {
	keys, err := s.Client.SMembers(ctx, sheetsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list cached sheets: %w", err)
	}

	live := make([]string, 0, len(keys))
	for _, key := range keys {
		n, err := s.Client.Exists(ctx, key).Result()
		if err != nil {
			s.Logger.Warn("Error checking cached sheet", zap.String("key", key), zap.Error(err))
			continue
		}
		if n == 0 {
			// expired; drop it from the index
			if err := s.Client.SRem(ctx, sheetsKey, key).Err(); err != nil {
				s.Logger.Warn("Error pruning expired sheet", zap.String("key", key), zap.Error(err))
			}
			continue
		}
		live = append(live, key)
	}
	return live, nil
}

// Ping checks the Redis connection.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
