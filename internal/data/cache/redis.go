package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scholardesk/scholardesk-backend/internal/config"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// Service is a small read-through cache handle. It is constructed once at
// startup and injected; a nil *Service is a valid no-op so the rest of the
// code never branches on cache availability.
type Service struct {
	client *redis.Client
	log    *logger.Logger
}

// New returns (nil, nil) when REDIS_ADDR is not configured.
func New(log *logger.Logger) (*Service, error) {
	addr := strings.TrimSpace(config.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.GetEnv("REDIS_PASSWORD", "", log),
		DB:       config.GetEnvAsInt("REDIS_DB", 0, log),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Service{client: client, log: log.With("service", "CacheService")}, nil
}

func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	if s == nil {
		return "", false
	}
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache get failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *Service) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if s == nil {
		return
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.log.Warn("cache set failed", "key", key, "error", err)
	}
}

func (s *Service) Delete(ctx context.Context, key string) {
	if s == nil {
		return
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("cache delete failed", "key", key, "error", err)
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}
