package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/trust-erp-api/pkg/config"
)

const revocationPrefix = "session:revoked_after:"

// RevocationStore keeps a per-user watermark; sessions issued before it are rejected.
type RevocationStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRevocationStore builds a store whose keys outlive the longest session by ttl.
func NewRevocationStore(client redis.Cmdable, ttl time.Duration) *RevocationStore {
	return &RevocationStore{client: client, ttl: ttl}
}

// DialRevocationStore connects to redis and verifies the watermark keyspace is reachable.
// The returned client must be closed by the caller.
func DialRevocationStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RevocationStore, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRevocationStore(client, ttl), client, nil
}

// Revoke invalidates every session of userID issued up to now. A nil store is a no-op.
func (s *RevocationStore) Revoke(ctx context.Context, userID string) error {
	if s == nil {
		return nil
	}
	return s.client.Set(ctx, revocationPrefix+userID, time.Now().Unix(), s.ttl).Err()
}

// RevokedAfter returns the watermark for userID, or the zero time if none is set.
func (s *RevocationStore) RevokedAfter(ctx context.Context, userID string) (time.Time, error) {
	if s == nil {
		return time.Time{}, nil
	}
	raw, err := s.client.Get(ctx, revocationPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
