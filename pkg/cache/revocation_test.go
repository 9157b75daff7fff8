package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	redis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestRevocationStoreRoundTrip(t *testing.T) {
	client := newFakeRedis()
	store := NewRevocationStore(client, 24*time.Hour)

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Revoke(context.Background(), "user-1"))

	watermark, err := store.RevokedAfter(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, watermark.After(before))
	assert.Equal(t, 24*time.Hour, client.ttls["session:revoked_after:user-1"])
}

func TestRevocationStoreMissingKeyIsZero(t *testing.T) {
	store := NewRevocationStore(newFakeRedis(), time.Hour)

	watermark, err := store.RevokedAfter(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, watermark.IsZero())
}

func TestRevocationStoreCorruptValue(t *testing.T) {
	client := newFakeRedis()
	client.values["session:revoked_after:user-3"] = "not-a-number"
	store := NewRevocationStore(client, time.Hour)

	_, err := store.RevokedAfter(context.Background(), "user-3")
	assert.Error(t, err)
}

func TestNilRevocationStoreIsNoop(t *testing.T) {
	var store *RevocationStore

	assert.NoError(t, store.Revoke(context.Background(), "user-1"))
	watermark, err := store.RevokedAfter(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, watermark.IsZero())
}
