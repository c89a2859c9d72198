package devbackend

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCodes_RedeemOnce(t *testing.T) {
	_, rdb := newTestRedis(t)
	codes := NewRedisCodes(rdb, "test")
	ctx := context.Background()

	code, err := codes.Issue(ctx, "buyer@example.com", time.Minute)
	require.NoError(t, err)

	email, ok, err := codes.Redeem(ctx, code)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "buyer@example.com", email)

	_, ok, err = codes.Redeem(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCodes_Expire(t *testing.T) {
	mr, rdb := newTestRedis(t)
	codes := NewRedisCodes(rdb, "")
	ctx := context.Background()

	code, err := codes.Issue(ctx, "buyer@example.com", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("marketplace:code:"+code))

	mr.FastForward(2 * time.Minute)
	_, ok, err := codes.Redeem(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCodes_StoreDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	codes := NewRedisCodes(rdb, "")
	mr.Close()

	_, _, err := codes.Redeem(context.Background(), "whatever")
	assert.Error(t, err)
}
