package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProfile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := GetClient()
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(prev) })
	return mr
}

func TestAside_FetchesOnceThenServesFromRedis(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedProfile) func() error {
		return func() error {
			calls++
			*dest = cachedProfile{ID: 7, Name: "Ada"}
			return nil
		}
	}

	var first cachedProfile
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "Ada", first.Name)
	assert.True(t, mr.Exists("user:7"))

	var second cachedProfile
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "Ada", second.Name)
	assert.Equal(t, 1, calls)

	mr.FastForward(UserTTL + time.Second)
	var third cachedProfile
	require.NoError(t, Aside(ctx, UserKey(7), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_WithoutRedisFallsThrough(t *testing.T) {
	prev := GetClient()
	SetClient(nil)
	t.Cleanup(func() { SetClient(prev) })

	var dest cachedProfile
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidateUser_DropsProfileAndStats(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, UserKey(3), cachedProfile{ID: 3}, UserTTL))
	require.NoError(t, SetJSON(ctx, UserStatsKey(3), map[string]int{"postsCount": 1}, UserStatsTTL))

	InvalidateUser(ctx, 3)
	assert.False(t, mr.Exists(UserKey(3)))
	assert.False(t, mr.Exists(UserStatsKey(3)))
}

func TestKeyFamily(t *testing.T) {
	assert.Equal(t, "user", keyFamily("user:12"))
	assert.Equal(t, "user:stats", keyFamily("user:12:stats"))
	assert.Equal(t, "event", keyFamily(EventKey(7)))
}

func TestOptions(t *testing.T) {
	opts, err := Options("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, ClientName, opts.ClientName)

	opts, err = Options(" localhost:6379 ")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	_, err = Options("")
	assert.Error(t, err)
	_, err = Options("redis://[::1")
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	prev := GetClient()
	t.Cleanup(func() { SetClient(prev) })

	mr := miniredis.RunT(t)
	InitRedis("redis://" + mr.Addr())
	require.NotNil(t, GetClient())
	require.NoError(t, GetClient().Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))

	addr := mr.Addr()
	mr.Close()
	InitRedis(addr)
	assert.Nil(t, GetClient(), "unreachable redis leaves the client nil")
}
