package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls  int
	result []string
}

func (c *counter) fetch(context.Context) ([]string, error) {
	c.calls++
	return c.result, nil
}

func TestLookupCachesUnfilteredResult(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(2 * time.Minute))
	source := &counter{result: []string{"Alpha", "Alpine", "Beta"}}

	choices, err := c.Lookup(ctx, "tribes", "g1", "al", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Alpine"}, choices)

	choices, err = c.Lookup(ctx, "tribes", "g1", "b", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, choices)

	assert.Equal(t, 1, source.calls)
}

func TestLookupKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(2 * time.Minute))
	source := &counter{result: []string{"Alpha"}}

	_, err := c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)
	_, err = c.Lookup(ctx, "tribes", "g2", "", source.fetch)
	require.NoError(t, err)
	_, err = c.Lookup(ctx, "categories", "g1", "", source.fetch)
	require.NoError(t, err)

	assert.Equal(t, 3, source.calls)
}

func TestLookupRefreshesStaleEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	c := New(store)
	source := &counter{result: []string{"Alpha"}}

	_, err := c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	now = now.Add(time.Minute)
	_, err = c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestLookupRetriesEmptyResults(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(2 * time.Minute))
	source := &counter{}

	_, err := c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)
	_, err = c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestLookupReturnsFetchError(t *testing.T) {
	c := New(NewMemoryStore(time.Minute))

	_, err := c.Lookup(context.Background(), "tribes", "g1", "", func(context.Context) ([]string, error) {
		return nil, errors.New("database gone")
	})
	assert.EqualError(t, err, "database gone")
}

func TestLookupLimitsChoices(t *testing.T) {
	result := make([]string, 40)
	for i := range result {
		result[i] = "tribe"
	}

	c := New(NewMemoryStore(time.Minute))
	choices, err := c.Lookup(context.Background(), "tribes", "g1", "", (&counter{result: result}).fetch)
	require.NoError(t, err)
	assert.Len(t, choices, MaxChoices)
}

func TestSweepAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	c := New(store)
	require.NoError(t, store.Set(ctx, "tribes", "g1", []string{"Alpha"}))
	now = now.Add(90 * time.Second)
	require.NoError(t, store.Set(ctx, "tribes", "g2", []string{"Beta"}))
	now = now.Add(time.Minute)

	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, err := store.Get(ctx, "tribes", "g2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Invalidate(ctx, "tribes", "g2"))
	_, ok, err = store.Get(ctx, "tribes", "g2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Close())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	c := New(NewRedisStore(client, 2*time.Minute))
	defer c.Close()

	source := &counter{result: []string{"Alpha", "Beta"}}

	choices, err := c.Lookup(ctx, "tribes", "g1", "b", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, choices)
	assert.True(t, mr.Exists("tribalbot:autocomplete:tribes:g1"))

	_, err = c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	mr.FastForward(3 * time.Minute)

	_, err = c.Lookup(ctx, "tribes", "g1", "", source.fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)

	require.NoError(t, c.Invalidate(ctx, "tribes", "g1"))
	assert.False(t, mr.Exists("tribalbot:autocomplete:tribes:g1"))

	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestInvalidateHelpers(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(time.Hour))

	guild := &counter{result: []string{"Wolves"}}
	user := &counter{result: []string{"Bears"}}

	_, err := c.Lookup(ctx, BucketGuildTribes, "g1", "", guild.fetch)
	require.NoError(t, err)
	_, err = c.Lookup(ctx, BucketStaffTribes, GuildUserKey("g1", "u1"), "", user.fetch)
	require.NoError(t, err)

	c.InvalidateUsers(ctx, "g1", "u1", "")
	_, err = c.Lookup(ctx, BucketStaffTribes, GuildUserKey("g1", "u1"), "", user.fetch)
	require.NoError(t, err)
	_, err = c.Lookup(ctx, BucketGuildTribes, "g1", "", guild.fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, user.calls)
	assert.Equal(t, 1, guild.calls)

	c.InvalidateGuild(ctx, "g1")
	_, err = c.Lookup(ctx, BucketGuildTribes, "g1", "", guild.fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, guild.calls)
}
