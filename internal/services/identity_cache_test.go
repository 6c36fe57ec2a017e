package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdentityCacheExpiresPerEntry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	cache := NewMemoryIdentityCache(clock.Now)

	require.NoError(t, cache.Set(ctx, "short", "a", time.Minute))
	require.NoError(t, cache.Set(ctx, "long", "b", time.Hour))

	clock.Advance(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err := cache.Get(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", value)

	require.NoError(t, cache.Remove(ctx, "long"))
	_, ok, _ = cache.Get(ctx, "long")
	assert.False(t, ok)
}
