package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := Connect(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	require.NoError(t, c.Set(context.Background(), "k", map[string]int{"a": 1}, time.Minute))
	var out map[string]int
	assert.False(t, c.Get(context.Background(), "k", &out))
	assert.NoError(t, c.Del(context.Background(), "k"))
	assert.NoError(t, c.Close())

	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
	assert.False(t, nilCache.Get(context.Background(), "k", &out))
}

func TestConnectUnreachableFallsBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Connect(ctx, "127.0.0.1:1", "")
	assert.Error(t, err)
	require.NotNil(t, c)
	assert.False(t, c.Enabled())
}
