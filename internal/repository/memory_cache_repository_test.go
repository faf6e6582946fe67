package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	repo := NewMemoryCacheRepository(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "disponibilidade:2024-06-10", []string{"09:00"}, time.Minute))

	var got []string
	require.NoError(t, repo.Get(ctx, "disponibilidade:2024-06-10", &got))
	assert.Equal(t, []string{"09:00"}, got)

	err := repo.Get(ctx, "disponibilidade:2024-06-11", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryCacheHonoursShorterTTL(t *testing.T) {
	repo := NewMemoryCacheRepository(16, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got int
	assert.ErrorIs(t, repo.Get(ctx, "k", &got), appErrors.ErrCacheMiss)
}

func TestMemoryCacheDeletes(t *testing.T) {
	repo := NewMemoryCacheRepository(16, time.Minute)
	ctx := context.Background()
	for _, k := range []string{"disponibilidade:2024-06-10", "disponibilidade:2024-06-11", "outro:1"} {
		require.NoError(t, repo.Set(ctx, k, 1, 0))
	}

	require.NoError(t, repo.Delete(ctx, "disponibilidade:2024-06-10"))
	assert.Equal(t, 2, repo.Len())

	require.NoError(t, repo.DeleteByPattern(ctx, "disponibilidade:*"))
	assert.Equal(t, 1, repo.Len())
}

func TestRedisCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", dest, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "k"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "k*"))
	assert.Error(t, repo.Ping(ctx))
}
