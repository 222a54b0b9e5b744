package syncengine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/localcache"
)

func setupLocalList(t *testing.T) (*CacheLocalList, *localcache.Cache) {
	t.Helper()
	cache, err := localcache.Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return NewCacheLocalList(cache, domain.CollectionWishlist), cache
}

func TestCacheLocalListRoundTrip(t *testing.T) {
	repo, _ := setupLocalList(t)

	entries := []domain.Entry{
		{ProductID: "p1", Snapshot: &domain.ProductSnapshot{ID: "p1", Name: "Bowl", Price: 1200}},
		{ProductID: "p2", Quantity: 3},
	}
	require.NoError(t, repo.Save(entries))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "p1", loaded[0].ProductID)
	require.NotNil(t, loaded[0].Snapshot)
	assert.Equal(t, int64(1200), loaded[0].Snapshot.Price)
	assert.Equal(t, 3, loaded[1].Quantity)
}

func TestCacheLocalListIDArrayLayout(t *testing.T) {
	repo, cache := setupLocalList(t)

	require.NoError(t, repo.Save([]domain.Entry{{ProductID: "a"}, {ProductID: "b"}}))

	// The collection key itself holds a bare product-id array.
	var ids []string
	found, err := cache.Get("wishlist", &ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestCacheLocalListEmptyAndClear(t *testing.T) {
	repo, _ := setupLocalList(t)

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, repo.Save([]domain.Entry{{ProductID: "a"}}))
	require.NoError(t, repo.Clear())

	loaded, err = repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
