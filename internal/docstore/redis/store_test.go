package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/docstore"
	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestSetAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Set(ctx, "wishlists", "user-1", docstore.Document{
		"items": []any{"p1", "p2"},
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "wishlists", "user-1")
	require.NoError(t, err)
	assert.Equal(t, []any{"p1", "p2"}, doc["items"])
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.Get(context.Background(), "wishlists", "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateCreatesMissingDocument(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Update(ctx, "carts", "user-1", map[string]any{
		"items": []any{"p1"},
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "carts", "user-1")
	require.NoError(t, err)
	assert.Equal(t, []any{"p1"}, doc["items"])
}

func TestUpdateArrayUnion(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "wishlists", "u", docstore.Document{"items": []any{"a"}}))

	err := s.Update(ctx, "wishlists", "u", map[string]any{
		"items": docstore.ArrayUnion("b", "a"),
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "wishlists", "u")
	require.NoError(t, err)
	// "a" was already present and is not duplicated.
	assert.Equal(t, []any{"a", "b"}, doc["items"])
}

func TestUpdateArrayRemove(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "wishlists", "u", docstore.Document{"items": []any{"a", "b", "c"}}))

	err := s.Update(ctx, "wishlists", "u", map[string]any{
		"items": docstore.ArrayRemove("b", "missing"),
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "wishlists", "u")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, doc["items"])
}

func TestUpdateServerTimestamp(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return fixed }

	err := s.Update(ctx, "wishlists", "u", map[string]any{
		"updated_at": docstore.ServerTimestamp(),
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "wishlists", "u")
	require.NoError(t, err)
	assert.Equal(t, fixed.Format(time.RFC3339Nano), doc["updated_at"])
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "wishlists", "u", docstore.Document{"items": []any{}}))
	require.NoError(t, s.Delete(ctx, "wishlists", "u"))

	_, err := s.Get(ctx, "wishlists", "u")
	assert.True(t, apperrors.IsNotFound(err))

	// Deleting again is not an error.
	assert.NoError(t, s.Delete(ctx, "wishlists", "u"))
}

func TestQueryFilterOrderLimit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "assets", "1", docstore.Document{"folder": "logos", "seq": 1}))
	require.NoError(t, s.Set(ctx, "assets", "2", docstore.Document{"folder": "logos", "seq": 2}))
	require.NoError(t, s.Set(ctx, "assets", "3", docstore.Document{"folder": "banners", "seq": 3}))
	require.NoError(t, s.Set(ctx, "assets", "4", docstore.Document{"folder": "logos", "seq": 4}))

	docs, err := s.Query(ctx, "assets", docstore.Query{
		Filter:  []docstore.Condition{{Field: "folder", Op: docstore.OpEqual, Value: "logos"}},
		OrderBy: "seq",
		Desc:    true,
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, float64(4), docs[0]["seq"])
	assert.Equal(t, float64(2), docs[1]["seq"])
}

func TestQueryComparisonOperators(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "nums", "a", docstore.Document{"v": 1}))
	require.NoError(t, s.Set(ctx, "nums", "b", docstore.Document{"v": 5}))
	require.NoError(t, s.Set(ctx, "nums", "c", docstore.Document{"v": 9}))

	docs, err := s.Query(ctx, "nums", docstore.Query{
		Filter: []docstore.Condition{
			{Field: "v", Op: docstore.OpGreaterThan, Value: 1},
			{Field: "v", Op: docstore.OpLessThan, Value: 9},
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, float64(5), docs[0]["v"])
}
