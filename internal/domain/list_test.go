package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entries(ids ...string) []Entry {
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, Entry{ProductID: id})
	}
	return out
}

func TestMergeEntries(t *testing.T) {
	t.Run("remote order wins, local-only appended", func(t *testing.T) {
		merged := MergeEntries(entries("b", "c"), entries("a", "b"))
		assert.Equal(t, []string{"b", "c", "a"}, ProductIDs(merged))
	})

	t.Run("duplicate keeps remote entry", func(t *testing.T) {
		remote := []Entry{{ProductID: "p1", Snapshot: &ProductSnapshot{ID: "p1", Price: 100}}}
		local := []Entry{{ProductID: "p1", Snapshot: &ProductSnapshot{ID: "p1", Price: 999}}}

		merged := MergeEntries(remote, local)
		assert.Len(t, merged, 1)
		assert.Equal(t, int64(100), merged[0].Snapshot.Price)
	})

	t.Run("empty remote keeps local order", func(t *testing.T) {
		merged := MergeEntries(nil, entries("x", "y"))
		assert.Equal(t, []string{"x", "y"}, ProductIDs(merged))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, MergeEntries(nil, nil))
	})

	t.Run("duplicates within one side are dropped", func(t *testing.T) {
		merged := MergeEntries(entries("a", "a"), entries("b", "b"))
		assert.Equal(t, []string{"a", "b"}, ProductIDs(merged))
	})
}

func TestFindEntry(t *testing.T) {
	es := entries("a", "b", "c")
	assert.Equal(t, 1, FindEntry(es, "b"))
	assert.Equal(t, -1, FindEntry(es, "missing"))
	assert.Equal(t, -1, FindEntry(nil, "a"))
}

func TestTotalCount(t *testing.T) {
	t.Run("wishlist counts entries", func(t *testing.T) {
		assert.Equal(t, 3, TotalCount(entries("a", "b", "c")))
	})

	t.Run("cart sums quantities", func(t *testing.T) {
		lines := []Entry{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 1},
			{ProductID: "c", Quantity: 5},
		}
		assert.Equal(t, 8, TotalCount(lines))
	})

	t.Run("empty list is zero", func(t *testing.T) {
		assert.Equal(t, 0, TotalCount(nil))
	})
}

func TestKeepCountForFolder(t *testing.T) {
	assert.Equal(t, 5, KeepCountForFolder(LogoFolder))
	assert.Equal(t, 10, KeepCountForFolder(BannerFolder))
	assert.Equal(t, 0, KeepCountForFolder("products"))
}
