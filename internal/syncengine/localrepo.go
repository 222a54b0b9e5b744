package syncengine

import (
	"fmt"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/localcache"
)

// CacheLocalList stores the anonymous list in the local persistent cache.
//
// Two keys per collection: the collection name holds the ordered product-id
// array, and "<collection>_details" holds a map of id to the remaining entry
// fields. Keeping the id array in its own key means other readers of the
// cache see the same compact layout the storefront has always used.
type CacheLocalList struct {
	cache      *localcache.Cache
	collection domain.Collection
}

func NewCacheLocalList(cache *localcache.Cache, collection domain.Collection) *CacheLocalList {
	return &CacheLocalList{cache: cache, collection: collection}
}

type localEntryDetail struct {
	Quantity int                     `json:"quantity,omitempty"`
	Snapshot *domain.ProductSnapshot `json:"snapshot,omitempty"`
}

func (l *CacheLocalList) detailsKey() string {
	return string(l.collection) + "_details"
}

func (l *CacheLocalList) Load() ([]domain.Entry, error) {
	var ids []string
	if _, err := l.cache.Get(string(l.collection), &ids); err != nil {
		return nil, fmt.Errorf("loading local %s: %w", l.collection, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details := map[string]localEntryDetail{}
	if _, err := l.cache.Get(l.detailsKey(), &details); err != nil {
		return nil, fmt.Errorf("loading local %s details: %w", l.collection, err)
	}

	entries := make([]domain.Entry, 0, len(ids))
	for _, id := range ids {
		e := domain.Entry{ProductID: id}
		if d, ok := details[id]; ok {
			e.Quantity = d.Quantity
			e.Snapshot = d.Snapshot
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (l *CacheLocalList) Save(entries []domain.Entry) error {
	ids := make([]string, 0, len(entries))
	details := make(map[string]localEntryDetail, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
		if e.Quantity > 0 || e.Snapshot != nil {
			details[e.ProductID] = localEntryDetail{Quantity: e.Quantity, Snapshot: e.Snapshot}
		}
	}

	if err := l.cache.Set(string(l.collection), ids); err != nil {
		return fmt.Errorf("saving local %s: %w", l.collection, err)
	}
	if err := l.cache.Set(l.detailsKey(), details); err != nil {
		return fmt.Errorf("saving local %s details: %w", l.collection, err)
	}
	return nil
}

func (l *CacheLocalList) Clear() error {
	if err := l.cache.Delete(string(l.collection)); err != nil {
		return fmt.Errorf("clearing local %s: %w", l.collection, err)
	}
	if err := l.cache.Delete(l.detailsKey()); err != nil {
		return fmt.Errorf("clearing local %s details: %w", l.collection, err)
	}
	return nil
}
