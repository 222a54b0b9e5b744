package syncengine

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/docstore"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
)

// DocRemoteList stores one document per user in a docstore collection.
//
// Document layout:
//
//	items      []string          product ids in insertion order
//	details    map[id]snapshot   cached product snapshots
//	quantities map[id]int        cart line quantities (omitted for wishlists)
//	updated_at timestamp         set server-side on every write
type DocRemoteList struct {
	store      docstore.Store
	collection string
}

func NewDocRemoteList(store docstore.Store, collection string) *DocRemoteList {
	return &DocRemoteList{store: store, collection: collection}
}

func (r *DocRemoteList) Load(ctx context.Context, userID string) ([]domain.Entry, error) {
	doc, err := r.store.Get(ctx, r.collection, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading %s for %s: %w", r.collection, userID, err)
	}
	return entriesFromDoc(doc)
}

func (r *DocRemoteList) Save(ctx context.Context, userID string, entries []domain.Entry) error {
	fields := docToFields(entries)
	fields["updated_at"] = docstore.ServerTimestamp()
	if err := r.store.Update(ctx, r.collection, userID, fields); err != nil {
		return fmt.Errorf("saving %s for %s: %w", r.collection, userID, err)
	}
	return nil
}

func (r *DocRemoteList) Add(ctx context.Context, userID string, e domain.Entry) error {
	doc, err := r.store.Get(ctx, r.collection, userID)
	if err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("reading %s for %s: %w", r.collection, userID, err)
	}

	details := detailsFromDoc(doc)
	if e.Snapshot != nil {
		details[e.ProductID] = snapshotToDoc(*e.Snapshot)
	}
	fields := docstore.Document{
		"items":      docstore.ArrayUnion(e.ProductID),
		"details":    details,
		"updated_at": docstore.ServerTimestamp(),
	}
	if e.Quantity > 0 {
		quantities := quantitiesFromDoc(doc)
		quantities[e.ProductID] = e.Quantity
		fields["quantities"] = quantities
	}
	if err := r.store.Update(ctx, r.collection, userID, fields); err != nil {
		return fmt.Errorf("adding to %s for %s: %w", r.collection, userID, err)
	}
	return nil
}

func (r *DocRemoteList) Remove(ctx context.Context, userID string, productID string) error {
	doc, err := r.store.Get(ctx, r.collection, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("reading %s for %s: %w", r.collection, userID, err)
	}

	details := detailsFromDoc(doc)
	delete(details, productID)
	quantities := quantitiesFromDoc(doc)
	delete(quantities, productID)

	fields := docstore.Document{
		"items":      docstore.ArrayRemove(productID),
		"details":    details,
		"quantities": quantities,
		"updated_at": docstore.ServerTimestamp(),
	}
	if err := r.store.Update(ctx, r.collection, userID, fields); err != nil {
		return fmt.Errorf("removing from %s for %s: %w", r.collection, userID, err)
	}
	return nil
}

func (r *DocRemoteList) Clear(ctx context.Context, userID string) error {
	if err := r.store.Delete(ctx, r.collection, userID); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("clearing %s for %s: %w", r.collection, userID, err)
	}
	return nil
}

func docToFields(entries []domain.Entry) docstore.Document {
	items := make([]any, 0, len(entries))
	details := map[string]any{}
	quantities := map[string]any{}
	for _, e := range entries {
		items = append(items, e.ProductID)
		if e.Snapshot != nil {
			details[e.ProductID] = snapshotToDoc(*e.Snapshot)
		}
		if e.Quantity > 0 {
			quantities[e.ProductID] = e.Quantity
		}
	}
	return docstore.Document{
		"items":      items,
		"details":    details,
		"quantities": quantities,
	}
}

func snapshotToDoc(s domain.ProductSnapshot) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"name":      s.Name,
		"price":     s.Price,
		"category":  s.Category,
		"image_url": s.ImageURL,
	}
}

func detailsFromDoc(doc docstore.Document) map[string]any {
	m, _ := doc["details"].(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func quantitiesFromDoc(doc docstore.Document) map[string]any {
	m, _ := doc["quantities"].(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func entriesFromDoc(doc docstore.Document) ([]domain.Entry, error) {
	rawItems, _ := doc["items"].([]any)
	details := detailsFromDoc(doc)
	quantities := quantitiesFromDoc(doc)

	entries := make([]domain.Entry, 0, len(rawItems))
	for _, item := range rawItems {
		id, ok := item.(string)
		if !ok {
			continue
		}
		e := domain.Entry{ProductID: id}
		if raw, ok := details[id]; ok {
			// Round-trip through JSON so numeric types settle regardless of
			// whether the document came from the store decoder or a test.
			b, err := json.Marshal(raw)
			if err == nil {
				var snap domain.ProductSnapshot
				if err := json.Unmarshal(b, &snap); err == nil {
					e.Snapshot = &snap
				}
			}
		}
		if q, ok := quantities[id]; ok {
			switch v := q.(type) {
			case float64:
				e.Quantity = int(v)
			case int:
				e.Quantity = v
			case json.Number:
				n, _ := v.Int64()
				e.Quantity = int(n)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
