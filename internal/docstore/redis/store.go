package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/docstore"
	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"
)

const (
	docKeyPrefix = "doc:"
	colKeyPrefix = "col:"
)

// Store implements docstore.Store on Redis. Documents are stored as JSON
// under `doc:<collection>:<id>`; a set under `col:<collection>` indexes the
// ids of each collection for queries.
//
// Update is read-modify-write without a watch: overlapping updates to the
// same document resolve last-write-wins.
type Store struct {
	client  *redis.Client
	nowFunc func() time.Time // injectable clock for testing
}

// New creates a Redis-backed document store.
func New(client *redis.Client) *Store {
	return &Store{client: client, nowFunc: time.Now}
}

func docKey(collection, id string) string {
	return docKeyPrefix + collection + ":" + id
}

func colKey(collection string) string {
	return colKeyPrefix + collection
}

// Get retrieves a document by collection and id.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	data, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound(collection, id)
		}
		return nil, fmt.Errorf("redis get document: %w", err)
	}

	var doc docstore.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return doc, nil
}

// Set writes a document, overwriting any existing one, and indexes its id.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(collection, id), data, 0)
	pipe.SAdd(ctx, colKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set document: %w", err)
	}

	return nil
}

// Update applies a partial update, resolving operator sentinels. The document
// is created if it does not exist.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		if apperrors.HTTPStatus(err) != 404 {
			return err
		}
		doc = docstore.Document{}
	}

	for field, value := range fields {
		switch {
		case docstore.IsServerTimestamp(value):
			doc[field] = s.nowFunc().UTC().Format(time.RFC3339Nano)
		default:
			if values, ok := docstore.UnionValues(value); ok {
				doc[field] = arrayUnion(doc[field], values)
				continue
			}
			if values, ok := docstore.RemoveValues(value); ok {
				doc[field] = arrayRemove(doc[field], values)
				continue
			}
			doc[field] = value
		}
	}

	return s.Set(ctx, collection, id, doc)
}

// Delete removes a document and its index entry. Absent documents are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, docKey(collection, id))
	pipe.SRem(ctx, colKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete document: %w", err)
	}
	return nil
}

// Query scans a collection, filtering, ordering, and limiting in memory.
// Collections here are small (per-user lists, asset folders), so a full scan
// is acceptable.
func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	ids, err := s.client.SMembers(ctx, colKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list collection: %w", err)
	}
	sort.Strings(ids) // deterministic scan order before explicit ordering

	docs := make([]docstore.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(ctx, collection, id)
		if err != nil {
			if apperrors.HTTPStatus(err) == 404 {
				continue // index entry for a concurrently deleted doc
			}
			return nil, err
		}
		if matchesAll(doc, q.Filter) {
			docs = append(docs, doc)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			less := compareValues(docs[i][q.OrderBy], docs[j][q.OrderBy]) < 0
			if q.Desc {
				return !less && compareValues(docs[i][q.OrderBy], docs[j][q.OrderBy]) != 0
			}
			return less
		})
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

func matchesAll(doc docstore.Document, conditions []docstore.Condition) bool {
	for _, c := range conditions {
		cmp := compareValues(doc[c.Field], c.Value)
		switch c.Op {
		case docstore.OpEqual:
			if cmp != 0 {
				return false
			}
		case docstore.OpGreaterThan:
			if cmp <= 0 {
				return false
			}
		case docstore.OpLessThan:
			if cmp >= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders JSON-roundtripped values: numbers before strings,
// matching types compared naturally.
func compareValues(a, b any) int {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}

	if aNum {
		return -1
	}
	if bNum {
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// arrayUnion appends values not already present, comparing by JSON form.
func arrayUnion(existing any, values []any) []any {
	arr, _ := existing.([]any)
	for _, v := range values {
		if !containsJSON(arr, v) {
			arr = append(arr, v)
		}
	}
	if arr == nil {
		arr = []any{}
	}
	return arr
}

// arrayRemove drops all occurrences of the given values, comparing by JSON form.
func arrayRemove(existing any, values []any) []any {
	arr, _ := existing.([]any)
	kept := make([]any, 0, len(arr))
	for _, e := range arr {
		if !containsJSON(values, e) {
			kept = append(kept, e)
		}
	}
	return kept
}

func containsJSON(arr []any, v any) bool {
	vj, err := json.Marshal(v)
	if err != nil {
		return false
	}
	for _, e := range arr {
		ej, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if string(ej) == string(vj) {
			return true
		}
	}
	return false
}
