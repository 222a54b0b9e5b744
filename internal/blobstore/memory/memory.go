package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/blobstore"
	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"
)

// chunkSize is the simulated transfer chunk; progress is reported and the
// cancel flag consulted once per chunk.
const chunkSize = 32 * 1024

// Store implements blobstore.Store with an in-memory map. It backs tests and
// local development; the resumable path simulates chunked transfers so that
// progress and cancellation behave like a real backend.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*blobstore.Object
	data    map[string][]byte
	baseURL string
	nowFunc func() time.Time
}

// New creates an in-memory blob store serving URLs under baseURL.
func New(baseURL string) *Store {
	return &Store{
		objects: make(map[string]*blobstore.Object),
		data:    make(map[string][]byte),
		baseURL: baseURL,
		nowFunc: time.Now,
	}
}

// SetClock overrides the store's clock; used by retention tests to control
// object creation times.
func (s *Store) SetClock(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = fn
}

func (s *Store) url(path string) string {
	return s.baseURL + "/" + path
}

func (s *Store) store(in blobstore.PutInput) *blobstore.Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	md := make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		md[k] = v
	}

	obj := &blobstore.Object{
		Path:        in.Path,
		URL:         s.url(in.Path),
		ContentType: in.ContentType,
		Size:        int64(len(in.Data)),
		Metadata:    md,
		CreatedAt:   s.nowFunc().UTC(),
	}

	s.objects[in.Path] = obj
	s.data[in.Path] = append([]byte(nil), in.Data...)
	return obj
}

// Put stores a blob in a single shot.
func (s *Store) Put(_ context.Context, in blobstore.PutInput) (*blobstore.Object, error) {
	return s.store(in), nil
}

// transfer implements blobstore.Transfer over a chunked copy goroutine.
type transfer struct {
	cancelled atomic.Bool
	done      chan struct{}
	obj       *blobstore.Object
	err       error
}

func (t *transfer) Cancel()               { t.cancelled.Store(true) }
func (t *transfer) Done() <-chan struct{} { return t.done }

func (t *transfer) Result() (*blobstore.Object, error) {
	<-t.done
	return t.obj, t.err
}

// PutResumable starts a chunked upload reporting progress in [0,100].
// Cancellation is checked between chunks; a cancelled transfer reports
// ErrCanceled and stores nothing.
func (s *Store) PutResumable(ctx context.Context, in blobstore.PutInput, onProgress blobstore.ProgressFunc) (blobstore.Transfer, error) {
	t := &transfer{done: make(chan struct{})}

	go func() {
		defer close(t.done)

		total := len(in.Data)
		transferred := 0

		for transferred < total {
			if t.cancelled.Load() {
				t.err = apperrors.Canceled("Upload cancelled")
				return
			}
			if err := ctx.Err(); err != nil {
				t.err = apperrors.Canceled("Upload cancelled")
				return
			}

			n := chunkSize
			if remaining := total - transferred; remaining < n {
				n = remaining
			}
			transferred += n

			if onProgress != nil {
				onProgress(float64(transferred) / float64(total) * 100)
			}
		}

		if t.cancelled.Load() {
			t.err = apperrors.Canceled("Upload cancelled")
			return
		}

		if total == 0 && onProgress != nil {
			onProgress(100)
		}

		t.obj = s.store(in)
	}()

	return t, nil
}

// PublicURL returns the public URL for a stored path.
func (s *Store) PublicURL(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return "", apperrors.NotFound("object", path)
	}
	return obj.URL, nil
}

// Delete removes a blob.
func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return apperrors.NotFound("object", path)
	}
	delete(s.objects, path)
	delete(s.data, path)
	return nil
}

// List returns objects directly under folder and its immediate subfolders.
func (s *Store) List(_ context.Context, folder string) ([]blobstore.Object, []string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.TrimSuffix(folder, "/") + "/"

	var items []blobstore.Object
	subfolders := make(map[string]struct{})

	for path, obj := range s.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			subfolders[rest[:i]] = struct{}{}
			continue
		}
		items = append(items, *obj)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })

	names := make([]string, 0, len(subfolders))
	for name := range subfolders {
		names = append(names, name)
	}
	sort.Strings(names)

	return items, names, nil
}

// Metadata returns the custom metadata of a stored path.
func (s *Store) Metadata(_ context.Context, path string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, apperrors.NotFound("object", path)
	}

	md := make(map[string]string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		md[k] = v
	}
	return md, nil
}

// UpdateMetadata merges metadata into the stored path's metadata.
func (s *Store) UpdateMetadata(_ context.Context, path string, md map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[path]
	if !ok {
		return apperrors.NotFound("object", path)
	}
	if obj.Metadata == nil {
		obj.Metadata = make(map[string]string, len(md))
	}
	for k, v := range md {
		obj.Metadata[k] = v
	}
	return nil
}
