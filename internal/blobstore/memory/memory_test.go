package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/blobstore"
	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"
)

func TestPutAndPublicURL(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx := context.Background()

	obj, err := s.Put(ctx, blobstore.PutInput{
		Path:        "logos/a.png",
		Data:        []byte("png-bytes"),
		ContentType: "image/png",
		Metadata:    map[string]string{"original_name": "A.PNG"},
	})
	require.NoError(t, err)

	assert.Equal(t, "logos/a.png", obj.Path)
	assert.Equal(t, "https://cdn.example.com/logos/a.png", obj.URL)
	assert.Equal(t, int64(9), obj.Size)

	url, err := s.PublicURL(ctx, "logos/a.png")
	require.NoError(t, err)
	assert.Equal(t, obj.URL, url)

	_, err = s.PublicURL(ctx, "logos/missing.png")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPutResumableReportsProgressAndStores(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx := context.Background()

	var mu sync.Mutex
	var reported []float64
	transfer, err := s.PutResumable(ctx, blobstore.PutInput{
		Path: "products/big.bin",
		Data: make([]byte, 100*1024),
	}, func(v float64) {
		mu.Lock()
		reported = append(reported, v)
		mu.Unlock()
	})
	require.NoError(t, err)

	obj, err := transfer.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(100*1024), obj.Size)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, reported)
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1])
	}
	assert.Equal(t, float64(100), reported[len(reported)-1])
}

func TestPutResumableCancelStoresNothing(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx := context.Background()

	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once

	transfer, err := s.PutResumable(ctx, blobstore.PutInput{
		Path: "products/big.bin",
		Data: make([]byte, 1<<20),
	}, func(float64) {
		once.Do(func() {
			close(started)
			<-proceed
		})
	})
	require.NoError(t, err)

	<-started
	transfer.Cancel()
	close(proceed)

	obj, err := transfer.Result()
	assert.Nil(t, obj)
	assert.True(t, apperrors.IsCanceled(err))

	_, err = s.PublicURL(ctx, "products/big.bin")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPutResumableContextCancellation(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once

	transfer, err := s.PutResumable(ctx, blobstore.PutInput{
		Path: "products/big.bin",
		Data: make([]byte, 1<<20),
	}, func(float64) {
		once.Do(func() {
			close(started)
			<-proceed
		})
	})
	require.NoError(t, err)

	<-started
	cancel()
	close(proceed)

	_, err = transfer.Result()
	assert.True(t, apperrors.IsCanceled(err))
}

func TestListSeparatesItemsAndSubfolders(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx := context.Background()

	for _, path := range []string{
		"logos/a.png",
		"logos/b.png",
		"logos/archive/old.png",
		"banners/c.png",
	} {
		_, err := s.Put(ctx, blobstore.PutInput{Path: path, Data: []byte("x")})
		require.NoError(t, err)
	}

	items, subfolders, err := s.List(ctx, "logos")
	require.NoError(t, err)

	paths := make([]string, 0, len(items))
	for _, obj := range items {
		paths = append(paths, obj.Path)
	}
	assert.Equal(t, []string{"logos/a.png", "logos/b.png"}, paths)
	assert.Equal(t, []string{"archive"}, subfolders)
}

func TestDelete(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx := context.Background()

	_, err := s.Put(ctx, blobstore.PutInput{Path: "logos/a.png", Data: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "logos/a.png"))
	assert.True(t, apperrors.IsNotFound(s.Delete(ctx, "logos/a.png")))
}

func TestMetadataRoundTripAndMerge(t *testing.T) {
	s := New("https://cdn.example.com")
	ctx := context.Background()

	_, err := s.Put(ctx, blobstore.PutInput{
		Path:     "logos/a.png",
		Data:     []byte("x"),
		Metadata: map[string]string{"original_name": "A.png"},
	})
	require.NoError(t, err)

	require.NoError(t, s.UpdateMetadata(ctx, "logos/a.png", map[string]string{"alt": "logo"}))

	md, err := s.Metadata(ctx, "logos/a.png")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"original_name": "A.png", "alt": "logo"}, md)
}

func TestSetClockControlsCreatedAt(t *testing.T) {
	s := New("https://cdn.example.com")
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	obj, err := s.Put(context.Background(), blobstore.PutInput{Path: "logos/a.png", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, fixed, obj.CreatedAt)
}
