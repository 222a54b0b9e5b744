package legal

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/localcache"
)

func newTestService(t *testing.T, version string) *Service {
	t.Helper()

	cache, err := localcache.Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	svc := NewService(cache, version)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestAcceptAndQuery(t *testing.T) {
	svc := newTestService(t, "2024-01")

	accepted, err := svc.HasAccepted("user-1")
	require.NoError(t, err)
	assert.False(t, accepted)

	require.NoError(t, svc.Accept("user-1"))

	accepted, err = svc.HasAccepted("user-1")
	require.NoError(t, err)
	assert.True(t, accepted)

	record, err := svc.Accepted("user-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "2024-01", record.Version)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), record.AcceptedAt)
}

func TestAcceptanceIsPerUser(t *testing.T) {
	svc := newTestService(t, "2024-01")

	require.NoError(t, svc.Accept("user-1"))

	accepted, err := svc.HasAccepted("user-2")
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestOlderVersionDoesNotCount(t *testing.T) {
	cache, err := localcache.Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	old := NewService(cache, "2023-06")
	require.NoError(t, old.Accept("user-1"))

	current := NewService(cache, "2024-01")
	accepted, err := current.HasAccepted("user-1")
	require.NoError(t, err)
	assert.False(t, accepted)

	record, err := current.Accepted("user-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "2023-06", record.Version)
}

func TestAcceptRejectsEmptyUserID(t *testing.T) {
	svc := newTestService(t, "2024-01")
	assert.Error(t, svc.Accept(""))
}

func TestAcceptedReturnsNilWhenAbsent(t *testing.T) {
	svc := newTestService(t, "2024-01")

	record, err := svc.Accepted("user-1")
	require.NoError(t, err)
	assert.Nil(t, record)
}
