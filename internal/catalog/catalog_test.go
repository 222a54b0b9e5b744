package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, slog.New(slog.DiscardHandler))
}

func TestGetProduct_Success(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":"prod-1","name":"Clay Vase","price":4500,"category":"pottery","image_url":"https://cdn.example.com/vase.jpg"}}`)
	})

	p, err := c.GetProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/products/prod-1", gotPath)
	assert.Equal(t, "Clay Vase", p.Name)
	assert.Equal(t, int64(4500), p.Price)
}

func TestGetProduct_EscapesID(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"data":{"id":"a b","name":"x","price":1}}`)
	})

	_, err := c.GetProduct(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/products/a%20b", gotPath)
}

func TestGetProduct_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"NOT_FOUND","message":"product missing"}}`)
	})

	_, err := c.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetProduct_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": not json`)
	})

	_, err := c.GetProduct(context.Background(), "prod-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog product")
}

func TestGetProduct_EmptyEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":null}`)
	})

	_, err := c.GetProduct(context.Background(), "prod-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
