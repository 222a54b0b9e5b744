package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/identity"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/legal"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/localcache"
)

type sessionFixture struct {
	router   *chi.Mux
	verifier *identity.TokenVerifier
	session  *identity.SessionProvider
}

func setupSessionRouter(t *testing.T) *sessionFixture {
	t.Helper()

	cache, err := localcache.Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	session := identity.NewSessionProvider()
	handler := NewSessionHandler(session, legal.NewService(cache, "2024-01"))
	verifier := identity.NewTokenVerifier("secret")

	r := chi.NewRouter()
	r.Use(Auth(verifier))
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", handler.Current)
			r.Post("/login", handler.Login)
			r.Post("/logout", handler.Logout)
		})
		r.Route("/terms", func(r chi.Router) {
			r.Get("/", handler.TermsStatus)
			r.Post("/accept", handler.AcceptTerms)
		})
	})

	return &sessionFixture{router: r, verifier: verifier, session: session}
}

func (f *sessionFixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestLogin_RequiresToken(t *testing.T) {
	f := setupSessionRouter(t)

	rec := f.do(t, http.MethodPost, "/api/v1/session/login", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLogoutDrivesSession(t *testing.T) {
	f := setupSessionRouter(t)
	token := issueToken(t, f.verifier, &identity.Identity{UID: "user-1", DisplayName: "Madhav"})

	var changes []*identity.Identity
	unsubscribe := f.session.OnChange(func(id *identity.Identity) {
		changes = append(changes, id)
	})
	defer unsubscribe()

	rec := f.do(t, http.MethodPost, "/api/v1/session/login", token)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeResponse(t, rec))
	assert.Equal(t, "user-1", data["uid"])

	rec = f.do(t, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = dataMap(t, decodeResponse(t, rec))
	assert.Equal(t, "user-1", data["uid"])

	rec = f.do(t, http.MethodPost, "/api/v1/session/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = dataMap(t, decodeResponse(t, rec))
	assert.Equal(t, false, data["signed_in"])

	require.Len(t, changes, 2)
	assert.Equal(t, "user-1", changes[0].UID)
	assert.Nil(t, changes[1])
}

func TestTermsFlow(t *testing.T) {
	f := setupSessionRouter(t)
	token := issueToken(t, f.verifier, &identity.Identity{UID: "user-1"})

	rec := f.do(t, http.MethodGet, "/api/v1/terms", token)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeResponse(t, rec))
	assert.Equal(t, false, data["accepted"])

	rec = f.do(t, http.MethodPost, "/api/v1/terms/accept", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/terms", token)
	require.Equal(t, http.StatusOK, rec.Code)
	data = dataMap(t, decodeResponse(t, rec))
	assert.Equal(t, true, data["accepted"])

	acceptance, ok := data["acceptance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-01", acceptance["version"])
}

func TestTerms_RequireAuth(t *testing.T) {
	f := setupSessionRouter(t)

	rec := f.do(t, http.MethodGet, "/api/v1/terms", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/terms/accept", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
