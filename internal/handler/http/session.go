package http

import (
	"net/http"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/httputil"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/logger"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/identity"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/legal"
)

// SessionHandler handles login, logout, and terms acceptance. Login and
// logout drive the sync engines through the session provider's observers.
type SessionHandler struct {
	session *identity.SessionProvider
	legal   *legal.Service
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(session *identity.SessionProvider, legalService *legal.Service) *SessionHandler {
	return &SessionHandler{session: session, legal: legalService}
}

// Login handles POST /api/v1/session/login. The caller must already carry a
// valid Bearer token; signing in transitions the engines to the synced state.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "a valid token is required to sign in"},
		})
		return
	}

	h.session.SignIn(id)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: id})
}

// Logout handles POST /api/v1/session/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.SignOut()

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "signed_out"}})
}

// Current handles GET /api/v1/session.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	id, err := h.session.Current(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}
	if id == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"signed_in": false}})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: id})
}

// AcceptTerms handles POST /api/v1/terms/accept.
func (h *SessionHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	if err := h.legal.Accept(id.UID); err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "accepted"}})
}

// TermsStatus handles GET /api/v1/terms.
func (h *SessionHandler) TermsStatus(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	acceptance, err := h.legal.Accepted(id.UID)
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	accepted, err := h.legal.HasAccepted(id.UID)
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"accepted":   accepted,
		"acceptance": acceptance,
	}})
}
