package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/httputil"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/logger"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/validator"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/domain"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/syncengine"
)

// ListsHandler handles HTTP requests for the wishlist and cart.
type ListsHandler struct {
	wishlist *syncengine.Engine
	cart     *syncengine.Engine
}

// NewListsHandler creates a new lists HTTP handler.
func NewListsHandler(wishlist, cart *syncengine.Engine) *ListsHandler {
	return &ListsHandler{wishlist: wishlist, cart: cart}
}

func (h *ListsHandler) engine(r *http.Request) *syncengine.Engine {
	if chi.URLParam(r, "collection") == string(domain.CollectionCart) {
		return h.cart
	}
	return h.wishlist
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to a list.
type AddItemRequest struct {
	ProductID string                  `json:"product_id" validate:"required"`
	Snapshot  *domain.ProductSnapshot `json:"snapshot"`
}

// UpdateQuantityRequest is the JSON request body for changing a cart line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// --- Handlers ---

// GetList handles GET /api/v1/lists/{collection}.
func (h *ListsHandler) GetList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.engine(r).Current()})
}

// GetStatus handles GET /api/v1/lists/{collection}/status.
func (h *ListsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.engine(r).Status()})
}

// AddItem handles POST /api/v1/lists/{collection}/items.
func (h *ListsHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	added, err := h.engine(r).AddEntry(r.Context(), req.ProductID, req.Snapshot)
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: map[string]any{
		"product_id": req.ProductID,
		"added":      added,
	}})
}

// ToggleItem handles POST /api/v1/lists/{collection}/toggle.
func (h *ListsHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	present, err := h.engine(r).Toggle(r.Context(), req.ProductID, req.Snapshot)
	if err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"product_id": req.ProductID,
		"present":    present,
	}})
}

// RemoveItem handles DELETE /api/v1/lists/{collection}/items/{productId}.
func (h *ListsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id is required"},
		})
		return
	}

	if err := h.engine(r).RemoveEntry(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"product_id": productID,
		"status":     "removed",
	}})
}

// UpdateQuantity handles PUT /api/v1/lists/cart/items/{productId}/quantity.
func (h *ListsHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id is required"},
		})
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.cart.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.cart.Current()})
}

// ClearList handles DELETE /api/v1/lists/{collection}.
func (h *ListsHandler) ClearList(w http.ResponseWriter, r *http.Request) {
	if err := h.engine(r).Clear(r.Context()); err != nil {
		httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

// MoveAllToCart handles POST /api/v1/lists/wishlist/move-to-cart.
func (h *ListsHandler) MoveAllToCart(w http.ResponseWriter, r *http.Request) {
	moved, failed := h.wishlist.MoveAllToCart(r.Context(), h.cart)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{
		"moved":  moved,
		"failed": failed,
	}})
}

// CheckPrices handles POST /api/v1/lists/{collection}/check-prices.
func (h *ListsHandler) CheckPrices(w http.ResponseWriter, r *http.Request) {
	changed := h.engine(r).CheckPrices(r.Context())

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"changed": changed}})
}
