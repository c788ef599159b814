package httpapi

import (
	"net/http"
	"strconv"

	"github.com/xenking/storefront/internal/domain/cart"
)

// cartResponse wraps the cart with its derived item count so list badges
// don't recompute it client-side.
type cartResponse struct {
	Items      cart.Cart `json:"items"`
	TotalItems int       `json:"totalItems"`
}

func newCartResponse(c cart.Cart) cartResponse {
	return cartResponse{Items: c, TotalItems: c.TotalItems()}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCartResponse(h.carts.Get(r.Context())))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// The cart copies only what it needs from the catalog record; the
	// catalog stays the source of truth for everything else.
	p, err := h.catalog.ProductByID(r.Context(), req.ProductID)
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}

	c, err := h.carts.Add(r.Context(), cart.Product{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Thumbnail: p.Thumbnail,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), id, req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
