package httpapi

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/order"
)

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingAddress order.ShippingAddress `json:"shippingAddress"`
		PaymentMethod   string                `json:"paymentMethod"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.ledger.PlaceOrder(r.Context(), req.ShippingAddress, order.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.ledger.All(r.Context())
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) latestOrder(w http.ResponseWriter, r *http.Request) {
	o := h.ledger.Latest(r.Context())
	if o == nil {
		writeErrorMessage(w, http.StatusNotFound, "no orders placed")
		return
	}
	writeJSON(w, http.StatusOK, o)
}
