// Package httpapi is the local HTTP facade UI surfaces talk to. It carries
// no business rules of its own: handlers translate requests into calls on
// the domain stores and map domain errors onto status codes.
package httpapi

import (
	"net/http"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/review"
	"github.com/xenking/storefront/internal/syncbus"
)

// Handler serves the storefront API.
type Handler struct {
	carts   *cart.Store
	ledger  *order.Ledger
	reviews *review.Aggregator
	catalog *catalog.Client
	bus     *syncbus.Bus
}

// NewHandler constructs a Handler over the engine's components.
func NewHandler(
	carts *cart.Store,
	ledger *order.Ledger,
	reviews *review.Aggregator,
	catalogClient *catalog.Client,
	bus *syncbus.Bus,
) *Handler {
	return &Handler{
		carts:   carts,
		ledger:  ledger,
		reviews: reviews,
		catalog: catalogClient,
		bus:     bus,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)

	mux.HandleFunc("POST /api/checkout", h.checkout)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/latest", h.latestOrder)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)

	mux.HandleFunc("GET /api/products/{id}/reviews", h.listReviews)
	mux.HandleFunc("POST /api/products/{id}/reviews", h.addReview)

	mux.HandleFunc("GET /api/events", h.events)
	mux.HandleFunc("POST /api/search", h.applySearch)
	mux.HandleFunc("DELETE /api/search", h.clearSearch)

	return mux
}
