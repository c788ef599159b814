package httpapi

import (
	"net/http"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/review"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// productResponse is a catalog record enriched with the merged review set
// and the average rating the detail view displays.
type productResponse struct {
	catalog.Product
	AllReviews    []review.Review `json:"allReviews"`
	AverageRating float64         `json:"averageRating"`
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.catalog.ProductByID(r.Context(), id)
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}

	// Seeded reviews come from the catalog record, local ones from the
	// aggregator; the catalog's own rating is the fallback when neither
	// source has entries.
	merged := review.Merge(p.Reviews, h.reviews.Get(r.Context(), id))

	writeJSON(w, http.StatusOK, productResponse{
		Product:       *p,
		AllReviews:    merged,
		AverageRating: review.Average(merged, p.Rating),
	})
}
