package httpapi

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/review"
)

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	local := h.reviews.Get(r.Context(), id)
	if local == nil {
		local = []review.Review{}
	}
	writeJSON(w, http.StatusOK, local)
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Rating       int    `json:"rating"`
		Comment      string `json:"comment"`
		ReviewerName string `json:"reviewerName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.reviews.Add(r.Context(), id, review.Review{
		Rating:       req.Rating,
		Comment:      req.Comment,
		ReviewerName: req.ReviewerName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}
