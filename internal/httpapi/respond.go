package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/review"
	"github.com/xenking/storefront/internal/domain/tax"
	"github.com/xenking/storefront/internal/storage"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

// writeError maps domain errors onto the facade's status codes:
// validation failures are 422 (the caller must re-prompt), persistence
// failures 503 (the action did not durably complete), unknown products 404,
// everything unexpected 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *order.ValidationError
		provinceErr   *tax.UnknownProvinceError
		paymentErr    *order.UnknownPaymentMethodError
		writeErr      *storage.WriteError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: validationErr.Error(),
			Missing: validationErr.Missing,
		})
	case errors.As(err, &provinceErr),
		errors.As(err, &paymentErr),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrMissingComment):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.As(err, &writeErr):
		writeErrorMessage(w, http.StatusServiceUnavailable, "storage write failed, action not applied")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// writeCollaboratorError reports a catalog service failure. The facade
// degrades loudly (502) instead of pretending the catalog is empty; core
// state is unaffected.
func writeCollaboratorError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeErrorMessage(w, http.StatusNotFound, err.Error())
		return
	}
	zctx.From(r.Context()).Warn("catalog request failed", zap.Error(err))
	writeErrorMessage(w, http.StatusBadGateway, "catalog service unavailable")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
