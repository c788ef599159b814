// Package catalog is the client for the external product catalog service.
//
// The service is an unreliable collaborator: every fetch can fail, and the
// response shapes drift (categories have shipped both as plain strings and
// as objects). Decoding is therefore tolerant, and a compressed on-disk
// snapshot of the last good product list lets the storefront degrade instead
// of going blank when the service is unreachable. Core state (cart, orders,
// reviews) never depends on this package.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/review"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog record. Seeded reviews ride along on the record and
// are read-only; the review aggregator merges them with local reviews at
// display time.
type Product struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	Rating             float64         `json:"rating"`
	Stock              int             `json:"stock"`
	Category           string          `json:"category"`
	Thumbnail          string          `json:"thumbnail"`
	Images             []string        `json:"images"`
	Reviews            []review.Review `json:"reviews"`
}
