// Package cart owns the authoritative in-progress cart state.
package cart

import (
	"github.com/shopspring/decimal"
)

// Item is a single cart line. JSON field names match the persisted record
// format the original storefront kept in localStorage.
type Item struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"price"`
	Thumbnail string          `json:"thumbnail"`
	Quantity  int             `json:"quantity"`
}

// Cart is an ordered sequence of items. Insertion order is display order.
// Invariants, enforced by Store: at most one item per product id, and every
// quantity is at least 1.
type Cart []Item

// TotalItems returns the summed quantity across all lines.
func (c Cart) TotalItems() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// Clone returns a deep copy of the cart, used to snapshot it into an order.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

func (c Cart) indexOf(id int64) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Product carries the catalog fields copied into a new cart item. Everything
// else on the catalog record (description, images, reviews) stays out of the
// cart on purpose.
type Product struct {
	ID        int64
	Title     string
	Price     decimal.Decimal
	Thumbnail string
}
