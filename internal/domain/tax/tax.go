// Package tax computes checkout totals. Everything here is pure and
// deterministic; monetary values stay exact decimals, with Breakdown.Round
// reserved for display formatting.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Province is a Canadian province or territory a shipment can go to.
type Province string

const (
	Alberta                 Province = "Alberta"
	BritishColumbia         Province = "British Columbia"
	Manitoba                Province = "Manitoba"
	NewBrunswick            Province = "New Brunswick"
	NewfoundlandAndLabrador Province = "Newfoundland and Labrador"
	NorthwestTerritories    Province = "Northwest Territories"
	NovaScotia              Province = "Nova Scotia"
	Nunavut                 Province = "Nunavut"
	Ontario                 Province = "Ontario"
	PrinceEdwardIsland      Province = "Prince Edward Island"
	Quebec                  Province = "Quebec"
	Saskatchewan            Province = "Saskatchewan"
	Yukon                   Province = "Yukon"
)

// Provinces lists every valid shipping destination, in display order.
var Provinces = []Province{
	Quebec, Ontario, BritishColumbia, Alberta, Manitoba, Saskatchewan,
	NovaScotia, NewBrunswick, NewfoundlandAndLabrador, PrinceEdwardIsland,
	NorthwestTerritories, Yukon, Nunavut,
}

// UnknownProvinceError indicates a value outside the enumerated set.
type UnknownProvinceError struct {
	Value string
}

func (e *UnknownProvinceError) Error() string {
	return "unknown province: " + e.Value
}

// Parse validates s against the enumerated province set.
func Parse(s string) (Province, error) {
	for _, p := range Provinces {
		if string(p) == s {
			return p, nil
		}
	}
	return "", &UnknownProvinceError{Value: s}
}

var (
	gstRate      = decimal.RequireFromString("0.05")
	qstRate      = decimal.RequireFromString("0.09975")
	flatShipping = decimal.RequireFromString("5.00")
)

// Breakdown is the derived pricing of a cart for a destination province.
// It is never persisted on its own, only inside an order.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	GST      decimal.Decimal `json:"gst"`
	QST      decimal.Decimal `json:"qst"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Compute derives the tax breakdown for a cart shipped to province.
//
//	subtotal = sum(unitPrice * quantity)
//	gst      = subtotal * 5%
//	qst      = subtotal * 9.975%, Quebec only
//	shipping = flat 5.00, waived for an empty cart
//	total    = subtotal + gst + qst + shipping, exactly
func Compute(c cart.Cart, province Province) Breakdown {
	subtotal := decimal.Zero
	for _, item := range c {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	gst := subtotal.Mul(gstRate)

	qst := decimal.Zero
	if province == Quebec {
		qst = subtotal.Mul(qstRate)
	}

	shipping := decimal.Zero
	if len(c) > 0 {
		shipping = flatShipping
	}

	return Breakdown{
		Subtotal: subtotal,
		GST:      gst,
		QST:      qst,
		Shipping: shipping,
		Total:    subtotal.Add(gst).Add(qst).Add(shipping),
	}
}

// Round returns a copy with every component rounded to 2 decimal places, for
// display formatting. The unrounded breakdown is what gets persisted, so
// repeated recomputation never compounds rounding error.
func (b Breakdown) Round() Breakdown {
	return Breakdown{
		Subtotal: b.Subtotal.Round(2),
		GST:      b.GST.Round(2),
		QST:      b.QST.Round(2),
		Shipping: b.Shipping.Round(2),
		Total:    b.Total.Round(2),
	}
}
