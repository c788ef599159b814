// Package order finalizes checkouts into immutable orders and keeps the
// append-only order ledger.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/tax"
)

// PaymentMethod enumerates the accepted payment options.
type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentPaypal PaymentMethod = "paypal"
	PaymentBank   PaymentMethod = "bank"
)

// UnknownPaymentMethodError indicates a value outside the enumerated set.
type UnknownPaymentMethodError struct {
	Value string
}

func (e *UnknownPaymentMethodError) Error() string {
	return "unknown payment method: " + e.Value
}

// ParsePaymentMethod validates s against the enumerated payment methods.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCredit, PaymentPaypal, PaymentBank:
		return PaymentMethod(s), nil
	}
	return "", &UnknownPaymentMethodError{Value: s}
}

// ShippingAddress is the destination captured at checkout. All fields are
// required.
type ShippingAddress struct {
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	City     string       `json:"city"`
	Province tax.Province `json:"province"`
	Postal   string       `json:"postal"`
}

// NormalizePostal reshapes free-form input into the Canadian A1A 1A1 form:
// uppercase, non-alphanumerics stripped, a single space after the third
// character, truncated to six significant characters.
func NormalizePostal(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	raw := b.String()
	if len(raw) > 6 {
		raw = raw[:6]
	}
	if len(raw) > 3 {
		return raw[:3] + " " + raw[3:]
	}
	return raw
}

// Order is an immutable snapshot of a cart plus computed totals and
// shipping/payment data, created once at checkout completion. Monetary
// fields keep their exact values; rounding is a presentation concern.
type Order struct {
	ID              string          `json:"id"`
	Items           cart.Cart       `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GST             decimal.Decimal `json:"gst"`
	QST             decimal.Decimal `json:"qst"`
	Shipping        decimal.Decimal `json:"shipping"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PlacedAt        time.Time       `json:"placedAt"`
}

// ValidationError reports a checkout submitted with incomplete shipping
// fields. No state is mutated when it is returned.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required shipping fields: %s", strings.Join(e.Missing, ", "))
}
