package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/tax"
	"github.com/xenking/storefront/internal/storage"
)

// recordKey is the storage key the order ledger lives under.
const recordKey = "orders_v1"

// ErrEmptyCart is returned when checkout is attempted with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// Ledger validates checkouts, appends finished orders to the persisted
// order history, and clears the cart. The ledger is append-only: orders are
// never modified or removed, and "most recent order" is its last element.
type Ledger struct {
	kv    storage.KV
	carts *cart.Store
	lg    *zap.Logger
	now   func() time.Time
}

// NewLedger creates a Ledger persisting through kv and clearing carts.
func NewLedger(kv storage.KV, carts *cart.Store, lg *zap.Logger) *Ledger {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Ledger{kv: kv, carts: carts, lg: lg, now: time.Now}
}

// PlaceOrder finalizes a checkout: it validates the shipping address and
// payment method, snapshots the current cart, computes the tax breakdown for
// the destination province, appends the order to the ledger, and clears the
// cart (which announces itself as an empty cart update on the bus).
//
// On validation failure no state is mutated. On a ledger write failure the
// order is not considered placed and the cart is left untouched.
func (l *Ledger) PlaceOrder(ctx context.Context, addr ShippingAddress, method PaymentMethod) (*Order, error) {
	addr.Postal = NormalizePostal(addr.Postal)

	if missing := missingFields(addr); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	province, err := tax.Parse(string(addr.Province))
	if err != nil {
		return nil, err
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}

	snapshot := l.carts.Get(ctx).Clone()
	if len(snapshot) == 0 {
		return nil, ErrEmptyCart
	}

	breakdown := tax.Compute(snapshot, province)
	placedAt := l.now()

	o := Order{
		ID:              newOrderID(placedAt),
		Items:           snapshot,
		Subtotal:        breakdown.Subtotal,
		GST:             breakdown.GST,
		QST:             breakdown.QST,
		Shipping:        breakdown.Shipping,
		Total:           breakdown.Total,
		ShippingAddress: addr,
		PaymentMethod:   method,
		PlacedAt:        placedAt,
	}

	ledger := append(l.load(ctx), o)
	raw, err := json.Marshal(ledger)
	if err != nil {
		return nil, errors.Wrap(err, "encode ledger")
	}
	if err := l.kv.Set(ctx, recordKey, raw); err != nil {
		return nil, err
	}

	// The order is durably placed. A failed cart clear is logged but does
	// not undo the placement; the next cart write will converge.
	if err := l.carts.Save(ctx, cart.Cart{}); err != nil {
		l.lg.Error("cart clear after checkout failed", zap.String("order_id", o.ID), zap.Error(err))
	}

	return &o, nil
}

// Latest returns the most recently placed order, or nil when the ledger is
// empty.
func (l *Ledger) Latest(ctx context.Context) *Order {
	ledger := l.load(ctx)
	if len(ledger) == 0 {
		return nil
	}
	return &ledger[len(ledger)-1]
}

// All returns every placed order in placement order.
func (l *Ledger) All(ctx context.Context) []Order {
	return l.load(ctx)
}

// load reads the persisted ledger. Missing or corrupt data resets to empty,
// logged only.
func (l *Ledger) load(ctx context.Context) []Order {
	raw, err := l.kv.Get(ctx, recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		l.lg.Warn("ledger record read failed, using empty ledger", zap.Error(err))
		return nil
	}

	var ledger []Order
	if err := json.Unmarshal(raw, &ledger); err != nil {
		l.lg.Warn("ledger record corrupt, resetting", zap.Error(err))
		return nil
	}
	return ledger
}

func missingFields(addr ShippingAddress) []string {
	var missing []string
	if addr.Name == "" {
		missing = append(missing, "name")
	}
	if addr.Address == "" {
		missing = append(missing, "address")
	}
	if addr.City == "" {
		missing = append(missing, "city")
	}
	if addr.Province == "" {
		missing = append(missing, "province")
	}
	if addr.Postal == "" {
		missing = append(missing, "postal")
	}
	return missing
}

// newOrderID derives an id from the placement time, readable and sortable,
// with a random suffix so two sessions placing orders in the same
// millisecond cannot collide.
func newOrderID(t time.Time) string {
	return fmt.Sprintf("order_%d_%s", t.UnixMilli(), uuid.NewString()[:8])
}
