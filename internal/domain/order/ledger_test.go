package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/tax"
	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/syncbus"
)

// ledgerFailKV fails writes to the ledger record only, letting cart writes
// through.
type ledgerFailKV struct {
	storage.KV
}

func (f *ledgerFailKV) Set(ctx context.Context, key string, value []byte) error {
	if key == recordKey {
		return &storage.WriteError{Key: key, Err: errors.New("disk full")}
	}
	return f.KV.Set(ctx, key, value)
}

func validAddress() ShippingAddress {
	return ShippingAddress{
		Name:     "Ada Lovelace",
		Address:  "123 Rue Principale",
		City:     "Montreal",
		Province: tax.Quebec,
		Postal:   "h2x1y4",
	}
}

func newTestLedger(t *testing.T) (*Ledger, *cart.Store, *syncbus.Bus) {
	t.Helper()
	kv := memory.New()
	bus := syncbus.New()
	carts := cart.NewStore(kv, bus, nil)
	return NewLedger(kv, carts, nil), carts, bus
}

func seedCart(t *testing.T, carts *cart.Store) {
	t.Helper()
	_, err := carts.Add(context.Background(), cart.Product{
		ID:    1,
		Title: "Widget",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	_, err = carts.UpdateQuantity(context.Background(), 1, 1)
	require.NoError(t, err)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		"want %s, got %s", want, got)
}

func TestPlaceOrder_MissingFields(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	seedCart(t, carts)

	_, err := l.PlaceOrder(context.Background(), ShippingAddress{}, PaymentCredit)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t,
		[]string{"name", "address", "city", "province", "postal"},
		validationErr.Missing)

	// Nothing was mutated.
	assert.Nil(t, l.Latest(context.Background()))
	assert.Len(t, carts.Get(context.Background()), 1)
}

func TestPlaceOrder_PartialAddress(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	seedCart(t, carts)

	addr := validAddress()
	addr.City = ""
	addr.Postal = ""

	_, err := l.PlaceOrder(context.Background(), addr, PaymentCredit)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"city", "postal"}, validationErr.Missing)
}

func TestPlaceOrder_Quebec(t *testing.T) {
	l, carts, bus := newTestLedger(t)
	seedCart(t, carts)

	var lastCartEvent cart.Cart
	bus.Subscribe(syncbus.TopicCartUpdated, func(_ context.Context, ev syncbus.Event) {
		if c, ok := ev.Payload.(cart.Cart); ok {
			lastCartEvent = c
		}
	})

	o, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)
	require.NoError(t, err)

	assertDecimal(t, "20.00", o.Subtotal)
	assertDecimal(t, "1.00", o.GST)
	assertDecimal(t, "1.995", o.QST)
	assertDecimal(t, "5.00", o.Shipping)
	assertDecimal(t, "27.995", o.Total)
	assert.Equal(t, "H2X 1Y4", o.ShippingAddress.Postal)
	assert.Equal(t, PaymentCredit, o.PaymentMethod)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	// Checkout clears the cart and announces it with an empty cart update.
	assert.Empty(t, carts.Get(context.Background()))
	assert.NotNil(t, lastCartEvent)
	assert.Empty(t, lastCartEvent)
}

func TestPlaceOrder_Ontario(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	seedCart(t, carts)

	addr := validAddress()
	addr.Province = tax.Ontario
	addr.City = "Toronto"

	o, err := l.PlaceOrder(context.Background(), addr, PaymentPaypal)
	require.NoError(t, err)

	assertDecimal(t, "0", o.QST)
	assertDecimal(t, "26.00", o.Total)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	l, _, _ := newTestLedger(t)

	_, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_UnknownProvince(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	seedCart(t, carts)

	addr := validAddress()
	addr.Province = "Texas"

	_, err := l.PlaceOrder(context.Background(), addr, PaymentCredit)

	var unknownErr *tax.UnknownProvinceError
	require.ErrorAs(t, err, &unknownErr)
	assert.Len(t, carts.Get(context.Background()), 1)
}

func TestPlaceOrder_UnknownPaymentMethod(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	seedCart(t, carts)

	_, err := l.PlaceOrder(context.Background(), validAddress(), "bitcoin")

	var unknownErr *UnknownPaymentMethodError
	require.ErrorAs(t, err, &unknownErr)
}

func TestPlaceOrder_LedgerWriteFailure(t *testing.T) {
	kv := memory.New()
	bus := syncbus.New()
	carts := cart.NewStore(kv, bus, nil)
	l := NewLedger(&ledgerFailKV{KV: kv}, carts, nil)
	seedCart(t, carts)

	_, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)

	var writeErr *storage.WriteError
	require.ErrorAs(t, err, &writeErr)

	// The order is not placed and the cart survives.
	assert.Nil(t, l.Latest(context.Background()))
	assert.Len(t, carts.Get(context.Background()), 1)
}

func TestPlaceOrder_OrderIDsUnique(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	seedCart(t, carts)
	first, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)
	require.NoError(t, err)

	seedCart(t, carts)
	second, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)
	require.NoError(t, err)

	assert.Contains(t, first.ID, "order_")
	assert.NotEqual(t, first.ID, second.ID,
		"orders placed in the same millisecond must not collide")
	assert.True(t, first.PlacedAt.Equal(fixed))
}

func TestLatestAndAll(t *testing.T) {
	l, carts, _ := newTestLedger(t)

	assert.Nil(t, l.Latest(context.Background()))
	assert.Empty(t, l.All(context.Background()))

	seedCart(t, carts)
	first, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)
	require.NoError(t, err)

	seedCart(t, carts)
	second, err := l.PlaceOrder(context.Background(), validAddress(), PaymentBank)
	require.NoError(t, err)

	all := l.All(context.Background())
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, second.ID, l.Latest(context.Background()).ID)
}

func TestLedger_CorruptRecord(t *testing.T) {
	l, carts, _ := newTestLedger(t)
	require.NoError(t, l.kv.Set(context.Background(), recordKey, []byte(`{"nope"`)))

	assert.Nil(t, l.Latest(context.Background()))

	// A corrupt ledger resets; placing a new order starts a fresh history.
	seedCart(t, carts)
	_, err := l.PlaceOrder(context.Background(), validAddress(), PaymentCredit)
	require.NoError(t, err)
	assert.Len(t, l.All(context.Background()), 1)
}

func TestNormalizePostal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"h2x1y4", "H2X 1Y4"},
		{"H2X 1Y4", "H2X 1Y4"},
		{"h2x-1y4!!", "H2X 1Y4"},
		{"h2x1y4zzz", "H2X 1Y4"},
		{"h2x", "H2X"},
		{"h2", "H2"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePostal(tt.in), "input %q", tt.in)
	}
}
