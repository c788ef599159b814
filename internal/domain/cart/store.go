package cart

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/syncbus"
)

// recordKey is the storage key the cart record lives under.
const recordKey = "cart"

// Store owns the persisted cart. All mutation paths funnel through it so the
// cart invariants are enforced in one place. Every mutator persists
// synchronously and then publishes the new cart on the bus.
type Store struct {
	kv  storage.KV
	bus *syncbus.Bus
	lg  *zap.Logger
}

// NewStore creates a Store persisting through kv and notifying bus.
func NewStore(kv storage.KV, bus *syncbus.Bus, lg *zap.Logger) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{kv: kv, bus: bus, lg: lg}
}

// Get reads the persisted cart. A missing, corrupt, or non-array record
// yields an empty cart: storage-shape problems are logged and recovered
// locally, never surfaced to the caller.
func (s *Store) Get(ctx context.Context) Cart {
	raw, err := s.kv.Get(ctx, recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Cart{}
	}
	if err != nil {
		s.lg.Warn("cart record read failed, using empty cart", zap.Error(err))
		return Cart{}
	}

	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		s.lg.Warn("cart record corrupt, resetting to empty cart", zap.Error(err))
		return Cart{}
	}
	return c
}

// Add increments the quantity of an existing line with the same product id,
// or appends a new line with quantity 1. It returns the new cart after a
// successful persist.
func (s *Store) Add(ctx context.Context, p Product) (Cart, error) {
	c := s.Get(ctx)

	if i := c.indexOf(p.ID); i >= 0 {
		c[i].Quantity++
	} else {
		c = append(c, Item{
			ID:        p.ID,
			Title:     p.Title,
			UnitPrice: p.Price,
			Thumbnail: p.Thumbnail,
			Quantity:  1,
		})
	}

	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes the line with the given product id. Removing an absent id
// is a no-op, not an error.
func (s *Store) Remove(ctx context.Context, id int64) (Cart, error) {
	c := s.Get(ctx)

	i := c.indexOf(id)
	if i >= 0 {
		c = append(c[:i], c[i+1:]...)
	}

	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity adjusts a line's quantity by delta, clamped to a floor of 1.
// Quantity edits never remove a line; removal is a distinct operation.
// An absent id is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id int64, delta int) (Cart, error) {
	c := s.Get(ctx)

	if i := c.indexOf(id); i >= 0 {
		c[i].Quantity = max(1, c[i].Quantity+delta)
	}

	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Save overwrites the persisted cart record wholesale and publishes the new
// cart on the bus. It is the single persistence primitive used by all
// mutators; an empty cart payload is how "cart cleared" is announced.
func (s *Store) Save(ctx context.Context, c Cart) error {
	if c == nil {
		c = Cart{}
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.kv.Set(ctx, recordKey, raw); err != nil {
		return err
	}

	s.bus.Publish(ctx, syncbus.TopicCartUpdated, c)
	return nil
}
