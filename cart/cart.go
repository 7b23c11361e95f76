// Package cart is the shopping cart: local storage while anonymous, the server cart once logged in.
package cart

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/syncstore"
)

// NewLocalIDFunc returns a candidate id for an anonymous line. It can be overridden in tests.
var NewLocalIDFunc = func() int64 {
	return -(rand.Int64N(1_000_000) + 1)
}

// Cart is the user's cart
type Cart struct {
	store *syncstore.Store[Item, int64]
	api   *API
}

func New(local storage.Store, api *API, logger zerolog.Logger) *Cart {
	l := syncstore.NewJSONLocal[Item](local, storage.KeyCart, func(i Item) bool { return i.ProductID != 0 })
	return &Cart{
		store: syncstore.New[Item, int64]("cart", l, api, productKey, logger),
		api:   api,
	}
}

// Add puts item in the cart. Adding a product already in an anonymous cart increases its quantity.
func (c *Cart) Add(ctx context.Context, item Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("[cart Add] %w: %v", errors.ErrInvalidItem, err)
	}

	return c.store.Apply(ctx, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ProductID == item.ProductID {
				items[i].Quantity += item.Quantity
				return items, nil
			}
		}
		item.ID = newLocalID(items)
		return append(items, item), nil
	}, func(ctx context.Context) error {
		return c.api.Create(ctx, item)
	})
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	return c.store.Apply(ctx, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if quantity <= 0 {
				return append(items[:i], items[i+1:]...), nil
			}
			items[i].Quantity = quantity
			return items, nil
		}
		return items, nil
	}, func(ctx context.Context) error {
		return c.api.UpdateQuantity(ctx, id, quantity)
	})
}

// Remove deletes a line
func (c *Cart) Remove(ctx context.Context, id int64) error {
	return c.store.Apply(ctx, func(items []Item) ([]Item, error) {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out, nil
	}, func(ctx context.Context) error {
		return c.api.Remove(ctx, id)
	})
}

// Clear empties the cart
func (c *Cart) Clear(ctx context.Context) error {
	return c.store.Apply(ctx, func([]Item) ([]Item, error) {
		return nil, nil
	}, c.api.Clear)
}

func (c *Cart) Refresh(ctx context.Context) error {
	return c.store.Refresh(ctx)
}

// Authenticate merges the anonymous cart into the server cart
func (c *Cart) Authenticate(ctx context.Context) error {
	return c.store.Authenticate(ctx)
}

func (c *Cart) Deauthenticate() {
	c.store.Deauthenticate()
}

func (c *Cart) Items() []Item {
	return c.store.Items()
}

func (c *Cart) ItemCount() int {
	return ItemCount(c.store.Items())
}

func (c *Cart) TotalPrice() float64 {
	return TotalPrice(c.store.Items())
}

func (c *Cart) Err() error {
	return c.store.Err()
}

func (c *Cart) Loading() bool {
	return c.store.Loading()
}

func (c *Cart) State() syncstore.State {
	return c.store.State()
}

// newLocalID draws negative ids until one is unused by items
func newLocalID(items []Item) int64 {
	used := make(map[int64]struct{}, len(items))
	for _, it := range items {
		used[it.ID] = struct{}{}
	}
	for {
		id := NewLocalIDFunc()
		if _, ok := used[id]; !ok && id < 0 {
			return id
		}
	}
}
