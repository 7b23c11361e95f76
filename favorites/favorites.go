// Package favorites is the set of favorite product ids: local storage while anonymous, the server list once
// logged in.
package favorites

import (
	"context"
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/syncstore"
)

type Favorites struct {
	store *syncstore.Store[int64, int64]
	api   *API
}

func New(local storage.Store, api *API, logger zerolog.Logger) *Favorites {
	l := syncstore.NewJSONLocal[int64](local, storage.KeyFavorites, func(id int64) bool { return id > 0 })
	return &Favorites{
		store: syncstore.New[int64, int64]("favorites", l, api, func(id int64) int64 { return id }, logger),
		api:   api,
	}
}

// Add marks productID as a favorite; adding an existing favorite is a no-op locally
func (f *Favorites) Add(ctx context.Context, productID int64) error {
	if err := validateProductID(productID); err != nil {
		return fmt.Errorf("[favorites Add] %w", err)
	}
	return f.store.Apply(ctx, func(ids []int64) ([]int64, error) {
		if slices.Contains(ids, productID) {
			return ids, nil
		}
		return append(ids, productID), nil
	}, func(ctx context.Context) error {
		return f.api.Create(ctx, productID)
	})
}

func (f *Favorites) Remove(ctx context.Context, productID int64) error {
	if err := validateProductID(productID); err != nil {
		return fmt.Errorf("[favorites Remove] %w", err)
	}
	return f.store.Apply(ctx, func(ids []int64) ([]int64, error) {
		return slices.DeleteFunc(ids, func(id int64) bool { return id == productID }), nil
	}, func(ctx context.Context) error {
		return f.api.Remove(ctx, productID)
	})
}

// Toggle adds or removes productID and reports whether it is now a favorite
func (f *Favorites) Toggle(ctx context.Context, productID int64) (bool, error) {
	if f.IsFavorite(productID) {
		return false, f.Remove(ctx, productID)
	}
	return true, f.Add(ctx, productID)
}

func (f *Favorites) IsFavorite(productID int64) bool {
	return slices.Contains(f.store.Items(), productID)
}

func (f *Favorites) Refresh(ctx context.Context) error {
	return f.store.Refresh(ctx)
}

// Authenticate merges the anonymous favorites into the server list
func (f *Favorites) Authenticate(ctx context.Context) error {
	return f.store.Authenticate(ctx)
}

func (f *Favorites) Deauthenticate() {
	f.store.Deauthenticate()
}

func (f *Favorites) Items() []int64 {
	return f.store.Items()
}

func (f *Favorites) Err() error {
	return f.store.Err()
}

func (f *Favorites) Loading() bool {
	return f.store.Loading()
}

func (f *Favorites) State() syncstore.State {
	return f.store.State()
}

func validateProductID(id int64) error {
	if err := validation.Validate(id, validation.Required, validation.Min(1)); err != nil {
		return fmt.Errorf("%w: product id %v", errors.ErrInvalidItem, err)
	}
	return nil
}
