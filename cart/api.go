package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/fetch"
	"github.com/jrsteele09/go-shop-client/syncstore"
)

// Backend cart endpoints
const (
	ListPath  = "/api/cart"
	ItemsPath = "/api/cart/items"
	ClearPath = "/api/cart/clear"
)

var _ syncstore.Remote[Item] = (*API)(nil)

// API is the server-side cart of the logged in user
type API struct {
	client *fetch.Client
	logger zerolog.Logger
}

func NewAPI(client *fetch.Client, logger zerolog.Logger) *API {
	return &API{client: client, logger: logger}
}

// List returns the server cart. A malformed reply reads as an empty cart.
func (a *API) List(ctx context.Context) ([]Item, error) {
	resp, err := a.client.Do(ctx, fetch.NewRequest(http.MethodGet, ListPath))
	if err != nil {
		return nil, fmt.Errorf("[cart List] %w", err)
	}
	if err := fetch.CheckStatus(resp, http.MethodGet, ListPath); err != nil {
		return nil, err
	}

	var items []Item
	if len(resp.Body) > 0 {
		if err := resp.DecodeJSON(&items); err != nil {
			a.logger.Warn().Err(err).Msg("malformed cart reply, treating as empty")
			return nil, nil
		}
	}
	return items, nil
}

// Create adds item's product to the server cart. The server adds to the quantity of an existing line.
func (a *API) Create(ctx context.Context, item Item) error {
	return a.send(ctx, http.MethodPost, ItemsPath, map[string]any{
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})
}

// UpdateQuantity sets a line's quantity; zero or less deletes the line
func (a *API) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity <= 0 {
		return a.Remove(ctx, id)
	}
	return a.send(ctx, http.MethodPut, itemPath(id), map[string]int{"quantity": quantity})
}

func (a *API) Remove(ctx context.Context, id int64) error {
	return a.send(ctx, http.MethodDelete, itemPath(id), nil)
}

func (a *API) Clear(ctx context.Context) error {
	return a.send(ctx, http.MethodPost, ClearPath, nil)
}

func (a *API) send(ctx context.Context, method, path string, body any) error {
	req := fetch.NewRequest(method, path)
	if body != nil {
		var err error
		if req, err = fetch.NewJSONRequest(method, path, body); err != nil {
			return err
		}
	}

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("[cart API] %w", err)
	}
	return fetch.CheckStatus(resp, method, path)
}

func itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", ItemsPath, id)
}
