package favorites

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/fetch"
	"github.com/jrsteele09/go-shop-client/syncstore"
)

// Path is the backend favorites endpoint
const Path = "/api/favorites"

var _ syncstore.Remote[int64] = (*API)(nil)

// API is the server-side favorites list of the logged in user
type API struct {
	client *fetch.Client
	logger zerolog.Logger
}

func NewAPI(client *fetch.Client, logger zerolog.Logger) *API {
	return &API{client: client, logger: logger}
}

type listReply struct {
	Favorites []int64 `json:"favorites"`
}

// List returns the favorite product ids. A malformed reply reads as no favorites.
func (a *API) List(ctx context.Context) ([]int64, error) {
	resp, err := a.client.Do(ctx, fetch.NewRequest(http.MethodGet, Path))
	if err != nil {
		return nil, fmt.Errorf("[favorites List] %w", err)
	}
	if err := fetch.CheckStatus(resp, http.MethodGet, Path); err != nil {
		return nil, err
	}

	var reply listReply
	if err := resp.DecodeJSON(&reply); err != nil {
		a.logger.Warn().Err(err).Msg("malformed favorites reply, treating as empty")
		return nil, nil
	}
	return reply.Favorites, nil
}

// Create marks productID as a favorite
func (a *API) Create(ctx context.Context, productID int64) error {
	req, err := fetch.NewJSONRequest(http.MethodPost, Path, map[string]int64{"product_id": productID})
	if err != nil {
		return err
	}
	return a.do(ctx, req)
}

func (a *API) Remove(ctx context.Context, productID int64) error {
	return a.do(ctx, fetch.NewRequest(http.MethodDelete, fmt.Sprintf("%s/%d", Path, productID)))
}

func (a *API) do(ctx context.Context, req *fetch.Request) error {
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("[favorites API] %w", err)
	}
	return fetch.CheckStatus(resp, req.Method, req.Path)
}
