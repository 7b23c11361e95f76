package cart_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-client/cart"
	"github.com/jrsteele09/go-shop-client/fetch"
	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/storage/storefake"
	"github.com/jrsteele09/go-shop-client/syncstore"
	"github.com/jrsteele09/go-shop-client/token/refresh"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type staticSession struct{}

func (staticSession) AccessToken() string                { return "access" }
func (staticSession) RefreshToken() string               { return "refresh" }
func (staticSession) UpdateTokens(t *oauth2.Token) error { return nil }
func (staticSession) Expire()                            {}

// cartBackend is a minimal server cart keyed by product id
type cartBackend struct {
	mu       sync.Mutex
	nextID   int64
	lines    []cart.Item
	requests []string
}

func (b *cartBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)

	body, _ := io.ReadAll(r.Body)
	switch {
	case r.Method == http.MethodGet && r.URL.Path == cart.ListPath:
		_ = json.NewEncoder(w).Encode(b.lines)
	case r.Method == http.MethodPost && r.URL.Path == cart.ItemsPath:
		var req struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		}
		_ = json.Unmarshal(body, &req)
		for i := range b.lines {
			if b.lines[i].ProductID == req.ProductID {
				b.lines[i].Quantity += req.Quantity
				return
			}
		}
		b.nextID++
		b.lines = append(b.lines, cart.Item{ID: b.nextID, ProductID: req.ProductID, Quantity: req.Quantity, Price: 10})
	case r.Method == http.MethodPut:
		var req struct {
			Quantity int `json:"quantity"`
		}
		_ = json.Unmarshal(body, &req)
		for i := range b.lines {
			if r.URL.Path == fmt.Sprintf("%s/%d", cart.ItemsPath, b.lines[i].ID) {
				b.lines[i].Quantity = req.Quantity
			}
		}
	case r.Method == http.MethodDelete:
		out := b.lines[:0]
		for _, l := range b.lines {
			if r.URL.Path != fmt.Sprintf("%s/%d", cart.ItemsPath, l.ID) {
				out = append(out, l)
			}
		}
		b.lines = out
	case r.Method == http.MethodPost && r.URL.Path == cart.ClearPath:
		b.lines = nil
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testFixture struct {
	storage *storefake.FakeStore
	backend *cartBackend
	cart    *cart.Cart
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{storage: storefake.NewFakeStore(), backend: &cartBackend{}}
	srv := httptest.NewServer(f.backend)
	t.Cleanup(srv.Close)

	client := fetch.New(srv.URL, srv.Client(), staticSession{}, refresh.RenewerFunc(nil), time.Second, zerolog.Nop())
	f.cart = cart.New(f.storage, cart.NewAPI(client, zerolog.Nop()), zerolog.Nop())
	return f
}

func (f *testFixture) localLines(t *testing.T) []cart.Item {
	t.Helper()
	var items []cart.Item
	storage.GetJSON(f.storage, storage.KeyCart, &items)
	return items
}

func TestAnonymousAddAssignsNegativeIDs(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 7, Quantity: 1, Price: 12.5}))
	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 9, Quantity: 2, Price: 3}))

	items := f.cart.Items()
	require.Len(t, items, 2)
	require.Less(t, items[0].ID, int64(0))
	require.Less(t, items[1].ID, int64(0))
	require.NotEqual(t, items[0].ID, items[1].ID)
	require.True(t, items[0].IsLocal())
	require.Equal(t, items, f.localLines(t))
	require.Empty(t, f.backend.requests)
}

func TestAnonymousAddCollidingIDsAreRedrawn(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	ids := []int64{-5, -5, 3, -6}
	orig := cart.NewLocalIDFunc
	cart.NewLocalIDFunc = func() int64 {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	t.Cleanup(func() { cart.NewLocalIDFunc = orig })

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 2, Quantity: 1}))

	items := f.cart.Items()
	require.Equal(t, int64(-5), items[0].ID)
	require.Equal(t, int64(-6), items[1].ID)
}

func TestAnonymousAddExistingProductIncreasesQuantity(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 7, Quantity: 1, Price: 2}))
	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 7, Quantity: 3, Price: 2}))

	items := f.cart.Items()
	require.Len(t, items, 1)
	require.Equal(t, 4, items[0].Quantity)
	require.Equal(t, 4, f.cart.ItemCount())
	require.InDelta(t, 8.0, f.cart.TotalPrice(), 1e-9)
}

func TestAddRejectsInvalidItems(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name string
		item cart.Item
	}{
		{name: "missing product", item: cart.Item{Quantity: 1}},
		{name: "zero quantity", item: cart.Item{ProductID: 1}},
		{name: "negative quantity", item: cart.Item{ProductID: 1, Quantity: -2}},
		{name: "negative price", item: cart.Item{ProductID: 1, Quantity: 1, Price: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.cart.Add(context.Background(), tt.item)
			require.ErrorIs(t, err, errors.ErrInvalidItem)

			_, err = cart.NewItem(tt.item.ProductID, "", tt.item.Price, tt.item.Quantity)
			require.ErrorIs(t, err, errors.ErrInvalidItem)
		})
	}
	require.Empty(t, f.cart.Items())
}

func TestAnonymousUpdateQuantityZeroRemoves(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 7, Quantity: 1}))
	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 8, Quantity: 1}))
	id := f.cart.Items()[0].ID

	require.NoError(t, f.cart.UpdateQuantity(ctx, id, 5))
	require.Equal(t, 5, f.cart.Items()[0].Quantity)

	require.NoError(t, f.cart.UpdateQuantity(ctx, id, 0))
	items := f.cart.Items()
	require.Len(t, items, 1)
	require.Equal(t, int64(8), items[0].ProductID)
	require.Equal(t, items, f.localLines(t))
}

func TestAnonymousRemoveAndClear(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 1, Quantity: 1}))
	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 2, Quantity: 1}))
	require.NoError(t, f.cart.Remove(ctx, f.cart.Items()[0].ID))
	require.Len(t, f.cart.Items(), 1)

	require.NoError(t, f.cart.Clear(ctx))
	require.Empty(t, f.cart.Items())
	require.False(t, f.storage.Has(storage.KeyCart))
}

func TestAggregatesMatchLines(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	ops := []cart.Item{
		{ProductID: 1, Quantity: 2, Price: 1.5},
		{ProductID: 2, Quantity: 1, Price: 10},
		{ProductID: 3, Quantity: 4},
		{ProductID: 1, Quantity: 1, Price: 1.5},
	}
	for _, it := range ops {
		require.NoError(t, f.cart.Add(ctx, it))
	}
	items := f.cart.Items()
	require.NoError(t, f.cart.UpdateQuantity(ctx, items[1].ID, 3))
	require.NoError(t, f.cart.Remove(ctx, items[2].ID))

	wantCount, wantTotal := 0, 0.0
	for _, it := range f.cart.Items() {
		wantCount += it.Quantity
		wantTotal += float64(it.Quantity) * it.Price
	}
	require.Equal(t, 6, wantCount)
	require.Equal(t, wantCount, f.cart.ItemCount())
	require.InDelta(t, 34.5, f.cart.TotalPrice(), 1e-9)
	require.InDelta(t, wantTotal, f.cart.TotalPrice(), 1e-9)
}

func TestCorruptLocalEntriesAreSkipped(t *testing.T) {
	s := storefake.NewFakeStore()
	require.NoError(t, s.Set(storage.KeyCart, `[{"id":-1,"product_id":4,"quantity":2},{"id":"bad"},{"id":-2},null]`))

	c := cart.New(s, cart.NewAPI(nil, zerolog.Nop()), zerolog.Nop())
	require.Equal(t, []cart.Item{{ID: -1, ProductID: 4, Quantity: 2}}, c.Items())
	require.Equal(t, 2, c.ItemCount())
	require.Zero(t, c.TotalPrice())
}

func TestMergeKeepsRemoteQuantity(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.backend.nextID = 100
	f.backend.lines = []cart.Item{{ID: 100, ProductID: 9, Quantity: 1, Price: 10}}

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 7, Quantity: 1}))
	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 9, Quantity: 2}))

	require.NoError(t, f.cart.Authenticate(ctx))
	require.Equal(t, syncstore.Authenticated, f.cart.State())

	items := f.cart.Items()
	require.Len(t, items, 2)
	require.Equal(t, cart.Item{ID: 100, ProductID: 9, Quantity: 1, Price: 10}, items[0])
	require.Equal(t, int64(7), items[1].ProductID)
	require.Equal(t, 1, items[1].Quantity)
	require.False(t, f.storage.Has(storage.KeyCart))
	require.Equal(t, []string{"GET /api/cart", "POST /api/cart/items", "GET /api/cart"}, f.backend.requests)
}

func TestAuthenticatedOperationsUseServer(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cart.Authenticate(ctx))

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 3, Quantity: 2}))
	items := f.cart.Items()
	require.Len(t, items, 1)
	require.Equal(t, int64(1), items[0].ID)

	require.NoError(t, f.cart.UpdateQuantity(ctx, items[0].ID, 5))
	require.Equal(t, 5, f.cart.Items()[0].Quantity)

	require.NoError(t, f.cart.UpdateQuantity(ctx, items[0].ID, 0))
	require.Empty(t, f.cart.Items())
	require.Contains(t, f.backend.requests, "DELETE /api/cart/items/1")

	require.NoError(t, f.cart.Add(ctx, cart.Item{ProductID: 4, Quantity: 1}))
	require.NoError(t, f.cart.Clear(ctx))
	require.Empty(t, f.cart.Items())
	require.False(t, f.storage.Has(storage.KeyCart))
}

func TestAuthenticatedFailureIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`null`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to add item to cart"}`))
	}))
	t.Cleanup(srv.Close)

	client := fetch.New(srv.URL, srv.Client(), staticSession{}, refresh.RenewerFunc(nil), time.Second, zerolog.Nop())
	c := cart.New(storefake.NewFakeStore(), cart.NewAPI(client, zerolog.Nop()), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, c.Authenticate(ctx))
	require.Empty(t, c.Items())

	err := c.Add(ctx, cart.Item{ProductID: 1, Quantity: 1})
	require.ErrorIs(t, err, errors.ErrUnexpectedStatus)
	require.ErrorContains(t, c.Err(), "Failed to add item to cart")
}
