package favorites_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-client/favorites"
	"github.com/jrsteele09/go-shop-client/fetch"
	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/storage/storefake"
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

type favoritesBackend struct {
	mu    sync.Mutex
	ids   []int64
	posts int
}

func (b *favoritesBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string][]int64{"favorites": b.ids})
	case http.MethodPost:
		b.posts++
		body, _ := io.ReadAll(r.Body)
		var req struct {
			ProductID int64 `json:"product_id"`
		}
		_ = json.Unmarshal(body, &req)
		if !slices.Contains(b.ids, req.ProductID) {
			b.ids = append(b.ids, req.ProductID)
		}
	case http.MethodDelete:
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, favorites.Path+"/"), 10, 64)
		b.ids = slices.DeleteFunc(b.ids, func(v int64) bool { return v == id })
	}
}

type testFixture struct {
	storage   *storefake.FakeStore
	backend   *favoritesBackend
	favorites *favorites.Favorites
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{storage: storefake.NewFakeStore(), backend: &favoritesBackend{}}
	srv := httptest.NewServer(f.backend)
	t.Cleanup(srv.Close)

	client := fetch.New(srv.URL, srv.Client(), staticSession{}, refresh.RenewerFunc(nil), time.Second, zerolog.Nop())
	f.favorites = favorites.New(f.storage, favorites.NewAPI(client, zerolog.Nop()), zerolog.Nop())
	return f
}

func TestAnonymousToggle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	on, err := f.favorites.Toggle(ctx, 5)
	require.NoError(t, err)
	require.True(t, on)
	require.True(t, f.favorites.IsFavorite(5))

	require.NoError(t, f.favorites.Add(ctx, 5))
	require.Equal(t, []int64{5}, f.favorites.Items())

	var persisted []int64
	require.True(t, storage.GetJSON(f.storage, storage.KeyFavorites, &persisted))
	require.Equal(t, []int64{5}, persisted)

	on, err = f.favorites.Toggle(ctx, 5)
	require.NoError(t, err)
	require.False(t, on)
	require.Empty(t, f.favorites.Items())
	require.False(t, f.storage.Has(storage.KeyFavorites))
	require.Zero(t, f.backend.posts)
}

func TestInvalidProductID(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.favorites.Add(context.Background(), 0), errors.ErrInvalidItem)
	require.ErrorIs(t, f.favorites.Remove(context.Background(), -3), errors.ErrInvalidItem)
}

func TestMergeSkipsExistingFavorites(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.backend.ids = []int64{2}

	require.NoError(t, f.favorites.Add(ctx, 1))
	require.NoError(t, f.favorites.Add(ctx, 2))
	require.NoError(t, f.favorites.Authenticate(ctx))

	require.Equal(t, 1, f.backend.posts)
	require.ElementsMatch(t, []int64{1, 2}, f.favorites.Items())
	require.False(t, f.storage.Has(storage.KeyFavorites))

	require.NoError(t, f.favorites.Authenticate(ctx))
	require.Equal(t, 1, f.backend.posts)
}

func TestAuthenticatedToggle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.favorites.Authenticate(ctx))

	on, err := f.favorites.Toggle(ctx, 8)
	require.NoError(t, err)
	require.True(t, on)
	require.Equal(t, []int64{8}, f.backend.ids)
	require.True(t, f.favorites.IsFavorite(8))

	on, err = f.favorites.Toggle(ctx, 8)
	require.NoError(t, err)
	require.False(t, on)
	require.Empty(t, f.backend.ids)
	require.Empty(t, f.favorites.Items())
}

func TestCorruptLocalFavorites(t *testing.T) {
	s := storefake.NewFakeStore()
	require.NoError(t, s.Set(storage.KeyFavorites, `[3,"x",-1,4.5,7]`))

	favs := favorites.New(s, favorites.NewAPI(nil, zerolog.Nop()), zerolog.Nop())
	require.Equal(t, []int64{3, 7}, favs.Items())

	require.NoError(t, s.Set(storage.KeyFavorites, `oops`))
	require.NoError(t, favs.Refresh(context.Background()))
	require.Empty(t, favs.Items())
}
