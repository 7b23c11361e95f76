package devserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-shop-client/devserver"
	"github.com/jrsteele09/go-shop-client/passkey"
)

type testFixture struct {
	server *devserver.Server
	http   *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	srv, err := devserver.New(devserver.Options{
		Env:        "DEV",
		JWTSecret:  "test-secret",
		AdminEmail: devserver.DefaultAdminEmail,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	f := &testFixture{server: srv, http: httptest.NewServer(srv)}
	t.Cleanup(f.http.Close)
	return f
}

func (f *testFixture) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.http.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out["items"] = raw
	}
	return resp.StatusCode, out
}

func TestDevLoginIssuesTokens(t *testing.T) {
	f := setupTestFixture(t)

	status, body := f.call(t, http.MethodPost, devserver.RouteDevLogin, "", map[string]string{"email": "Ana@Example.com"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])
	user := body["user"].(map[string]any)
	require.Equal(t, "ana@example.com", user["email"])
	require.Equal(t, false, user["is_admin"])
}

func TestProtectedRoutesRequireAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	_, refresh, _, err := f.server.Login("ana@example.com")
	require.NoError(t, err)

	status, _ := f.call(t, http.MethodGet, devserver.RouteCart, "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodGet, devserver.RouteCart, refresh, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodGet, devserver.RouteProducts, "", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestRefreshRotatesPair(t *testing.T) {
	f := setupTestFixture(t)
	access, refresh, _, err := f.server.Login("ana@example.com")
	require.NoError(t, err)

	status, body := f.call(t, http.MethodPost, devserver.RouteRefreshToken, "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, status)
	require.NotEqual(t, access, body["access_token"])
	require.NotEqual(t, refresh, body["refresh_token"])

	status, _ = f.call(t, http.MethodGet, devserver.RouteCart, body["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.call(t, http.MethodPost, devserver.RouteRefreshToken, "", map[string]string{"refresh_token": access})
	require.Equal(t, http.StatusUnauthorized, status)

	f.server.FailRenewals(true)
	status, _ = f.call(t, http.MethodPost, devserver.RouteRefreshToken, "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	f := setupTestFixture(t)
	access, _, _, err := f.server.Login("ana@example.com")
	require.NoError(t, err)

	devserver.NowTimeFunc = func() time.Time { return time.Now().Add(time.Hour) }
	t.Cleanup(func() { devserver.NowTimeFunc = time.Now })

	status, _ := f.call(t, http.MethodGet, devserver.RouteCart, access, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestForceUnauthorizedCountsDown(t *testing.T) {
	f := setupTestFixture(t)
	access, _, _, err := f.server.Login("ana@example.com")
	require.NoError(t, err)

	f.server.ForceUnauthorized(1)
	status, _ := f.call(t, http.MethodGet, devserver.RouteCart, access, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	status, _ = f.call(t, http.MethodGet, devserver.RouteCart, access, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, f.server.Calls("GET "+devserver.RouteCart))
}

func TestCartLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	access, _, _, err := f.server.Login("ana@example.com")
	require.NoError(t, err)

	status, _ := f.call(t, http.MethodPost, devserver.RouteCartItems, access, map[string]any{"product_id": 3, "quantity": 2})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodPost, devserver.RouteCartItems, access, map[string]any{"product_id": 3, "quantity": 1})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodPost, devserver.RouteCartItems, access, map[string]any{"product_id": 99, "quantity": 1})
	require.Equal(t, http.StatusNotFound, status)
	status, _ = f.call(t, http.MethodPost, devserver.RouteCartItems, access, map[string]any{"product_id": 4, "quantity": 0})
	require.Equal(t, http.StatusBadRequest, status)

	_, body := f.call(t, http.MethodGet, devserver.RouteCart, access, nil)
	var items []devserver.CartItem
	require.NoError(t, json.Unmarshal(body["items"].(json.RawMessage), &items))
	require.Len(t, items, 1)
	require.Equal(t, int64(3), items[0].ProductID)
	require.Equal(t, 3, items[0].Quantity)
	require.Equal(t, "Model 03", items[0].ProductName)

	itemPath := fmt.Sprintf("%s/%d", devserver.RouteCartItems, items[0].ID)
	status, _ = f.call(t, http.MethodPut, itemPath, access, map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodDelete, itemPath, access, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodDelete, itemPath, access, nil)
	require.Equal(t, http.StatusNotFound, status)

	_, body = f.call(t, http.MethodGet, devserver.RouteCart, access, nil)
	require.JSONEq(t, "[]", string(body["items"].(json.RawMessage)))
}

func TestFailCreatesFor(t *testing.T) {
	f := setupTestFixture(t)
	access, _, _, err := f.server.Login("ana@example.com")
	require.NoError(t, err)

	f.server.FailCreatesFor(5, true)
	status, _ := f.call(t, http.MethodPost, devserver.RouteFavorites, access, map[string]any{"product_id": 5})
	require.Equal(t, http.StatusInternalServerError, status)
	status, _ = f.call(t, http.MethodPost, devserver.RouteFavorites, access, map[string]any{"product_id": 6})
	require.Equal(t, http.StatusOK, status)

	_, body := f.call(t, http.MethodGet, devserver.RouteFavorites, access, nil)
	require.Equal(t, []any{float64(6)}, body["favorites"])
}

func TestAdminRoutes(t *testing.T) {
	f := setupTestFixture(t)
	userAccess, _, user, err := f.server.Login("ana@example.com")
	require.NoError(t, err)
	adminAccess, _, admin, err := f.server.Login(devserver.DefaultAdminEmail)
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)

	status, _ := f.call(t, http.MethodGet, devserver.RouteAdminUsers, userAccess, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body := f.call(t, http.MethodGet, devserver.RouteAdminUsers, adminAccess, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["users"], 2)

	status, _ = f.call(t, http.MethodPut, fmt.Sprintf("/admin/users/%d", admin.ID), adminAccess, map[string]bool{"is_admin": false, "is_active": true})
	require.Equal(t, http.StatusForbidden, status)

	status, _ = f.call(t, http.MethodPut, fmt.Sprintf("/admin/users/%d", user.ID), adminAccess, map[string]bool{"is_admin": false, "is_active": false})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodGet, devserver.RouteCart, userAccess, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", user.ID), adminAccess, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", user.ID), adminAccess, nil)
	require.Equal(t, http.StatusNotFound, status)
}

type fakeAuthenticator struct {
	credentialID string
}

func (a fakeAuthenticator) CreateCredential(_ context.Context, publicKey json.RawMessage) (json.RawMessage, error) {
	return json.Marshal(map[string]string{"id": a.credentialID, "type": "public-key"})
}

func (a fakeAuthenticator) GetAssertion(_ context.Context, publicKey json.RawMessage) (json.RawMessage, error) {
	return json.Marshal(map[string]string{"id": a.credentialID, "type": "public-key"})
}

func TestPasskeyCeremonies(t *testing.T) {
	f := setupTestFixture(t)
	client := passkey.NewClient(f.http.URL, nil, time.Second, zerolog.Nop())
	ctx := context.Background()
	authn := fakeAuthenticator{credentialID: "cred-1"}

	_, err := client.Login(ctx, "ana@example.com", authn)
	require.Error(t, err)

	require.NoError(t, client.RequestVerificationCode(ctx, "ana@example.com", ""))
	code := f.server.VerificationCode("ana@example.com")
	require.Len(t, code, 6)

	_, err = client.Register(ctx, "ana@example.com", "not-the-code", authn)
	require.Error(t, err)

	require.NoError(t, client.RequestVerificationCode(ctx, "ana@example.com", ""))
	msg, err := client.Register(ctx, "ana@example.com", f.server.VerificationCode("ana@example.com"), authn)
	require.NoError(t, err)
	require.Equal(t, "Passkey registered", msg)

	result, err := client.Login(ctx, "ana@example.com", authn)
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.Equal(t, "ana@example.com", result.User.Email)

	_, err = client.Login(ctx, "ana@example.com", fakeAuthenticator{credentialID: "someone-else"})
	require.Error(t, err)
}
