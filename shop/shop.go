// Package shop wires the session, the authenticated transport and the synchronised collections together.
package shop

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-shop-client/cart"
	"github.com/jrsteele09/go-shop-client/favorites"
	"github.com/jrsteele09/go-shop-client/fetch"
	"github.com/jrsteele09/go-shop-client/internal/config"
	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/internal/logging"
	"github.com/jrsteele09/go-shop-client/keepalive"
	"github.com/jrsteele09/go-shop-client/passkey"
	"github.com/jrsteele09/go-shop-client/sessions"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/token/refresh"
	"github.com/jrsteele09/go-shop-client/users"
)

// DevLoginPath is the development backend's password-less login
const DevLoginPath = "/auth/dev-login"

// Deps are the collaborators and settings an App is built from
type Deps struct {
	BaseURL        string
	HTTPClient     *http.Client
	Store          storage.Store
	Navigator      sessions.Navigator
	LoginPath      string
	RequestTimeout time.Duration
	RefreshTimeout time.Duration

	// KeepAliveSchedule enables proactive renewal when not empty
	KeepAliveSchedule string
	KeepAliveMargin   time.Duration

	Logger zerolog.Logger
}

// DepsFromConfig fills Deps from c. store and nav are supplied by the caller.
func DepsFromConfig(c config.Config, store storage.Store, nav sessions.Navigator, logger zerolog.Logger) Deps {
	d := Deps{
		BaseURL:        c.GetAPIBaseURL(),
		Store:          store,
		Navigator:      nav,
		LoginPath:      c.GetLoginPath(),
		RequestTimeout: c.GetRequestTimeout(),
		RefreshTimeout: c.GetRefreshTimeout(),
		Logger:         logger,
	}
	if c.GetKeepAliveEnabled() {
		d.KeepAliveSchedule = c.GetKeepAliveSchedule()
		d.KeepAliveMargin = c.GetKeepAliveMargin()
	}
	return d
}

// App is the client-side state of one shop user
type App struct {
	session   *sessions.Service
	renewer   refresh.Renewer
	client    *fetch.Client
	cart      *cart.Cart
	favorites *favorites.Favorites
	users     *users.Directory
	passkeys  *passkey.Client
	keepAlive *keepalive.Scheduler
	logger    zerolog.Logger

	unsubscribe func()
}

func New(d Deps) (*App, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("[shop New] storage is required")
	}
	if d.BaseURL == "" {
		return nil, fmt.Errorf("[shop New] base URL is required")
	}
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
	if d.LoginPath == "" {
		d.LoginPath = "/login"
	}

	a := &App{logger: logging.Component(d.Logger, "shop")}
	a.session = sessions.New(d.Store, d.Navigator, d.LoginPath, logging.Component(d.Logger, "session"))
	a.renewer = refresh.NewClient(d.BaseURL, d.HTTPClient, d.RefreshTimeout, logging.Component(d.Logger, "refresh"))
	a.client = fetch.New(d.BaseURL, d.HTTPClient, a.session, a.renewer, d.RequestTimeout, logging.Component(d.Logger, "fetch"))
	a.cart = cart.New(d.Store, cart.NewAPI(a.client, d.Logger), logging.Component(d.Logger, "cart"))
	a.favorites = favorites.New(d.Store, favorites.NewAPI(a.client, d.Logger), logging.Component(d.Logger, "favorites"))
	a.users = users.NewDirectory(a.client, logging.Component(d.Logger, "users"))

	// The ceremony keeps state in a cookie, so only a client with a jar can be shared.
	var ceremonyClient *http.Client
	if d.HTTPClient.Jar != nil {
		ceremonyClient = d.HTTPClient
	}
	a.passkeys = passkey.NewClient(d.BaseURL, ceremonyClient, d.RequestTimeout, logging.Component(d.Logger, "passkey"))

	if d.KeepAliveSchedule != "" {
		a.keepAlive = keepalive.New(a.session, a.client, d.KeepAliveSchedule, d.KeepAliveMargin, logging.Component(d.Logger, "keepalive"))
	}

	a.unsubscribe = a.session.Subscribe(func(authenticated bool) {
		if !authenticated {
			a.cart.Deauthenticate()
			a.favorites.Deauthenticate()
		}
	})
	return a, nil
}

// Start restores the persisted session, renewing it when only the access token has lapsed, then loads the
// collections from wherever they currently live. A session that cannot be resumed is cleared quietly.
func (a *App) Start(ctx context.Context) error {
	a.session.Hydrate()

	if a.session.CanResume() {
		if err := a.resume(ctx); err != nil {
			a.logger.Info().Err(err).Msg("persisted session could not be resumed")
			a.session.Clear()
		}
	}

	if a.keepAlive != nil {
		if err := a.keepAlive.Start(ctx); err != nil {
			return fmt.Errorf("[shop Start] %w", err)
		}
	}

	if !a.session.IsAuthenticated() {
		return nil
	}
	return a.syncCollections(ctx)
}

// Stop halts background renewal
func (a *App) Stop() {
	if a.keepAlive != nil {
		a.keepAlive.Stop()
	}
}

// Login installs the tokens of a completed login and merges the anonymous collections into the account
func (a *App) Login(ctx context.Context, result *passkey.LoginResult) error {
	if result == nil {
		return fmt.Errorf("[shop Login] no login result: %w", errors.ErrInvalidToken)
	}
	if err := a.session.Login(result.AccessToken, result.RefreshToken, result.User); err != nil {
		return fmt.Errorf("[shop Login] %w", err)
	}

	// a previous account's server data must not survive a direct switch of user
	a.cart.Deauthenticate()
	a.favorites.Deauthenticate()
	return a.syncCollections(ctx)
}

// LoginWithPasskey runs the passkey ceremony for email and then logs in
func (a *App) LoginWithPasskey(ctx context.Context, email string, authn passkey.Authenticator) error {
	result, err := a.passkeys.Login(ctx, email, authn)
	if err != nil {
		return err
	}
	return a.Login(ctx, result)
}

// DevLogin logs in through the development backend, which trusts the email alone
func (a *App) DevLogin(ctx context.Context, email string) error {
	req, err := fetch.NewJSONRequest(http.MethodPost, DevLoginPath, map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("[shop DevLogin] %w", err)
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("[shop DevLogin] %w", err)
	}
	if err := fetch.CheckStatus(resp, http.MethodPost, DevLoginPath); err != nil {
		return err
	}
	var result passkey.LoginResult
	if err := resp.DecodeJSON(&result); err != nil {
		return fmt.Errorf("[shop DevLogin] %w", err)
	}
	if !result.Success {
		return fmt.Errorf("[shop DevLogin] login rejected: %w", errors.ErrNotAuthenticated)
	}
	return a.Login(ctx, &result)
}

// Logout ends the session. The collections fall back to local storage through the session listener.
func (a *App) Logout() {
	a.session.Logout()
}

// Sync reloads both collections from their current backing store
func (a *App) Sync(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.cart.Refresh(ctx) })
	g.Go(func() error { return a.favorites.Refresh(ctx) })
	return g.Wait()
}

// Close detaches the collections from the session and stops background renewal
func (a *App) Close() {
	a.Stop()
	a.unsubscribe()
}

func (a *App) Session() *sessions.Service { return a.session }
func (a *App) Client() *fetch.Client { return a.client }
func (a *App) Cart() *cart.Cart { return a.cart }
func (a *App) Favorites() *favorites.Favorites { return a.favorites }
func (a *App) Users() *users.Directory { return a.users }
func (a *App) Passkeys() *passkey.Client { return a.passkeys }

// KeepAlive returns the renewal scheduler, or nil when disabled
func (a *App) KeepAlive() *keepalive.Scheduler { return a.keepAlive }

func (a *App) resume(ctx context.Context) error {
	t, err := a.renewer.Renew(ctx, a.session.RefreshToken())
	if err != nil {
		return err
	}
	if err := a.session.UpdateTokens(t); err != nil {
		return err
	}
	a.logger.Info().Msg("session resumed")
	return nil
}

// syncCollections merges both collections independently. Both always run to completion.
func (a *App) syncCollections(ctx context.Context) error {
	var cartErr, favErr error
	var g errgroup.Group
	g.Go(func() error {
		cartErr = a.cart.Authenticate(ctx)
		return nil
	})
	g.Go(func() error {
		favErr = a.favorites.Authenticate(ctx)
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(cartErr, favErr); err != nil {
		return fmt.Errorf("[shop syncCollections] %w", err)
	}
	return nil
}
