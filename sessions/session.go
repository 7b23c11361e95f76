// Package sessions owns who is logged in and which bearer token to present.
//
// The access token, refresh token and identity are persisted in local storage and mirrored in memory.
// The in-memory identity and access token are always both set or both empty.
package sessions

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-shop-client/internal/errors"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/token"
	"github.com/jrsteele09/go-shop-client/users"
)

// Listener is told about every change of the authenticated state
type Listener func(authenticated bool)

// Service is the single source of truth for the current identity and tokens
type Service struct {
	store     storage.Store
	nav       Navigator
	loginPath string
	logger    zerolog.Logger

	mu        sync.RWMutex
	hydrated  bool
	identity  *users.Identity
	token     *oauth2.Token
	listeners map[int]Listener
	nextID    int
}

// New creates a session service. Nothing is read from storage until Hydrate.
func New(store storage.Store, nav Navigator, loginPath string, logger zerolog.Logger) *Service {
	if nav == nil {
		nav = NopNavigator{}
	}
	return &Service{
		store:     store,
		nav:       nav,
		loginPath: loginPath,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Hydrate restores the persisted session when its access token has not expired. An expired access token is
// dropped while the identity and refresh token stay persisted for a later renewal. Corrupt state clears
// the whole session. Hydrate never fails.
func (s *Service) Hydrate() {
	s.mu.Lock()
	was := s.authenticatedLocked()
	s.hydrateLocked()
	now := s.authenticatedLocked()
	s.mu.Unlock()

	s.notifyIfChanged(was, now)
}

func (s *Service) hydrateLocked() {
	defer func() { s.hydrated = true }()

	access := storage.GetString(s.store, storage.KeyAccessToken)
	rawUser := storage.GetString(s.store, storage.KeyUser)
	if access == "" || rawUser == "" {
		return
	}

	var identity users.Identity
	if !storage.GetJSON(s.store, storage.KeyUser, &identity) || !identity.Valid() {
		s.logger.Warn().Msg("persisted identity is corrupt, clearing session")
		s.clearLocked()
		return
	}

	live, err := token.IsLive(access)
	if err != nil {
		s.logger.Warn().Err(err).Msg("persisted access token is corrupt, clearing session")
		s.clearLocked()
		return
	}

	if !live {
		s.logger.Debug().Msg("persisted access token expired, keeping refresh token for renewal")
		if err := s.store.Remove(storage.KeyAccessToken); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drop expired access token")
		}
		return
	}

	s.identity = &identity
	s.token = token.NewToken(access, storage.GetString(s.store, storage.KeyRefreshToken))
}

// Login stores the result of a successful login ceremony. The backend's admin flag is normalised onto the
// identity. On a storage failure nothing changes and the error is returned.
func (s *Service) Login(accessToken, refreshToken string, user users.Record) error {
	if accessToken == "" {
		return fmt.Errorf("[sessions Login] empty access token: %w", errors.ErrInvalidToken)
	}
	identity := users.Normalize(user)

	if err := s.store.Set(storage.KeyAccessToken, accessToken); err != nil {
		return fmt.Errorf("[sessions Login] failed to persist access token: %w", err)
	}
	if err := s.store.Set(storage.KeyRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("[sessions Login] failed to persist refresh token: %w", err)
	}
	if err := storage.SetJSON(s.store, storage.KeyUser, identity); err != nil {
		return fmt.Errorf("[sessions Login] failed to persist identity: %w", err)
	}

	s.mu.Lock()
	s.identity = &identity
	s.token = token.NewToken(accessToken, refreshToken)
	s.hydrated = true
	s.mu.Unlock()

	s.logger.Info().Int64("user_id", identity.ID).Msg("logged in")
	s.notify(true)
	return nil
}

// UpdateTokens persists a renewed token pair. When the session was anonymous but a persisted identity is
// still available (expired access token at hydration), the session becomes authenticated again. A pair arriving
// after logout, with no identity left, is refused and nothing is written.
func (s *Service) UpdateTokens(t *oauth2.Token) error {
	if t == nil || t.AccessToken == "" || t.RefreshToken == "" {
		return fmt.Errorf("[sessions UpdateTokens] incomplete token pair: %w", errors.ErrInvalidToken)
	}

	s.mu.Lock()
	was := s.authenticatedLocked()
	identity := s.identity
	if identity == nil {
		var persisted users.Identity
		if storage.GetJSON(s.store, storage.KeyUser, &persisted) && persisted.Valid() {
			identity = &persisted
		}
	}
	if identity == nil {
		s.mu.Unlock()
		return fmt.Errorf("[sessions UpdateTokens] no session to renew: %w", errors.ErrNotAuthenticated)
	}

	if err := s.store.Set(storage.KeyAccessToken, t.AccessToken); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("[sessions UpdateTokens] failed to persist access token: %w", err)
	}
	if err := s.store.Set(storage.KeyRefreshToken, t.RefreshToken); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("[sessions UpdateTokens] failed to persist refresh token: %w", err)
	}

	s.identity = identity
	s.token = t
	s.hydrated = true
	now := s.authenticatedLocked()
	s.mu.Unlock()

	s.notifyIfChanged(was, now)
	return nil
}

// Logout clears the session and navigates to the login entry point. It is idempotent.
func (s *Service) Logout() {
	s.endSession("logged out")
}

// Expire ends the session after a failed renewal. The effect is the same as Logout.
func (s *Service) Expire() {
	s.endSession("session expired")
}

// Clear removes every persisted and in-memory trace of the session without navigating.
func (s *Service) Clear() {
	s.mu.Lock()
	was := s.authenticatedLocked()
	s.clearLocked()
	s.mu.Unlock()

	s.notifyIfChanged(was, false)
}

func (s *Service) endSession(reason string) {
	s.Clear()
	s.logger.Info().Msg(reason)
	s.nav.Navigate(s.loginPath)
}

func (s *Service) clearLocked() {
	if err := storage.RemoveAll(s.store, storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted session")
	}
	s.identity = nil
	s.token = nil
}

// IsAuthenticated is true once hydration has completed and both identity and access token are present
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedLocked()
}

func (s *Service) authenticatedLocked() bool {
	return s.hydrated && s.identity != nil && s.token != nil && s.token.AccessToken != ""
}

// IsHydrated reports whether Hydrate (or a Login) has run. Callers must not branch on identity before it.
func (s *Service) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Identity returns the signed-in user
func (s *Service) Identity() (users.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return users.Identity{}, false
	}
	return *s.identity, true
}

// IsAdmin reports whether the signed-in user is an administrator
func (s *Service) IsAdmin() bool {
	id, ok := s.Identity()
	return ok && id.IsAdmin
}

// AccessToken returns the bearer token to present, or "" when anonymous
func (s *Service) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// RefreshToken returns the refresh token. It survives an expired access token, so it is read from storage
// when the session is anonymous.
func (s *Service) RefreshToken() string {
	s.mu.RLock()
	t := s.token
	s.mu.RUnlock()
	if t != nil && t.RefreshToken != "" {
		return t.RefreshToken
	}
	return storage.GetString(s.store, storage.KeyRefreshToken)
}

// CanResume reports whether an anonymous session still holds a refresh token and identity worth renewing
func (s *Service) CanResume() bool {
	if s.IsAuthenticated() {
		return false
	}
	var identity users.Identity
	return s.RefreshToken() != "" && storage.GetJSON(s.store, storage.KeyUser, &identity) && identity.Valid()
}

// Token returns a copy of the current token pair
func (s *Service) Token() (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, false
	}
	t := *s.token
	return &t, true
}

// Subscribe registers l for authenticated-state changes and returns a function removing it
func (s *Service) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notifyIfChanged(was, now bool) {
	if was != now {
		s.notify(now)
	}
}

func (s *Service) notify(authenticated bool) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(authenticated)
	}
}
