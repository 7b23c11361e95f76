// Package syncstore presents a collection that lives in local storage while the user is anonymous and on the
// server once they are authenticated, merging the local items into the server collection once per login.
package syncstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-shop-client/internal/errors"
)

// State of a store
type State int

const (
	Anonymous State = iota
	Merging
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Merging:
		return "merging"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Store is one collection. Items are identified across backing stores by Key, the product id for both the
// cart and favorites.
type Store[T any, K comparable] struct {
	name   string
	local  Local[T]
	remote Remote[T]
	key    func(T) K
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	items      []T
	err        error
	loading    bool
	generation uint64
	merged     chan struct{}
}

// New creates an anonymous store populated from local storage
func New[T any, K comparable](name string, local Local[T], remote Remote[T], key func(T) K, logger zerolog.Logger) *Store[T, K] {
	s := &Store[T, K]{
		name:   name,
		local:  local,
		remote: remote,
		key:    key,
		logger: logger.With().Str("collection", name).Logger(),
	}
	s.items, s.err = s.loadLocal()
	return s
}

// Items returns a copy of the current items
func (s *Store[T, K]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// State returns the current backing mode
func (s *Store[T, K]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed operation, cleared by the next successful one
func (s *Store[T, K]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loading reports whether a remote operation is in flight
func (s *Store[T, K]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Authenticate switches the store to the server collection. Local items whose key is not already on the server
// are created there, then the server collection becomes the store's contents. Local storage is cleared only when
// every creation succeeded; items that failed stay local for the next login and errors.ErrMergeIncomplete is
// returned. Calling Authenticate on a store that is already merging waits for that merge; on an authenticated
// store it does nothing.
func (s *Store[T, K]) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Authenticated:
		s.mu.Unlock()
		return nil
	case Merging:
		done := s.merged
		s.mu.Unlock()
		return s.wait(ctx, done)
	}
	s.state = Merging
	s.loading = true
	s.generation++
	gen := s.generation
	done := make(chan struct{})
	s.merged = done
	s.mu.Unlock()

	defer close(done)

	mergeErr := s.merge(ctx, gen)
	items, listErr := s.remote.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug().Msg("discarding merge result after logout")
		return nil
	}
	s.state = Authenticated
	s.loading = false
	if listErr == nil {
		s.items = items
	}
	s.err = errors.Join(mergeErr, wrapList(listErr))
	return s.err
}

// merge creates the local items missing from the server collection. Local storage is only rewritten while gen is
// current; after a logout it belongs to the anonymous user again.
func (s *Store[T, K]) merge(ctx context.Context, gen uint64) error {
	pending, err := s.local.Load()
	if err != nil {
		return fmt.Errorf("[syncstore merge] %s: %w", s.name, err)
	}
	if len(pending) == 0 {
		return nil
	}

	remoteItems, err := s.remote.List(ctx)
	if err != nil {
		// Without the server collection the missing items cannot be told apart; keep everything local.
		return fmt.Errorf("[syncstore merge] %s: failed to list remote items: %v: %w", s.name, err, errors.ErrMergeIncomplete)
	}

	if s.stale(gen) {
		return nil
	}

	present := make(map[K]struct{}, len(remoteItems))
	for _, item := range remoteItems {
		present[s.key(item)] = struct{}{}
	}

	var failed []T
	var createErrs []error
	created := 0
	for _, item := range pending {
		k := s.key(item)
		if _, ok := present[k]; ok {
			continue
		}
		present[k] = struct{}{}

		if err := s.remote.Create(ctx, item); err != nil {
			s.logger.Warn().Err(err).Interface("key", k).Msg("failed to merge item")
			failed = append(failed, item)
			createErrs = append(createErrs, err)
			continue
		}
		created++
	}

	s.logger.Info().Int("local", len(pending)).Int("created", created).Int("failed", len(failed)).Msg("merged local items")

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug().Msg("logged out during merge, local items left in place")
		return nil
	}
	if len(failed) == 0 {
		err := s.local.Clear()
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("[syncstore merge] %s: %w", s.name, err)
		}
		return nil
	}
	if err := s.local.Save(failed); err != nil {
		createErrs = append(createErrs, err)
	}
	s.mu.Unlock()

	return fmt.Errorf("[syncstore merge] %s: %d of %d items not merged: %w: %w",
		s.name, len(failed), len(failed)+created, errors.ErrMergeIncomplete, errors.Join(createErrs...))
}

// Deauthenticate returns the store to local storage. Results of remote calls still in flight are discarded.
func (s *Store[T, K]) Deauthenticate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = Anonymous
	s.loading = false
	s.items, s.err = s.loadLocal()
}

// Refresh reloads the items from the current backing store
func (s *Store[T, K]) Refresh(ctx context.Context) error {
	gen, state, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if state == Anonymous {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.items, s.err = s.loadLocal()
		return s.err
	}
	return s.reload(ctx, gen)
}

// Apply performs a mutation against the current backing store. Anonymous stores run local on a copy of the items
// and persist the result; authenticated stores run remote and then reload the server collection. Writes issued
// during a merge wait for it to finish.
func (s *Store[T, K]) Apply(ctx context.Context, local func(items []T) ([]T, error), remote func(ctx context.Context) error) error {
	gen, state, err := s.begin(ctx)
	if err != nil {
		return err
	}

	if state == Anonymous {
		s.mu.Lock()
		if s.generation != gen {
			// Logged in since begin; run against the new state.
			s.mu.Unlock()
			return s.Apply(ctx, local, remote)
		}
		defer s.mu.Unlock()
		next, err := local(slices.Clone(s.items))
		if err != nil {
			s.err = err
			return err
		}
		if err := s.local.Save(next); err != nil {
			s.err = err
			return err
		}
		s.items = next
		s.err = nil
		return nil
	}

	s.setLoading(gen, true)
	if err := remote(ctx); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation == gen {
			s.loading = false
			s.err = err
		}
		return err
	}
	return s.reload(ctx, gen)
}

// begin waits for a running merge and returns the generation and state the operation runs under
func (s *Store[T, K]) begin(ctx context.Context) (uint64, State, error) {
	for {
		s.mu.Lock()
		if s.state != Merging {
			gen, state := s.generation, s.state
			s.mu.Unlock()
			return gen, state, nil
		}
		done := s.merged
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return 0, Anonymous, ctx.Err()
		}
	}
}

// wait blocks until the merge signalled by done finishes and returns its outcome
func (s *Store[T, K]) wait(ctx context.Context, done chan struct{}) error {
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Err()
}

func (s *Store[T, K]) reload(ctx context.Context, gen uint64) error {
	s.setLoading(gen, true)
	items, err := s.remote.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = wrapList(err)
		return s.err
	}
	s.items = items
	s.err = nil
	return nil
}

func (s *Store[T, K]) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

func (s *Store[T, K]) setLoading(gen uint64, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.loading = loading
	}
}

func (s *Store[T, K]) loadLocal() ([]T, error) {
	items, err := s.local.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load local items")
		return nil, err
	}
	return items, nil
}

func wrapList(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[syncstore List] %w", err)
}
