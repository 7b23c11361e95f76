package storefake

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-shop-client/storage"
)

var _ storage.Store = (*FakeStore)(nil)

// ErrInjected is returned by operations configured to fail
var ErrInjected = errors.New("injected storage failure")

// FakeStore is an in-memory storage.Store, also used as the "memory" storage backend
type FakeStore struct {
	values   map[string]string
	failSets map[string]bool
	lock     sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values:   make(map[string]string),
		failSets: make(map[string]bool),
	}
}

func (fs *FakeStore) Get(key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.failSets[key] {
		return ErrInjected
	}
	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Remove(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	delete(fs.values, key)
	return nil
}

// Has reports whether key is present
func (fs *FakeStore) Has(key string) bool {
	_, ok, _ := fs.Get(key)
	return ok
}

// FailSets makes every Set on key fail with ErrInjected
func (fs *FakeStore) FailSets(key string, fail bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.failSets[key] = fail
}
