package syncstore

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-shop-client/storage"
)

var _ Local[int64] = (*JSONLocal[int64])(nil)

// JSONLocal keeps a collection as a JSON array under one storage key
type JSONLocal[T any] struct {
	store storage.Store
	key   string
	valid func(T) bool
}

// NewJSONLocal creates a local backing store. valid may be nil; entries it rejects are dropped on load.
func NewJSONLocal[T any](store storage.Store, key string, valid func(T) bool) *JSONLocal[T] {
	return &JSONLocal[T]{store: store, key: key, valid: valid}
}

func (l *JSONLocal[T]) Load() ([]T, error) {
	raw, ok, err := l.store.Get(l.key)
	if err != nil {
		return nil, fmt.Errorf("[syncstore Load] failed to read %s: %w", l.key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, nil
	}

	items := make([]T, 0, len(entries))
	for _, e := range entries {
		var item T
		if err := json.Unmarshal(e, &item); err != nil {
			continue
		}
		if l.valid != nil && !l.valid(item) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Save persists items; an empty collection removes the key
func (l *JSONLocal[T]) Save(items []T) error {
	if len(items) == 0 {
		return l.Clear()
	}
	if err := storage.SetJSON(l.store, l.key, items); err != nil {
		return fmt.Errorf("[syncstore Save] %w", err)
	}
	return nil
}

func (l *JSONLocal[T]) Clear() error {
	if err := l.store.Remove(l.key); err != nil {
		return fmt.Errorf("[syncstore Clear] failed to remove %s: %w", l.key, err)
	}
	return nil
}
