// Package storage is the client's persistent key/value area, the equivalent of browser local storage.
// Values are plain strings; structured values are stored as JSON.
package storage

import (
	"encoding/json"
	"fmt"
)

// Keys used by the client
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyCart         = "cart"
	KeyFavorites    = "favorites"
)

// Store persists string values by key. A missing key is reported with ok == false, not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// GetJSON decodes the value at key into v. Missing, unreadable or corrupt values report false.
func GetJSON(s Store, key string, v any) bool {
	raw, ok, err := s.Get(key)
	if err != nil || !ok || raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

// SetJSON encodes v and stores it at key
func SetJSON(s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("[storage SetJSON] failed to encode %s: %w", key, err)
	}
	return s.Set(key, string(b))
}

// GetString returns the value at key, or "" when it is missing or unreadable
func GetString(s Store, key string) string {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return ""
	}
	return v
}

// RemoveAll removes every key, returning the first failure after attempting them all
func RemoveAll(s Store, keys ...string) error {
	var firstErr error
	for _, k := range keys {
		if err := s.Remove(k); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("[storage RemoveAll] failed to remove %s: %w", k, err)
		}
	}
	return firstErr
}
