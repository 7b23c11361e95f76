// Package sealed encrypts local storage values at rest. Tokens and identity live in local storage, so a
// passphrase-derived key (scrypt) seals every value with NaCl secretbox before it reaches the inner store.
package sealed

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/jrsteele09/go-shop-client/storage"
)

// SaltKey holds the per-store random salt in the inner store
const SaltKey = "__sealed_salt"

const (
	keyLength   = 32
	nonceLength = 24
	saltLength  = 16
)

var errUnsealable = errors.New("value cannot be unsealed")

var _ storage.Store = (*Store)(nil)

// Store wraps another storage.Store, sealing values on Set and opening them on Get.
type Store struct {
	inner storage.Store
	key   [keyLength]byte
}

// New derives the sealing key from passphrase and the salt kept in inner, creating the salt on first use.
func New(inner storage.Store, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, errors.New("[sealed New] passphrase is required")
	}

	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	derived, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keyLength)
	if err != nil {
		return nil, fmt.Errorf("[sealed New] failed to derive key: %w", err)
	}

	s := &Store{inner: inner}
	copy(s.key[:], derived)
	return s, nil
}

// Get returns the opened value. Values that fail to open (wrong passphrase, tampering) read as absent.
func (s *Store) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	plain, err := s.open(raw)
	if err != nil {
		return "", false, nil
	}
	return plain, true, nil
}

func (s *Store) Set(key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("[sealed Set] %s: %w", key, err)
	}
	return s.inner.Set(key, sealed)
}

func (s *Store) Remove(key string) error {
	return s.inner.Remove(key)
}

func (s *Store) seal(plain string) (string, error) {
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.RawStdEncoding.EncodeToString(box), nil
}

func (s *Store) open(encoded string) (string, error) {
	box, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil || len(box) < nonceLength+secretbox.Overhead {
		return "", errUnsealable
	}
	var nonce [nonceLength]byte
	copy(nonce[:], box[:nonceLength])
	plain, ok := secretbox.Open(nil, box[nonceLength:], &nonce, &s.key)
	if !ok {
		return "", errUnsealable
	}
	return string(plain), nil
}

func loadOrCreateSalt(inner storage.Store) ([]byte, error) {
	encoded, ok, err := inner.Get(SaltKey)
	if err != nil {
		return nil, fmt.Errorf("[sealed New] failed to read salt: %w", err)
	}
	if ok {
		if salt, err := base64.RawStdEncoding.DecodeString(encoded); err == nil && len(salt) == saltLength {
			return salt, nil
		}
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("[sealed New] failed to generate salt: %w", err)
	}
	if err := inner.Set(SaltKey, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("[sealed New] failed to store salt: %w", err)
	}
	return salt, nil
}
