package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealedPrefix = "sealed:v2:"
	saltSize     = 16
)

// Argon2id cost: 2 passes over 19 MiB.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
)

var ErrSealedValue = errors.New("sealed value cannot be opened")

// Sealed encrypts the values of selected keys before they reach the inner
// store. A sealed value is salt|nonce|ciphertext; its key comes from the
// passphrase and the salt through Argon2id. Values stored before sealing
// was enabled are returned unchanged.
type Sealed struct {
	inner      KV
	passphrase []byte
	keys       map[string]struct{}

	mu    sync.Mutex
	salt  []byte
	aeads map[string]cipher.AEAD
}

func NewSealed(inner KV, passphrase string, keys ...string) (*Sealed, error) {
	if passphrase == "" {
		return nil, errors.New("empty storage passphrase")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &Sealed{
		inner:      inner,
		passphrase: []byte(passphrase),
		keys:       set,
		salt:       salt,
		aeads:      make(map[string]cipher.AEAD),
	}, nil
}

func (s *Sealed) sealed(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// aead returns the cipher for salt, deriving the key once per salt.
func (s *Sealed) aead(salt []byte) (cipher.AEAD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.aeads[string(salt)]; ok {
		return a, nil
	}
	key := argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	a, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	s.aeads[string(salt)] = a
	return a, nil
}

func (s *Sealed) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok || !s.sealed(key) || !strings.HasPrefix(v, "sealed:") {
		return v, ok, err
	}
	if !strings.HasPrefix(v, sealedPrefix) {
		return "", false, ErrSealedValue
	}

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(v, sealedPrefix))
	if err != nil || len(raw) < saltSize+chacha20poly1305.NonceSizeX {
		return "", false, ErrSealedValue
	}
	salt, rest := raw[:saltSize], raw[saltSize:]
	a, err := s.aead(salt)
	if err != nil {
		return "", false, err
	}
	nonce, ct := rest[:a.NonceSize()], rest[a.NonceSize():]
	plain, err := a.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return "", false, ErrSealedValue
	}
	return string(plain), true, nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	if !s.sealed(key) {
		return s.inner.Set(ctx, key, value)
	}

	a, err := s.aead(s.salt)
	if err != nil {
		return err
	}
	out := make([]byte, saltSize+a.NonceSize(), saltSize+a.NonceSize()+len(value)+a.Overhead())
	copy(out, s.salt)
	nonce := out[saltSize:]
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	out = a.Seal(out, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, sealedPrefix+base64.RawStdEncoding.EncodeToString(out))
}

func (s *Sealed) Remove(ctx context.Context, keys ...string) error {
	return s.inner.Remove(ctx, keys...)
}
