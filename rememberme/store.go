// Package rememberme turns credentials into an encrypted cookie value and
// back, so that a returning visitor can be logged in again without a session.
package rememberme

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/codec"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"io"
	"net/http"
	"time"
)

const (
	keySize = chacha20poly1305.KeySize

	hkdfInfo = "bridge rememberme v1"
)

var encoding = base64.RawURLEncoding.Strict()

type (
	// Option can be used to customize a Store
	Option func(*Store)

	// Store seals credentials with a key loaded once, it is safe for
	// concurrent use
	Store struct {
		aead     cipher.AEAD
		codec    codec.Codec
		maxAge   time.Duration
		insecure bool
	}

	payload struct {
		Username string `json:"u"`
		Password string `json:"p"`
		IssuedAt int64  `json:"iat"`
	}
)

// WithMaxAge bounds how long an issued token stays valid
func WithMaxAge(maxAge time.Duration) Option {
	return func(s *Store) {
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

// WithInsecureCookie permits the cookie over plain HTTP
func WithInsecureCookie() Option {
	return func(s *Store) {
		s.insecure = true
	}
}

// NewStore loads the key kept in keyDir, creating it if needed. The
// error wraps ErrKeyMaterial when no usable key could be obtained.
func NewStore(keyDir string, opts ...Option) (*Store, error) {
	key, err := LoadOrCreateKey(keyDir)
	if err != nil {
		return nil, err
	}

	return NewStoreWithKey(key, opts...)
}

// NewStoreWithKey builds a store around an already loaded master key
func NewStoreWithKey(key []byte, opts ...Option) (*Store, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrKeyMaterial, keySize)
	}

	derived := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(hkdfInfo)), derived); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	s := &Store{aead: aead, codec: codec.Strict, maxAge: DefaultMaxAge}
	for _, f := range opts {
		f(s)
	}

	return s, nil
}

// MaxAge is the validity window of issued tokens
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Issue encrypts the credentials into a cookie-safe token
func (s *Store) Issue(creds authc.Credentials) (string, error) {
	plaintext, err := s.codec.Encode(payload{
		Username: creds.Username(),
		Password: creds.Password(),
		IssuedAt: nowFunc().Unix(),
	})
	if err != nil {
		return "", err
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err = rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(CookieName))
	return encoding.EncodeToString(sealed), nil
}

// Recover decrypts a token produced by Issue. Malformed, tampered or
// expired tokens all yield false.
func (s *Store) Recover(value string) (authc.Credentials, bool) {
	sealed, err := encoding.DecodeString(value)
	if err != nil {
		return authc.Credentials{}, false
	}

	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return authc.Credentials{}, false
	}

	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(CookieName))
	if err != nil {
		return authc.Credentials{}, false
	}

	var p payload
	if err = s.codec.Decode(string(plaintext), &p); err != nil {
		return authc.Credentials{}, false
	}

	if len(p.Username) == 0 || len(p.Password) == 0 {
		return authc.Credentials{}, false
	}

	if s.maxAge > 0 && nowFunc().Sub(time.Unix(p.IssuedAt, 0)) > s.maxAge {
		return authc.Credentials{}, false
	}

	return authc.NewCredentials(p.Username, p.Password), true
}

//=====================================
//		   Cookies
//=====================================

// Cookie finds the persistent login cookie among the request cookies
func Cookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c != nil && c.Name == CookieName {
			return c
		}
	}
	return nil
}

// NewCookie issues a token for creds and wraps it in a cookie
func (s *Store) NewCookie(creds authc.Credentials) (*http.Cookie, error) {
	value, err := s.Issue(creds)
	if err != nil {
		return nil, err
	}

	return s.cookie(value, int(s.maxAge/time.Second)), nil
}

// ClearCookie tells the browser to drop the persistent login cookie
func (s *Store) ClearCookie() *http.Cookie {
	return s.cookie("", -1)
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !s.insecure,
		SameSite: http.SameSiteLaxMode,
	}
}
