// Package signedcookie signs cookie values so the server can trust them when
// they come back. Secrets rotate: the newest secret signs, every secret is
// accepted for reading.
package signedcookie

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sjc5/dispatch/pkg/cryptoutil"
)

const SecretSize = cryptoutil.KeySize

var (
	ErrNoSecrets      = errors.New("at least one secret is required")
	ErrCookieNotFound = errors.New("cookie not found")
	ErrInvalidCookie  = errors.New("cookie not valid")
)

// Secrets is a latest-first list of 32-byte, base64-encoded secrets.
type Secrets []string

type Manager struct {
	secrets [][SecretSize]byte
}

func NewManager(secrets Secrets) (*Manager, error) {
	if len(secrets) < 1 {
		return nil, ErrNoSecrets
	}
	keys := make([][SecretSize]byte, len(secrets))
	for i, secret := range secrets {
		b, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("error decoding secret %d: %w", i, err)
		}
		if len(b) != SecretSize {
			return nil, fmt.Errorf("secret %d is not %d bytes", i, SecretSize)
		}
		copy(keys[i][:], b)
	}
	return &Manager{secrets: keys}, nil
}

func (m *Manager) signValue(rawValue string) (string, error) {
	signed, err := cryptoutil.SignSymmetric([]byte(rawValue), &m.secrets[0])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signed), nil
}

func (m *Manager) verifyAndReadValue(signedValue string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(signedValue)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	msg, _, err := cryptoutil.VerifyAndReadWithAnyKey(b, m.secrets)
	if err != nil {
		return "", ErrInvalidCookie
	}
	return string(msg), nil
}

func (m *Manager) VerifyAndReadCookieValue(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", ErrCookieNotFound
	}
	return m.verifyAndReadValue(cookie.Value)
}

// NewSignedCookie returns a copy of unsignedCookie with its value signed.
func (m *Manager) NewSignedCookie(unsignedCookie *http.Cookie) (*http.Cookie, error) {
	signed, err := m.signValue(unsignedCookie.Value)
	if err != nil {
		return nil, err
	}
	c := *unsignedCookie
	c.Value = signed
	return &c, nil
}

func (m *Manager) NewDeletionCookie(cookie *http.Cookie) *http.Cookie {
	c := *cookie
	c.Value = ""
	c.MaxAge = -1
	c.Expires = time.Time{}
	return &c
}

/////////////////////////////////////////////////////////////////////
/////// TYPED COOKIES
/////////////////////////////////////////////////////////////////////

// SignedCookie stores a gob-encoded T. BaseCookie supplies the name and the
// Path, Domain and SameSite attributes. Cookies are always Secure and
// HttpOnly.
type SignedCookie[T any] struct {
	Manager    *Manager
	TTL        time.Duration
	BaseCookie *http.Cookie
}

// NewSignedCookie encodes and signs value. A non-nil overrideCookie replaces
// the Path, Domain and SameSite of the base cookie.
func (sc *SignedCookie[T]) NewSignedCookie(value *T, overrideCookie *http.Cookie) (*http.Cookie, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, fmt.Errorf("error encoding cookie value: %w", err)
	}
	signed, err := sc.Manager.signValue(buf.String())
	if err != nil {
		return nil, err
	}

	var expires *time.Time
	if sc.TTL > 0 {
		e := time.Now().Add(sc.TTL)
		expires = &e
	}
	attrs := sc.BaseCookie
	if overrideCookie != nil {
		attrs = overrideCookie
	}
	cookie := newSecureCookieWithoutValue(sc.BaseCookie.Name, expires, attrs)
	cookie.Value = signed
	return cookie, nil
}

func (sc *SignedCookie[T]) VerifyAndReadCookieValue(r *http.Request) (*T, error) {
	raw, err := sc.Manager.VerifyAndReadCookieValue(r, sc.BaseCookie.Name)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := gob.NewDecoder(bytes.NewReader([]byte(raw))).Decode(out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}
	return out, nil
}

func (sc *SignedCookie[T]) NewDeletionCookie() *http.Cookie {
	cookie := newSecureCookieWithoutValue(sc.BaseCookie.Name, nil, sc.BaseCookie)
	cookie.MaxAge = -1
	return cookie
}

func newSecureCookieWithoutValue(name string, expires *time.Time, baseCookie *http.Cookie) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		HttpOnly: true,
		Secure:   true,
	}
	if expires != nil {
		cookie.Expires = *expires
	}
	if baseCookie != nil {
		cookie.Path = baseCookie.Path
		cookie.Domain = baseCookie.Domain
		cookie.SameSite = baseCookie.SameSite
	}
	return cookie
}
