package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "sekreterlik"

var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieManager binds a browser to a session id through a signed cookie.
// The cookie value is an HS256 token whose subject is the session id.
type CookieManager struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewCookieManager(name, secret string, ttl time.Duration, secure bool) *CookieManager {
	return &CookieManager{
		name:   name,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

func (m *CookieManager) Name() string {
	return m.name
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// Issue writes a cookie binding the response's browser to id.
func (m *CookieManager) Issue(w http.ResponseWriter, id string) error {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the session id carried by the request. A missing, tampered or
// expired cookie yields ErrInvalidCookie.
func (m *CookieManager) Read(r *http.Request) (string, error) {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return "", ErrInvalidCookie
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(c.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidCookie
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}

// Clear expires the cookie in the browser.
func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
