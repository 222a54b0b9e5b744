package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles known to the storefront.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Identity is an authenticated user as reported by the hosted auth provider.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Provider is the identity capability consumed by the sync engine. Current
// returns nil when the session is anonymous.
type Provider interface {
	Current(ctx context.Context) (*Identity, error)
	OnChange(fn func(*Identity)) (unsubscribe func())
}

// claims are the JWT claims issued by the hosted auth provider.
type claims struct {
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens from the auth provider and
// extracts the identity they carry.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the given shared secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the identity it asserts.
func (v *TokenVerifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	role := c.Role
	if role == "" {
		role = RoleCustomer
	}

	return &Identity{
		UID:         c.Subject,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
		Role:        role,
	}, nil
}

// Issue signs a token for the given identity; used by tests and local
// development tooling.
func (v *TokenVerifier) Issue(id *Identity, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		DisplayName: id.DisplayName,
		AvatarURL:   id.AvatarURL,
		Role:        id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "storefront",
		},
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// SessionProvider holds the process-wide current identity and notifies
// observers on sign-in and sign-out. It is the Provider implementation used
// by the application; the HTTP session endpoints drive it.
type SessionProvider struct {
	mu      sync.Mutex
	current *Identity
	subs    map[int]func(*Identity)
	nextID  int
}

// NewSessionProvider creates a provider with an anonymous session.
func NewSessionProvider() *SessionProvider {
	return &SessionProvider{subs: make(map[int]func(*Identity))}
}

// Current returns the signed-in identity, or nil when anonymous.
func (p *SessionProvider) Current(_ context.Context) (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

// OnChange registers an observer invoked with the new identity (nil on
// sign-out). The returned function removes the observer.
func (p *SessionProvider) OnChange(fn func(*Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// SignIn sets the current identity and notifies observers.
func (p *SessionProvider) SignIn(id *Identity) {
	p.set(id)
}

// SignOut clears the current identity and notifies observers.
func (p *SessionProvider) SignOut() {
	p.set(nil)
}

func (p *SessionProvider) set(id *Identity) {
	p.mu.Lock()
	p.current = id
	handlers := make([]func(*Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(id)
	}
}
