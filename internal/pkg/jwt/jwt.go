package jwt

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	// ErrSigningKeyTooShort rejects HS512 keys under 512 bits.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired       = errors.New("JWT token has expired")
	ErrInvalidToken       = errors.New("invalid token")
)

// Scopes understood by the vault API. A read token may list sites and fetch
// codes; a write token may also add, generate and delete.
const (
	ScopeRead  = "sites:read"
	ScopeWrite = "sites:write"
)

// DefaultTTL applies when Config.TTL is zero.
const DefaultTTL = 15 * time.Minute

// JWT issues and verifies API tokens.
type JWT interface {
	Generate(subject string, scopes ...string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config feeds NewHS512. Clock and UUID fall back to the wall clock and
// random UUIDs.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates the jti claim.
	UUID generator
}

// Claims is the registered claim set plus a space separated scope list.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Scopes splits Scope.
func (c Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

func (c Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes(), scope)
}

type claimsKey struct{}

// GetAuth returns the claims of the authenticated request, or nil.
func GetAuth(ctx context.Context) *Claims {
	if clm, ok := ctx.Value(claimsKey{}).(Claims); ok {
		return &clm
	}
	return nil
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, clm)
}
