package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/xraph/points/types"
)

// HeaderCallerAddress carries the caller address for HeaderResolver.
const HeaderCallerAddress = "X-Caller-Address"

// ErrUnauthenticated is returned by resolvers when the request carries no
// usable identity.
var ErrUnauthenticated = errors.New("api: unauthenticated")

// IdentityResolver extracts the acting identity from a request.
type IdentityResolver interface {
	Resolve(r *http.Request) (types.Address, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(r *http.Request) (types.Address, error)

// Resolve implements IdentityResolver.
func (f IdentityResolverFunc) Resolve(r *http.Request) (types.Address, error) { return f(r) }

// HeaderResolver trusts the X-Caller-Address header. Use it only behind a
// gateway that authenticates callers.
type HeaderResolver struct{}

// Resolve implements IdentityResolver.
func (HeaderResolver) Resolve(r *http.Request) (types.Address, error) {
	raw := strings.TrimSpace(r.Header.Get(HeaderCallerAddress))
	if raw == "" {
		return types.ZeroAddress, fmt.Errorf("%w: missing %s header", ErrUnauthenticated, HeaderCallerAddress)
	}
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return addr, nil
}

// JWTConfig configures a JWTResolver.
type JWTConfig struct {
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

// JWTResolver reads a bearer token signed with an HMAC secret. The sub
// claim is the caller address.
type JWTResolver struct {
	cfg    JWTConfig
	secret []byte
}

// NewJWTResolver returns a resolver for cfg. ClockSkew defaults to two
// minutes.
func NewJWTResolver(cfg JWTConfig) *JWTResolver {
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &JWTResolver{cfg: cfg, secret: []byte(strings.TrimSpace(cfg.HMACSecret))}
}

// Resolve implements IdentityResolver.
func (j *JWTResolver) Resolve(r *http.Request) (types.Address, error) {
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return types.ZeroAddress, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	if len(j.secret) == 0 {
		return types.ZeroAddress, fmt.Errorf("%w: jwt secret not configured", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(j.cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if j.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.cfg.Issuer))
	}
	if j.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(j.cfg.Audience))
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return types.ZeroAddress, fmt.Errorf("%w: token invalid", ErrUnauthenticated)
	}

	addr, err := types.ParseAddress(claims.Subject)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("%w: subject: %v", ErrUnauthenticated, err)
	}
	return addr, nil
}

// Sign issues a token for addr valid for ttl. It exists for tests and
// local tooling.
func (j *JWTResolver) Sign(addr types.Address, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   addr.Hex(),
		Issuer:    j.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if j.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func extractBearer(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
