// Package auth verifies bearer tokens and resolves them to a principal.
package auth

import (
	"bms-service/internal/domain"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	Audience   = "bms:auth"
	CookieName = "bms_session"
	DefaultTTL = 30 * time.Minute
)

var ErrUnauthenticated = errors.New("authentication required")

type UserSource interface {
	UserByID(ctx context.Context, userID domain.UserID) (domain.User, error)
}

type Authenticator struct {
	secret []byte
	users  UserSource
	now    func() time.Time
}

type Option func(*Authenticator)

func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

func NewAuthenticator(secret string, users UserSource, opts ...Option) *Authenticator {
	a := &Authenticator{
		secret: []byte(secret),
		users:  users,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Issue signs an HS256 token for userID that expires after ttl.
func (a *Authenticator) Issue(userID domain.UserID, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwtlib.RegisteredClaims{
		Subject:   strconv.FormatInt(int64(userID), 10),
		Audience:  jwtlib.ClaimStrings{Audience},
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate validates token and loads the user it was issued for. Every failure,
// including a token for a deleted user, is reported as ErrUnauthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	claims := &jwtlib.RegisteredClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithAudience(Audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: malformed subject", ErrUnauthenticated)
	}

	user, err := a.users.UserByID(ctx, domain.UserID(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		return domain.Principal{}, err
	}

	return domain.Principal{UserID: user.ID, IsSuperuser: user.IsSuperuser}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
