// Package auth issues and verifies the bearer tokens handed out at login, and keeps
// the set of tokens revoked by logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/axellelanca/shortlink/internal/errors"
)

// Claims is the payload of a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 tokens and verifies them against the revocation set.
type TokenIssuer struct {
	secret    []byte
	ttl       time.Duration
	blacklist Blacklist
	now       func() time.Time
}

// NewTokenIssuer builds an issuer. blacklist must not be nil.
func NewTokenIssuer(secret string, ttl time.Duration, blacklist Blacklist) *TokenIssuer {
	return &TokenIssuer{
		secret:    []byte(secret),
		ttl:       ttl,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// Issue returns a signed token for username and its expiry.
// Every token gets its own jti so revoking one never revokes a sibling.
func (i *TokenIssuer) Issue(username string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and revocation, in that order.
// Every rejection matches errors.ErrAuthentication.
func (i *TokenIssuer) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", apperrors.ErrAuthentication)
		}
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrAuthentication)
	}
	if !token.Valid || claims.Username == "" {
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrAuthentication)
	}

	revoked, err := i.blacklist.Contains(ctx, tokenString)
	if err != nil {
		// An unreadable revocation set must not let a revoked token through.
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

// Revoke adds the exact token value to the revocation set until it would expire anyway.
func (i *TokenIssuer) Revoke(ctx context.Context, tokenString string, expiresAt time.Time) error {
	if err := i.blacklist.Add(ctx, tokenString, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
