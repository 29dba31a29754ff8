// Package auth provides the building blocks of the authentication flow:
// JWT issuance and validation, bcrypt password hashing, Google sign-in
// verification, and the HTTP middleware that guards protected routes.
//
// SESSION MODEL:
// Sessions are a stateless access/refresh token pair. The access token is
// short-lived and sent as a Bearer header on every API call; the refresh
// token is long-lived and exchanged for fresh access tokens at
// /api/auth/token/refresh. Nothing is stored server-side — the HMAC
// signature is the only thing that makes a token trustworthy.
//
// Both tokens carry the account id in the "sub" claim plus a custom
// "token_type" claim ("access" or "refresh") so a stolen access token can
// never be replayed against the refresh endpoint.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mhasan/skillbridge/internal/apperror"
)

const issuer = "skillbridge"

// Token type claim values.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is what every successful login, registration, or Google sign-in
// returns. The JSON field names match what the frontend expects.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenService signs and verifies the JWT session tokens.
//
// The expiry horizons are injected rather than hardcoded — they are a
// signing-policy decision made in config, not here. The same HMAC secret
// signs both token types; the token_type claim keeps them distinct.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token TTLs must be positive")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// claims is the JWT payload: the standard registered claims (sub carries the
// account id) plus the token_type discriminator.
type claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuePair mints a fresh access/refresh pair for the given account.
// It always succeeds for a valid account id — there is no per-account state
// that could make issuance fail.
func (s *TokenService) IssuePair(accountID int64) (*TokenPair, error) {
	access, err := s.sign(accountID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("auth: signing access token: %w", err)
	}
	refresh, err := s.sign(accountID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("auth: signing refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
//
// Any validation failure — malformed token, bad signature, expiry, or an
// access token smuggled in where a refresh token belongs — comes back as
// apperror.ErrInvalidRefreshToken. The refresh token itself is not rotated;
// it stays valid until its own expiry.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	accountID, err := s.verify(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", apperror.InvalidRefreshToken()
	}

	access, err := s.sign(accountID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth: signing refreshed access token: %w", err)
	}
	return access, nil
}

// ValidateAccess verifies an access token and returns the account id it was
// issued for. Used by the middleware on every protected request.
func (s *TokenService) ValidateAccess(token string) (int64, error) {
	return s.verify(token, tokenTypeAccess)
}

func (s *TokenService) sign(accountID int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// verify parses a token, checks signature/expiry/issuer, and requires the
// token_type claim to match wantType. Returns the subject as an account id.
//
// Pinning the algorithm with WithValidMethods blocks algorithm-confusion
// attacks ("alg":"none" and friends).
func (s *TokenService) verify(tokenStr, wantType string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("auth: token expired")
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid token claims")
	}
	if c.TokenType != wantType {
		return 0, fmt.Errorf("auth: token is a %s token, want %s", c.TokenType, wantType)
	}

	accountID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, fmt.Errorf("auth: token subject is not a valid account id")
	}

	return accountID, nil
}
