// Package service holds the authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (identity rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// It owns the two rules that actually matter in this codebase:
//
//  1. Identity resolution — an external identity (username+password, or a
//     Google-verified email) maps to exactly one local account, created on
//     first sight with a collision-free username.
//  2. Session issuance — every successful resolution mints an
//     access/refresh pair; a refresh token can be rotated into new access
//     tokens until it expires.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mhasan/skillbridge/internal/apperror"
	"github.com/mhasan/skillbridge/internal/auth"
	"github.com/mhasan/skillbridge/internal/model"
	"github.com/mhasan/skillbridge/internal/repository"
)

// AuthService handles identity resolution and session issuance.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the resolved account with its freshly minted tokens so
// the HTTP handler can serialize both in one response.
type AuthResult struct {
	Account *model.Account
	Tokens  *auth.TokenPair
}

// Login authenticates a username/password pair and issues a session.
//
// Unknown username and wrong password return the IDENTICAL error
// (apperror.InvalidCredentials) — the response must not reveal which check
// failed, or the endpoint becomes an account-enumeration oracle. Accounts
// created via Google sign-in have no usable credential, so they fail here
// no matter what password is supplied.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" {
		return nil, apperror.MissingField("username")
	}
	if password == "" {
		return nil, apperror.MissingField("password")
	}

	account, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if !account.HasUsableCredential() || !s.passwords.Verify(account.PasswordHash, password) {
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in",
		slog.Int64("accountID", account.ID),
		slog.String("username", account.Username),
	)

	return s.issueSession(account)
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	UserType  string // defaults to model.RoleWorker when empty
}

// Register creates a new local account with a hashed password and its
// profile, then issues a session.
//
// The existence pre-checks below give friendly errors for the common case,
// but they are advisory: two concurrent registrations can both pass them.
// The store's UNIQUE constraints are the real gate, and Create returns the
// same DuplicateUsername/DuplicateEmail errors when they fire.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	switch {
	case in.Username == "":
		return nil, apperror.MissingField("username")
	case in.Email == "":
		return nil, apperror.MissingField("email")
	case in.Password == "":
		return nil, apperror.MissingField("password")
	}

	userType := in.UserType
	if userType == "" {
		userType = model.RoleWorker
	}
	if !model.ValidRole(userType) {
		return nil, apperror.ValidationFailed("user_type", fmt.Sprintf("unknown user type %q", userType))
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperror.DuplicateUsername(in.Username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username %q: %w", in.Username, err)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.DuplicateEmail(in.Email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email %q: %w", in.Email, err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	account := &model.Account{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, account, model.NewProfile(userType)); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err // lost the race — surface the duplicate as-is
		}
		return nil, fmt.Errorf("service/auth: creating account %q: %w", in.Username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("accountID", account.ID),
		slog.String("username", account.Username),
		slog.String("userType", userType),
	)

	return s.issueSession(account)
}

// LoginOrRegisterGoogle resolves a Google-verified identity to a local
// account, creating one on first sign-in, and issues a session.
//
// The email is trusted unconditionally — the GoogleProvider has already
// checked the ID token's signature, expiry, and audience. An existing
// account is returned untouched even if Google now reports different name
// fields.
//
// New accounts get the email's local-part as username; on collision an
// ascending integer suffix is appended (bob, bob1, bob2 taken → bob3). The
// loop terminates because the set of existing usernames is finite. The
// account is created with an unusable password credential, so local login
// can never succeed against it.
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, bool, error) {
	if gUser == nil || gUser.Email == "" {
		return nil, false, apperror.MissingField("email")
	}

	account, err := s.users.GetByEmail(ctx, gUser.Email)
	if err == nil {
		result, err := s.issueSession(account)
		return result, false, err
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, fmt.Errorf("service/auth: looking up email %q: %w", gUser.Email, err)
	}

	account, created, err := s.createGoogleAccount(ctx, gUser)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("user created via Google sign-in",
			slog.Int64("accountID", account.ID),
			slog.String("username", account.Username),
		)
	}

	result, err := s.issueSession(account)
	return result, created, err
}

// createGoogleAccount allocates a free username and inserts the account.
// The bool reports whether OUR insert won — false means a concurrent
// sign-in created the account and we returned the winner's record.
//
// Both uniqueness races are handled here:
//   - username: somebody grabbed our candidate between the exists-check and
//     the insert → try the next suffix.
//   - email: a concurrent sign-in for the same Google identity won the
//     insert → re-fetch and return the winner's account instead of erroring,
//     so both requests resolve to the same id.
func (s *AuthService) createGoogleAccount(ctx context.Context, gUser *auth.GoogleUser) (*model.Account, bool, error) {
	base, _, _ := strings.Cut(gUser.Email, "@")
	if base == "" {
		base = "user"
	}

	for suffix := 0; ; suffix++ {
		candidate := base
		if suffix > 0 {
			candidate = fmt.Sprintf("%s%d", base, suffix)
		}

		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return nil, false, fmt.Errorf("service/auth: checking username %q: %w", candidate, err)
		}
		if taken {
			continue
		}

		account := &model.Account{
			Username:  candidate,
			Email:     gUser.Email,
			FirstName: gUser.FirstName,
			LastName:  gUser.LastName,
			// no PasswordHash: unusable credential
		}

		err = s.users.Create(ctx, account, model.NewProfile(model.RoleWorker))
		if err == nil {
			return account, true, nil
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict) {
			switch appErr.Field {
			case "username":
				continue // raced on the username — next suffix
			case "email":
				// raced on the email — return the winner
				winner, err := s.users.GetByEmail(ctx, gUser.Email)
				return winner, false, err
			}
		}
		return nil, false, fmt.Errorf("service/auth: creating Google account for %q: %w", gUser.Email, err)
	}
}

// Refresh exchanges a refresh token for a new access token. Thin delegation
// to TokenService so callers only import the service package.
//
// An absent token is just another invalid token — every failure of the
// supplied credential comes back as the same InvalidRefreshToken class.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.InvalidRefreshToken()
	}
	return s.tokens.Refresh(refreshToken)
}

func (s *AuthService) issueSession(account *model.Account) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing tokens for account %d: %w", account.ID, err)
	}
	return &AuthResult{Account: account, Tokens: pair}, nil
}
