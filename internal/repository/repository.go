package repository

import (
	"context"

	"github.com/mhasan/skillbridge/internal/model"
)

// UserRepository is the identity store: accounts plus their one-to-one
// profiles.
//
// Uniqueness of username and email is the STORE's job, not the caller's.
// The service layer does existence pre-checks for friendly error messages,
// but two concurrent creates can both pass those checks — the store's
// constraints decide the winner, and the loser gets a conflict error
// (apperror.ErrConflict with the offending field).
type UserRepository interface {
	// Create persists an account and its profile atomically, assigning the
	// account id. Either both rows exist afterwards or neither does.
	Create(ctx context.Context, account *model.Account, profile *model.Profile) error

	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)

	// UsernameExists is the cheap indexed lookup the username-suffix
	// allocation loop runs once per collision.
	UsernameExists(ctx context.Context, username string) (bool, error)

	GetProfile(ctx context.Context, accountID int64) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
}
