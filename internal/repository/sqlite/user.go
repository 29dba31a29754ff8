package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mhasan/skillbridge/internal/apperror"
	"github.com/mhasan/skillbridge/internal/model"
	"github.com/mhasan/skillbridge/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts an account and its profile in one transaction.
//
// The UNIQUE constraints on users.username and users.email fire here when
// two concurrent creates race past the service layer's pre-checks. The
// violation is translated into the matching apperror (DuplicateUsername or
// DuplicateEmail) so the service can decide whether to surface it or, on
// the Google path, re-fetch the winner.
func (db *DB) Create(ctx context.Context, account *model.Account, profile *model.Profile) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, first_name, last_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.Username,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "username"):
			return apperror.DuplicateUsername(account.Username)
		case isUniqueViolation(err, "email"):
			return apperror.DuplicateEmail(account.Email)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", account.Username, err)
	}

	account.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}

	profile.AccountID = account.ID
	skills, err := json.Marshal(profile.Skills)
	if err != nil {
		return fmt.Errorf("sqlite: encoding skills: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (account_id, user_type, trust_score, level, xp_points, skills)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		profile.AccountID,
		profile.UserType,
		profile.TrustScore,
		profile.Level,
		profile.XPPoints,
		string(skills),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting profile for user %d: %w", account.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user create: %w", err)
	}

	return nil
}

const accountColumns = `id, username, email, first_name, last_name, password_hash, created_at, updated_at`

func (db *DB) scanAccount(row *sql.Row, notFoundID string) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", notFoundID)
		}
		return nil, fmt.Errorf("sqlite: scanning account: %w", err)
	}
	return &a, nil
}

// GetByID retrieves an account by its numeric id.
// Returns apperror.ErrNotFound if no account exists with that id.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = ?`, id)
	return db.scanAccount(row, strconv.FormatInt(id, 10))
}

// GetByUsername retrieves an account by exact username match.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE username = ?`, username)
	return db.scanAccount(row, username)
}

// GetByEmail retrieves an account by exact (case-sensitive) email match.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE email = ?`, email)
	return db.scanAccount(row, email)
}

// UsernameExists reports whether any account holds the given username.
// Runs against the UNIQUE index on users.username, so it stays cheap even
// when the suffix-allocation loop calls it repeatedly.
func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE username = ?`, username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking username %q: %w", username, err)
	}
	return n > 0, nil
}

// GetProfile retrieves the profile owned by the given account.
func (db *DB) GetProfile(ctx context.Context, accountID int64) (*model.Profile, error) {
	var (
		p      model.Profile
		skills string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT account_id, user_type, trust_score, level, xp_points, skills
		 FROM profiles WHERE account_id = ?`,
		accountID,
	).Scan(&p.AccountID, &p.UserType, &p.TrustScore, &p.Level, &p.XPPoints, &skills)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", strconv.FormatInt(accountID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting profile for account %d: %w", accountID, err)
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("sqlite: decoding skills for account %d: %w", accountID, err)
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}

	return &p, nil
}

// UpdateProfile persists the mutable profile fields (user_type, skills, and
// the progression counters).
func (db *DB) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	skills, err := json.Marshal(profile.Skills)
	if err != nil {
		return fmt.Errorf("sqlite: encoding skills: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET user_type = ?, trust_score = ?, level = ?, xp_points = ?, skills = ?
		 WHERE account_id = ?`,
		profile.UserType,
		profile.TrustScore,
		profile.Level,
		profile.XPPoints,
		string(skills),
		profile.AccountID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile for account %d: %w", profile.AccountID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking profile update: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("profile", strconv.FormatInt(profile.AccountID, 10))
	}

	return nil
}
