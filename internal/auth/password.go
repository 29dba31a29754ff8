package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — slow enough to hurt brute-force, fast enough for login.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It is a struct (not free functions) so the cost can be lowered in tests —
// bcrypt at cost 4 is orders of magnitude faster and the logic under test
// is identical.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do not use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The output embeds
// the salt and cost; store it directly.
//
// Rejects plaintexts over 72 bytes — bcrypt silently truncates beyond that,
// which would let "correct horse battery staple padding..." collide.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored bcrypt hash.
//
// An empty hash is an unusable credential (Google-created accounts): Verify
// returns false for every input, deterministically, without error. That is
// the contract the identity resolver relies on — a social account can never
// be logged into with a password.
//
// bcrypt.CompareHashAndPassword is constant-time internally, so this is
// safe against timing attacks.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
