package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mhasan/skillbridge/internal/apperror"
	"github.com/mhasan/skillbridge/internal/model"
)

// newTestDB returns a DB backed by a throwaway file in t.TempDir().
//
// A file (not ":memory:") because database/sql pools connections and each
// in-memory connection would be its own empty database — the concurrency
// tests below need all connections to see the same data.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestAccount creates an account+profile and fails the test on error.
func createTestAccount(t *testing.T, db *DB, username, email string) *model.Account {
	t.Helper()
	account := &model.Account{
		Username:     username,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$2a$04$fakehashfortesting",
	}
	if err := db.Create(context.Background(), account, model.NewProfile(model.RoleWorker)); err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	db := newTestDB(t)

	account := createTestAccount(t, db, "alice", "alice@example.com")

	if account.ID == 0 {
		t.Error("Create() did not set account.ID")
	}
	if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_ProfileCreatedAtomically(t *testing.T) {
	db := newTestDB(t)

	account := createTestAccount(t, db, "alice", "alice@example.com")

	profile, err := db.GetProfile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetProfile() after Create error = %v", err)
	}
	if profile.UserType != model.RoleWorker {
		t.Errorf("profile.UserType = %q, want %q", profile.UserType, model.RoleWorker)
	}
	if profile.TrustScore != 50 || profile.Level != 1 || profile.XPPoints != 0 {
		t.Errorf("profile baselines = (%v, %d, %d), want (50, 1, 0)",
			profile.TrustScore, profile.Level, profile.XPPoints)
	}
	if profile.Skills == nil || len(profile.Skills) != 0 {
		t.Errorf("profile.Skills = %v, want empty non-nil slice", profile.Skills)
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)

	createTestAccount(t, db, "bob", "bob@example.com")

	dup := &model.Account{Username: "bob", Email: "other@example.com"}
	err := db.Create(context.Background(), dup, model.NewProfile(model.RoleWorker))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate username error = %v, want ErrConflict", err)
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "username" {
		t.Errorf("conflict Field = %q, want %q", appErr.Field, "username")
	}

	// The losing insert must leave nothing behind.
	if _, err := db.GetByEmail(context.Background(), "other@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Error("losing Create() left an account row behind")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	createTestAccount(t, db, "bob", "bob@example.com")

	dup := &model.Account{Username: "robert", Email: "bob@example.com"}
	err := db.Create(context.Background(), dup, model.NewProfile(model.RoleWorker))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate email error = %v, want ErrConflict", err)
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "email" {
		t.Errorf("conflict Field = %q, want %q", appErr.Field, "email")
	}
}

// TestCreate_ConcurrentSameEmail hammers Create with the same email from
// many goroutines. The UNIQUE constraint — not the service pre-check — must
// let exactly one through.
func TestCreate_ConcurrentSameEmail(t *testing.T) {
	db := newTestDB(t)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account := &model.Account{
				Username: fmt.Sprintf("racer%d", i), // distinct usernames, same email
				Email:    "raced@example.com",
			}
			err := db.Create(context.Background(), account, model.NewProfile(model.RoleWorker))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperror.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected Create() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("concurrent creates with same email: %d succeeded, want exactly 1", succeeded)
	}
	if succeeded+conflicts != attempts {
		t.Errorf("succeeded(%d) + conflicts(%d) != attempts(%d)", succeeded, conflicts, attempts)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestAccount(t, db, "carol", "carol@example.com")

	got, err := db.GetByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != created.ID || got.Email != "carol@example.com" {
		t.Errorf("GetByUsername() = %+v, want id %d", got, created.ID)
	}
	if got.PasswordHash == "" {
		t.Error("GetByUsername() should return the stored password hash")
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

func TestGetByEmail_CaseSensitive(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "dave", "Dave@Example.com")

	if _, err := db.GetByEmail(context.Background(), "Dave@Example.com"); err != nil {
		t.Fatalf("GetByEmail() exact match error = %v", err)
	}

	// Emails are stored and matched case-sensitively.
	if _, err := db.GetByEmail(context.Background(), "dave@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() lowercased error = %v, want ErrNotFound", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUsernameExists(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "eve", "eve@example.com")

	exists, err := db.UsernameExists(context.Background(), "eve")
	if err != nil {
		t.Fatalf("UsernameExists() error = %v", err)
	}
	if !exists {
		t.Error("UsernameExists(eve) = false, want true")
	}

	exists, err = db.UsernameExists(context.Background(), "eve1")
	if err != nil {
		t.Fatalf("UsernameExists() error = %v", err)
	}
	if exists {
		t.Error("UsernameExists(eve1) = true, want false")
	}
}

// =========================================================================
// PROFILE TESTS
// =========================================================================

func TestUpdateProfile_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "frank", "frank@example.com")

	profile, err := db.GetProfile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}

	profile.UserType = model.RoleClient
	profile.Skills = []string{"go", "sql"}
	profile.XPPoints = 120

	if err := db.UpdateProfile(context.Background(), profile); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	got, err := db.GetProfile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetProfile() after update error = %v", err)
	}
	if got.UserType != model.RoleClient {
		t.Errorf("UserType = %q, want %q", got.UserType, model.RoleClient)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "go" || got.Skills[1] != "sql" {
		t.Errorf("Skills = %v, want [go sql]", got.Skills)
	}
	if got.XPPoints != 120 {
		t.Errorf("XPPoints = %d, want 120", got.XPPoints)
	}
}

func TestUpdateProfile_UnknownAccount(t *testing.T) {
	db := newTestDB(t)

	profile := model.NewProfile(model.RoleWorker)
	profile.AccountID = 12345

	err := db.UpdateProfile(context.Background(), profile)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateProfile() error = %v, want ErrNotFound", err)
	}
}
