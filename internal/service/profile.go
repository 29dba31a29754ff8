package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mhasan/skillbridge/internal/apperror"
	"github.com/mhasan/skillbridge/internal/model"
	"github.com/mhasan/skillbridge/internal/repository"
)

// ProfileService serves the authenticated profile endpoints.
type ProfileService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewProfileService(users repository.UserRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, logger: logger}
}

// ProfileView is the flattened account+profile shape the API returns —
// account identity fields alongside the profile's progression fields.
type ProfileView struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	UserType   string   `json:"user_type"`
	TrustScore float64  `json:"trust_score"`
	Skills     []string `json:"skills"`
	Level      int      `json:"level"`
	XPPoints   int      `json:"xp_points"`
}

// Get returns the profile view for the given account.
func (s *ProfileService) Get(ctx context.Context, accountID int64) (*ProfileView, error) {
	account, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching account %d: %w", accountID, err)
	}
	profile, err := s.users.GetProfile(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching profile %d: %w", accountID, err)
	}

	return &ProfileView{
		Username:   account.Username,
		Email:      account.Email,
		FirstName:  account.FirstName,
		LastName:   account.LastName,
		UserType:   profile.UserType,
		TrustScore: profile.TrustScore,
		Skills:     profile.Skills,
		Level:      profile.Level,
		XPPoints:   profile.XPPoints,
	}, nil
}

// UpdateInput carries the mutable profile fields. Nil means "leave as is".
type UpdateInput struct {
	UserType *string
	Skills   *[]string
}

// Update applies the mutable fields (user_type, skills) and returns the
// updated view. Trust score, level, and XP are progression state owned by
// other parts of the system — clients cannot write them.
func (s *ProfileService) Update(ctx context.Context, accountID int64, in UpdateInput) (*ProfileView, error) {
	profile, err := s.users.GetProfile(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching profile %d: %w", accountID, err)
	}

	if in.UserType != nil {
		if !model.ValidRole(*in.UserType) {
			return nil, apperror.ValidationFailed("user_type", fmt.Sprintf("unknown user type %q", *in.UserType))
		}
		profile.UserType = *in.UserType
	}
	if in.Skills != nil {
		skills := *in.Skills
		if skills == nil {
			skills = []string{}
		}
		profile.Skills = skills
	}

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("service/profile: updating profile %d: %w", accountID, err)
	}

	s.logger.Info("profile updated",
		slog.Int64("accountID", accountID),
		slog.String("userType", profile.UserType),
	)

	return s.Get(ctx, accountID)
}
