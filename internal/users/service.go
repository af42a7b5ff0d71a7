package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/db"
	"github.com/brieflyhq/briefly-backend/pkg/db/models"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
)

// UpdateProfileRequest carries the editable profile fields. Absent fields
// are left untouched.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// ProfileService exposes the signed-in user's account surface.
type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Overview(ctx context.Context, id uuid.UUID) (*ProfileOverviewDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) error
	EmailTakenByOther(ctx context.Context, id uuid.UUID, email string) (bool, error)
}

// usageSource reports summary count and words summarized for an account.
type usageSource interface {
	Usage(ctx context.Context, userID uuid.UUID) (int64, int64, error)
}

type profileService struct {
	repo      profileRepository
	usage     usageSource
	freeLimit int
}

func NewProfileService(repo profileRepository, usage usageSource, quota config.QuotaConfig) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if usage == nil {
		return nil, fmt.Errorf("usage source is required")
	}
	return &profileService{repo: repo, usage: usage, freeLimit: quota.FreeSummaries}, nil
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}
	return FromModel(user), nil
}

// Overview bundles the account with its usage stats and remaining free quota.
func (s *profileService) Overview(ctx context.Context, id uuid.UUID) (*ProfileOverviewDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}

	count, words, err := s.usage.Usage(ctx, id)
	if err != nil {
		return nil, err
	}

	quota := ProfileQuotaDTO{ResetAt: user.SummaryResetAt}
	if !user.IsSubscriber {
		left := s.freeLimit - user.SummaryCount
		if left < 0 {
			left = 0
		}
		quota.Left = &left
	}

	return &ProfileOverviewDTO{
		User:  *FromModel(user),
		Stats: ProfileStatsDTO{SummariesCount: count, WordsSummarized: words},
		Quota: quota,
	}, nil
}

func (s *profileService) Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	dto := UpdateProfileDTO{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		dto.FullName = &name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		taken, err := s.repo.EmailTakenByOther(ctx, id, email)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		dto.Email = &email
	}

	if dto.FullName != nil || dto.Email != nil {
		if err := s.repo.UpdateProfile(ctx, id, dto); err != nil {
			if db.IsUniqueViolation(err, "users_email_key") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating profile")
		}
	}

	return s.Get(ctx, id)
}
